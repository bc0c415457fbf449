package drive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"loomproc/internal/config"
)

func TestResolveParent(t *testing.T) {
	tests := []struct {
		name       string
		folderID   string
		sharedID   string
		wantParent string
		wantShared bool
		wantErr    bool
	}{
		{
			name:       "Flat folder only",
			folderID:   "folder-1",
			wantParent: "folder-1",
		},
		{
			name:       "Shared drive only",
			sharedID:   "drive-1",
			wantParent: "drive-1",
			wantShared: true,
		},
		{
			name:       "Folder inside shared drive",
			folderID:   "folder-1",
			sharedID:   "drive-1",
			wantParent: "folder-1",
			wantShared: true,
		},
		{
			name:    "Nothing configured",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUploader(nil, &config.Config{
				DriveFolderID: tt.folderID,
				DriveSharedID: tt.sharedID,
			})

			parent, shared, err := u.resolveParent()
			if tt.wantErr {
				var notConfigured *PlacementNotConfiguredError
				if !errors.As(err, &notConfigured) {
					t.Fatalf("error = %v, want *PlacementNotConfiguredError", err)
				}
				if u.Configured() {
					t.Error("Configured() = true for empty placement")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveParent returned error: %v", err)
			}
			if parent != tt.wantParent || shared != tt.wantShared {
				t.Errorf("resolveParent() = (%q, %v), want (%q, %v)", parent, shared, tt.wantParent, tt.wantShared)
			}
		})
	}
}

func TestUpload_MissingArtifact(t *testing.T) {
	u := NewUploader(nil, &config.Config{DriveFolderID: "folder-1"})

	_, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"), "x.mp4")
	var missing *ArtifactMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %T, want *ArtifactMissingError", err)
	}
}

func TestUpload_PlacementNotConfigured(t *testing.T) {
	// The placement check runs before any remote call, so a nil service is
	// never dereferenced.
	u := NewUploader(nil, &config.Config{})

	path := filepath.Join(t.TempDir(), "present.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := u.Upload(context.Background(), path, "x.mp4")
	var notConfigured *PlacementNotConfiguredError
	if !errors.As(err, &notConfigured) {
		t.Fatalf("error = %T, want *PlacementNotConfiguredError", err)
	}
}
