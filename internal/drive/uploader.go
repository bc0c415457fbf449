package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	drivev3 "google.golang.org/api/drive/v3"

	"loomproc/internal/config"
)

// RemoteArtifact is the stable reference returned for an uploaded file.
// It is never mutated after creation.
type RemoteArtifact struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// ArtifactMissingError reports an upload request for a local file that does
// not exist. The remote store is never contacted in this case.
type ArtifactMissingError struct {
	Path string
}

func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf("artifact not found: %s", e.Path)
}

// PlacementNotConfiguredError reports that neither a folder ID nor a shared
// drive ID was configured as the upload destination.
type PlacementNotConfiguredError struct{}

func (e *PlacementNotConfiguredError) Error() string {
	return "no Drive folder or shared drive configured for uploads"
}

// UploadError wraps a remote-side failure (auth, quota, not-found) with the
// remote error text preserved. Uploads are never retried here.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %s failed: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Uploader places local files into a fixed Drive destination: either a flat
// folder or a folder inside a shared drive. Shared-drive writes require the
// allow-all-drives capability flag on every call, which the Drive API
// enforces server-side.
type Uploader struct {
	svc      *drivev3.Service
	folderID string
	sharedID string
}

// NewUploader creates an Uploader targeting the placement configured in cfg.
func NewUploader(svc *drivev3.Service, cfg *config.Config) *Uploader {
	return &Uploader{
		svc:      svc,
		folderID: cfg.DriveFolderID,
		sharedID: cfg.DriveSharedID,
	}
}

// resolveParent picks the destination parent ID and whether the shared-drive
// code path applies. Folder placement inside a shared drive wins over the
// drive root.
func (u *Uploader) resolveParent() (parent string, shared bool, err error) {
	shared = u.sharedID != ""
	parent = u.folderID
	if parent == "" && shared {
		parent = u.sharedID
	}
	if parent == "" {
		return "", false, &PlacementNotConfiguredError{}
	}
	return parent, shared, nil
}

// Upload stores localPath under name and returns its remote reference. The
// transfer is resumable under the hood but atomic to the caller: either a
// complete RemoteArtifact comes back or an error does.
func (u *Uploader) Upload(ctx context.Context, localPath, name string) (*RemoteArtifact, error) {
	if _, err := os.Stat(localPath); err != nil {
		return nil, &ArtifactMissingError{Path: localPath}
	}

	parent, shared, err := u.resolveParent()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	log.Debug().
		Str("file", filepath.Base(localPath)).
		Str("name", name).
		Str("parent", parent).
		Bool("shared_drive", shared).
		Msg("Uploading artifact to Drive")

	meta := &drivev3.File{Name: name, Parents: []string{parent}}
	call := u.svc.Files.Create(meta).
		Media(f).
		Fields("id", "name", "webViewLink").
		Context(ctx)
	if shared {
		call = call.SupportsAllDrives(true)
	}

	created, err := call.Do()
	if err != nil {
		return nil, &UploadError{Name: name, Err: err}
	}

	log.Info().Str("name", created.Name).Str("id", created.Id).Msg("Artifact uploaded")

	return &RemoteArtifact{ID: created.Id, Name: created.Name, Link: created.WebViewLink}, nil
}

// ListFolders returns the folders visible in the configured scope. Used by
// the diagnostics endpoints to confirm the placement target is reachable.
func (u *Uploader) ListFolders(ctx context.Context) ([]*drivev3.File, error) {
	call := u.svc.Files.List().
		Q("mimeType='application/vnd.google-apps.folder' and trashed=false").
		Fields("files(id,name)").
		Context(ctx)
	if u.sharedID != "" {
		call = call.Corpora("drive").
			DriveId(u.sharedID).
			IncludeItemsFromAllDrives(true).
			SupportsAllDrives(true)
	}

	r, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return r.Files, nil
}

// GetFile fetches metadata for an uploaded artifact by ID.
func (u *Uploader) GetFile(ctx context.Context, id string) (*drivev3.File, error) {
	call := u.svc.Files.Get(id).
		Fields("id", "name", "webViewLink", "size").
		Context(ctx)
	if u.sharedID != "" {
		call = call.SupportsAllDrives(true)
	}

	f, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}
	return f, nil
}

// Configured reports whether a placement target exists, without touching the
// remote store.
func (u *Uploader) Configured() bool {
	_, _, err := u.resolveParent()
	return err == nil
}
