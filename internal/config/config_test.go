package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "TEMP_DIR", "GOOGLE_DRIVE_FOLDER_ID", "GOOGLE_DRIVE_SHARED_DRIVE_ID",
		"GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS_JSON",
		"LOOM_UPLOAD_WORKERS", "LOOM_YTDLP_PATH", "LOOM_CURL_PATH",
		"LOOM_FFMPEG_PATH", "LOOM_FFPROBE_PATH",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.UploadWorkers != DefaultUploadWorkers {
		t.Errorf("UploadWorkers = %d, want %d", cfg.UploadWorkers, DefaultUploadWorkers)
	}
	if cfg.YtDlpPath != "yt-dlp" || cfg.FfmpegPath != "ffmpeg" {
		t.Errorf("tool defaults wrong: %+v", cfg)
	}
	if cfg.TempDir == "" {
		t.Error("TempDir empty")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TEMP_DIR", "/var/loom")
	t.Setenv("GOOGLE_DRIVE_FOLDER_ID", "folder-1")
	t.Setenv("GOOGLE_DRIVE_SHARED_DRIVE_ID", "drive-1")
	t.Setenv("LOOM_UPLOAD_WORKERS", "8")
	t.Setenv("LOOM_FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.TempDir != "/var/loom" {
		t.Errorf("TempDir = %q", cfg.TempDir)
	}
	if cfg.DriveFolderID != "folder-1" || cfg.DriveSharedID != "drive-1" {
		t.Errorf("placement = %q/%q", cfg.DriveFolderID, cfg.DriveSharedID)
	}
	if cfg.UploadWorkers != 8 {
		t.Errorf("UploadWorkers = %d, want 8", cfg.UploadWorkers)
	}
	if cfg.FfmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FfmpegPath = %q", cfg.FfmpegPath)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "Non-numeric port", key: "PORT", value: "http"},
		{name: "Negative port", key: "PORT", value: "-1"},
		{name: "Zero workers", key: "LOOM_UPLOAD_WORKERS", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_InlineCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", `{"type":"service_account"}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CredentialsPath == "" {
		t.Fatal("CredentialsPath empty, want materialized file")
	}
	t.Cleanup(func() { os.Remove(cfg.CredentialsPath) })

	data, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		t.Fatalf("read materialized credentials: %v", err)
	}
	if string(data) != `{"type":"service_account"}` {
		t.Errorf("materialized content = %q", data)
	}
	if filepath.Base(cfg.CredentialsPath) != "service-account.json" {
		t.Errorf("unexpected credentials file name %q", cfg.CredentialsPath)
	}
}

func TestLoad_CredentialsPathPassthrough(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/keys/sa.json")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CredentialsPath != "/etc/keys/sa.json" {
		t.Errorf("CredentialsPath = %q", cfg.CredentialsPath)
	}
}
