// Package config builds the process configuration once at startup.
//
// All environment access happens here; the pipeline components receive an
// explicit *Config instead of reading the environment at call time.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultPort          = 8080
	DefaultUploadWorkers = 4
)

// Config holds everything the pipeline and its HTTP surface need.
type Config struct {
	// Port is the daemon listen port (PORT).
	Port int

	// TempDir is the base directory for per-run working directories (TEMP_DIR).
	TempDir string

	// DriveFolderID is the flat-folder placement target (GOOGLE_DRIVE_FOLDER_ID).
	DriveFolderID string

	// DriveSharedID is the shared-drive placement target
	// (GOOGLE_DRIVE_SHARED_DRIVE_ID). When set, uploads go through the
	// shared-drive code path.
	DriveSharedID string

	// CredentialsPath points at the service-account JSON key file
	// (GOOGLE_APPLICATION_CREDENTIALS, possibly materialized from
	// GOOGLE_APPLICATION_CREDENTIALS_JSON).
	CredentialsPath string

	// Tool binaries, overridable for non-PATH installs.
	YtDlpPath   string
	CurlPath    string
	FfmpegPath  string
	FfprobePath string

	// UploadWorkers bounds concurrent Drive uploads (LOOM_UPLOAD_WORKERS).
	UploadWorkers int
}

// Load reads an optional .env file, materializes inline credentials, and
// assembles the Config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env file loaded")
	}

	cfg := &Config{
		Port:          DefaultPort,
		TempDir:       os.TempDir(),
		UploadWorkers: DefaultUploadWorkers,
		YtDlpPath:     "yt-dlp",
		CurlPath:      "curl",
		FfmpegPath:    "ffmpeg",
		FfprobePath:   "ffprobe",
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = p
	}
	if v := os.Getenv("TEMP_DIR"); v != "" {
		cfg.TempDir = v
	}
	cfg.DriveFolderID = os.Getenv("GOOGLE_DRIVE_FOLDER_ID")
	cfg.DriveSharedID = os.Getenv("GOOGLE_DRIVE_SHARED_DRIVE_ID")

	if v := os.Getenv("LOOM_UPLOAD_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid LOOM_UPLOAD_WORKERS %q", v)
		}
		cfg.UploadWorkers = n
	}

	if v := os.Getenv("LOOM_YTDLP_PATH"); v != "" {
		cfg.YtDlpPath = v
	}
	if v := os.Getenv("LOOM_CURL_PATH"); v != "" {
		cfg.CurlPath = v
	}
	if v := os.Getenv("LOOM_FFMPEG_PATH"); v != "" {
		cfg.FfmpegPath = v
	}
	if v := os.Getenv("LOOM_FFPROBE_PATH"); v != "" {
		cfg.FfprobePath = v
	}

	path, err := setupCredentials()
	if err != nil {
		return nil, err
	}
	cfg.CredentialsPath = path

	return cfg, nil
}

// setupCredentials resolves the service-account key file. When the key is
// supplied inline via GOOGLE_APPLICATION_CREDENTIALS_JSON (the usual shape on
// container platforms), it is written to a file so the Drive client can load
// it; otherwise GOOGLE_APPLICATION_CREDENTIALS is used as-is.
func setupCredentials() (string, error) {
	if inline := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"); inline != "" {
		path := filepath.Join(os.TempDir(), "service-account.json")
		if err := os.WriteFile(path, []byte(inline), 0o600); err != nil {
			return "", fmt.Errorf("write inline credentials: %w", err)
		}
		log.Debug().Str("path", path).Msg("Inline service-account credentials materialized")
		return path, nil
	}
	return os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"), nil
}
