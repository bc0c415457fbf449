// Package drive persists pipeline artifacts to Google Drive.
package drive

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"loomproc/internal/config"
)

// ErrNoCredentials means no service-account key was configured; the daemon
// still starts, but upload-dependent surfaces report the store unavailable.
var ErrNoCredentials = errors.New("no Google Drive credentials configured")

// NewService builds an authorized Drive v3 service from the service-account
// key file named in cfg.
func NewService(ctx context.Context, cfg *config.Config) (*drivev3.Service, error) {
	if cfg.CredentialsPath == "" {
		return nil, ErrNoCredentials
	}

	data, err := os.ReadFile(cfg.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, drivev3.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parse service-account credentials: %w", err)
	}

	svc, err := drivev3.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create Drive service: %w", err)
	}

	log.Debug().Str("credentials", cfg.CredentialsPath).Msg("Drive service ready")
	return svc, nil
}
