// Package fetch downloads Loom recordings to local storage.
//
// The primary strategy shells out to yt-dlp. When yt-dlp exits without
// leaving a usable file behind, a direct CDN URL is derived from the video ID
// and fetched with curl. Exit codes alone are not trusted: a download only
// counts once a non-empty file exists at the destination.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"loomproc/internal/config"
	"loomproc/internal/execx"
	"loomproc/internal/source"
)

// fallbackURLTemplate is the direct CDN location Loom serves recordings from.
const fallbackURLTemplate = "https://cdn.loom.com/sessions/thumbnails/%s.mp4"

// FetchError reports that both transfer strategies failed. Diagnostics holds
// the primary and fallback failures together so neither is lost.
type FetchError struct {
	Reference   string
	Diagnostics error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to download video %s: %v", e.Reference, e.Diagnostics)
}

func (e *FetchError) Unwrap() error { return e.Diagnostics }

// Fetcher downloads a recording into a caller-supplied directory.
type Fetcher struct {
	runner    execx.Runner
	ytDlpPath string
	curlPath  string
	now       func() time.Time
}

// New creates a Fetcher using the tool paths from cfg.
func New(cfg *config.Config, runner execx.Runner) *Fetcher {
	return &Fetcher{
		runner:    runner,
		ytDlpPath: cfg.YtDlpPath,
		curlPath:  cfg.CurlPath,
		now:       time.Now,
	}
}

// Fetch downloads the referenced video into dir and returns the local path.
// Destination names carry a timestamp so concurrent runs sharing a directory
// never collide. A zero-byte or partial file may remain on disk after a
// failure; reclaiming dir is the caller's responsibility.
func (f *Fetcher) Fetch(ctx context.Context, reference, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	ts := f.now().UnixNano()
	dest := filepath.Join(dir, fmt.Sprintf("loom_video_%d.mp4", ts))

	log.Info().Str("reference", reference).Str("dest", dest).Msg("Downloading video with yt-dlp")

	output, runErr := f.runner.Run(ctx, f.ytDlpPath, "-f", "best", "-o", dest, reference)
	if usable(dest) {
		log.Info().Str("path", dest).Int64("size_bytes", fileSize(dest)).Msg("Video downloaded")
		return dest, nil
	}

	primary := fmt.Errorf("yt-dlp left no usable file (%v): %s", runErr, output)
	log.Warn().Err(runErr).Str("reference", reference).Msg("yt-dlp produced no usable file, trying direct CDN URL")

	videoID, err := source.Resolve(reference)
	if err != nil {
		return "", &FetchError{Reference: reference, Diagnostics: multierror.Append(primary, err)}
	}

	altURL := fmt.Sprintf(fallbackURLTemplate, videoID)
	altDest := filepath.Join(dir, fmt.Sprintf("loom_direct_%d.mp4", ts))

	log.Info().Str("url", altURL).Str("dest", altDest).Msg("Downloading video with curl")

	altOutput, altRunErr := f.runner.Run(ctx, f.curlPath, "-L", "-o", altDest, altURL)
	if usable(altDest) {
		log.Info().Str("path", altDest).Int64("size_bytes", fileSize(altDest)).Msg("Direct download succeeded")
		return altDest, nil
	}

	fallback := fmt.Errorf("curl left no usable file (%v): %s", altRunErr, altOutput)
	return "", &FetchError{Reference: reference, Diagnostics: multierror.Append(primary, fallback)}
}

// usable reports whether path exists with non-zero size. Both yt-dlp and curl
// can exit zero after writing nothing, so this is the real success criterion.
func usable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
