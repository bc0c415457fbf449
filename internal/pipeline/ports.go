package pipeline

import (
	"context"

	"loomproc/internal/drive"
	"loomproc/internal/extract"
)

// The orchestrator depends on its stages through these interfaces so each
// can be faked in tests and swapped independently.

// Fetcher downloads the referenced video into dir and returns its local path.
type Fetcher interface {
	Fetch(ctx context.Context, reference, dir string) (string, error)
}

// FrameExtractor decomposes a video into ordered still frames.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath, outDir string, intervalSeconds int) ([]string, error)
}

// AudioExtractor produces the single normalized audio track for a video.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, outDir string) (string, error)
}

// Prober reads media properties; used for report metadata only, never to
// gate the run.
type Prober interface {
	Probe(ctx context.Context, path string) (*extract.MediaInfo, error)
}

// Uploader persists one local file under a logical name.
type Uploader interface {
	Upload(ctx context.Context, localPath, name string) (*drive.RemoteArtifact, error)
}
