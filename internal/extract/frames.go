// Package extract decomposes a local video file into still frames and a
// normalized audio track using ffmpeg, plus ffprobe-based metadata probing.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"loomproc/internal/config"
	"loomproc/internal/execx"
)

// Frame sampling bounds. The interval is caller-adjustable per run.
const (
	DefaultIntervalSeconds = 10
	MinIntervalSeconds     = 1
)

// FrameExtractionError reports an ffmpeg failure or an empty frame set.
// Output preserves the tool's diagnostics verbatim.
type FrameExtractionError struct {
	Output string
	Err    error
}

func (e *FrameExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("frame extraction failed: %s", e.Output)
	}
	return fmt.Sprintf("frame extraction failed: %v: %s", e.Err, e.Output)
}

func (e *FrameExtractionError) Unwrap() error { return e.Err }

// FrameExtractor emits one JPEG every N seconds of source duration.
type FrameExtractor struct {
	runner     execx.Runner
	ffmpegPath string
}

// NewFrameExtractor creates a FrameExtractor using the ffmpeg path from cfg.
func NewFrameExtractor(cfg *config.Config, runner execx.Runner) *FrameExtractor {
	return &FrameExtractor{runner: runner, ffmpegPath: cfg.FfmpegPath}
}

// ExtractFrames samples videoPath into outDir at one frame every
// intervalSeconds. Frames are named frame_0001.jpg, frame_0002.jpg, … so
// lexicographic and capture order coincide; the returned paths are sorted.
//
// Unlike the tool's exit code, the returned frame set is verified: a run that
// produces zero frames is a FrameExtractionError.
func (x *FrameExtractor) ExtractFrames(ctx context.Context, videoPath, outDir string, intervalSeconds int) ([]string, error) {
	if intervalSeconds < MinIntervalSeconds {
		intervalSeconds = MinIntervalSeconds
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create frames directory: %w", err)
	}

	pattern := filepath.Join(outDir, "frame_%04d.jpg")
	args := []string{
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", intervalSeconds),
		pattern,
	}

	log.Info().
		Str("video", filepath.Base(videoPath)).
		Int("interval_s", intervalSeconds).
		Msg("Extracting frames")

	output, err := x.runner.Run(ctx, x.ffmpegPath, args...)
	if err != nil {
		return nil, &FrameExtractionError{Output: string(output), Err: err}
	}

	frames, err := collectFramePaths(outDir)
	if err != nil {
		return nil, fmt.Errorf("collect frame paths: %w", err)
	}
	if len(frames) == 0 {
		return nil, &FrameExtractionError{Output: "ffmpeg exited cleanly but produced no frames"}
	}

	log.Info().Int("frames", len(frames)).Str("dir", outDir).Msg("Frame extraction complete")
	return frames, nil
}

// collectFramePaths returns sorted paths to all frame files in a directory.
func collectFramePaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "frame_") && strings.HasSuffix(name, ".jpg") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}

	// Sort to ensure correct frame ordering
	sort.Strings(paths)

	return paths, nil
}
