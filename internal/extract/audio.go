package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"loomproc/internal/config"
	"loomproc/internal/execx"
)

// AudioFileName is the fixed name of the extracted track inside its
// directory; a run produces at most one audio artifact.
const AudioFileName = "audio.wav"

// AudioExtractionError reports an ffmpeg failure during audio extraction.
type AudioExtractionError struct {
	Output string
	Err    error
}

func (e *AudioExtractionError) Error() string {
	return fmt.Sprintf("audio extraction failed: %v: %s", e.Err, e.Output)
}

func (e *AudioExtractionError) Unwrap() error { return e.Err }

// AudioExtractor produces a mono 16 kHz PCM WAV from a video, the format
// speech-transcription services expect.
type AudioExtractor struct {
	runner     execx.Runner
	ffmpegPath string
}

// NewAudioExtractor creates an AudioExtractor using the ffmpeg path from cfg.
func NewAudioExtractor(cfg *config.Config, runner execx.Runner) *AudioExtractor {
	return &AudioExtractor{runner: runner, ffmpegPath: cfg.FfmpegPath}
}

// ExtractAudio writes outDir/audio.wav from videoPath and returns its path.
func (x *AudioExtractor) ExtractAudio(ctx context.Context, videoPath, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create audio directory: %w", err)
	}

	audioPath := filepath.Join(outDir, AudioFileName)
	args := []string{
		"-i", videoPath,
		"-vn",                   // Disable video
		"-acodec", "pcm_s16le",  // Uncompressed PCM
		"-ar", "16000",          // Sample rate
		"-ac", "1",              // Mono channel
		audioPath,
	}

	log.Info().Str("video", filepath.Base(videoPath)).Msg("Extracting audio")

	output, err := x.runner.Run(ctx, x.ffmpegPath, args...)
	if err != nil {
		return "", &AudioExtractionError{Output: string(output), Err: err}
	}

	log.Info().Str("path", audioPath).Msg("Audio extraction complete")
	return audioPath, nil
}
