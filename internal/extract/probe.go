package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"loomproc/internal/config"
	"loomproc/internal/execx"
)

// MediaInfo is the subset of ffprobe output the pipeline cares about.
type MediaInfo struct {
	Duration time.Duration
	Width    int
	Height   int
	Codec    string
}

// ffprobeOutput represents the JSON structure from ffprobe.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Duration  string `json:"duration"`
}

// Prober reads media properties with ffprobe.
type Prober struct {
	runner      execx.Runner
	ffprobePath string
}

// NewProber creates a Prober using the ffprobe path from cfg.
func NewProber(cfg *config.Config, runner execx.Runner) *Prober {
	return &Prober{runner: runner, ffprobePath: cfg.FfprobePath}
}

// Probe extracts duration and video stream properties from a media file.
// ffprobe runs with -v quiet so the combined output is pure JSON.
func (p *Prober) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	output, err := p.runner.Run(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &MediaInfo{}
	if probe.Format.Duration != "" {
		if dur, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64); err == nil {
			info.Duration = time.Duration(dur * float64(time.Second))
		}
	}
	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}
		if info.Width == 0 {
			info.Width = stream.Width
			info.Height = stream.Height
		}
		if info.Codec == "" {
			info.Codec = stream.CodecName
		}
		// Some containers only carry duration at the stream level.
		if info.Duration == 0 && stream.Duration != "" {
			if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil {
				info.Duration = time.Duration(dur * float64(time.Second))
			}
		}
	}

	log.Debug().
		Dur("duration", info.Duration).
		Int("width", info.Width).
		Int("height", info.Height).
		Str("codec", info.Codec).
		Msg("Probed media file")

	return info, nil
}
