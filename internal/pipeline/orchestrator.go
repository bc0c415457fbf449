package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"loomproc/internal/config"
	"loomproc/internal/extract"
	"loomproc/internal/source"
)

// DefaultTitle names artifacts when the request carries no title.
const DefaultTitle = "Standard Operating Procedure"

// Request is one inbound processing job.
type Request struct {
	// Reference is the Loom share or embed URL. Required.
	Reference string

	// Title prefixes every uploaded artifact name. Defaults to DefaultTitle.
	Title string

	// IntervalSeconds is the frame sampling interval. Defaults to 10,
	// clamped to a minimum of 1.
	IntervalSeconds int
}

// Orchestrator runs the acquisition-extraction-upload pipeline. Stages run
// strictly in order; only uploads fan out, bounded by uploadWorkers.
// Concurrent Run calls are independent: each owns a private working
// directory and shares no mutable state with its siblings.
type Orchestrator struct {
	resolve       func(string) (string, error)
	fetcher       Fetcher
	frames        FrameExtractor
	audio         AudioExtractor
	prober        Prober
	uploader      Uploader
	tempDir       string
	uploadWorkers int
}

// New wires an Orchestrator from its stages. prober may be nil; media
// metadata is then simply absent from reports.
func New(cfg *config.Config, fetcher Fetcher, frames FrameExtractor, audio AudioExtractor, prober Prober, uploader Uploader) *Orchestrator {
	workers := cfg.UploadWorkers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		resolve:       source.Resolve,
		fetcher:       fetcher,
		frames:        frames,
		audio:         audio,
		prober:        prober,
		uploader:      uploader,
		tempDir:       cfg.TempDir,
		uploadWorkers: workers,
	}
}

// Run executes the full pipeline for one request. A stage failure aborts the
// run with a *StageError; individual upload failures do not abort it and are
// collected in the report while the remaining uploads proceed. The run's
// working directory is reclaimed on every exit path.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	if req.Title == "" {
		req.Title = DefaultTitle
	}
	if req.IntervalSeconds <= 0 {
		req.IntervalSeconds = extract.DefaultIntervalSeconds
	}

	jobID := uuid.New().String()
	logger := log.With().Str("job", jobID).Logger()
	logger.Info().
		Str("reference", req.Reference).
		Str("title", req.Title).
		Int("interval_s", req.IntervalSeconds).
		Msg("Pipeline run starting")

	// Resolving. Fails before any resource is allocated.
	videoID, err := o.resolve(req.Reference)
	if err != nil {
		logger.Error().Err(err).Msg("Reference resolution failed")
		return nil, &StageError{Stage: StageResolving, Err: err}
	}

	workDir, err := os.MkdirTemp(o.tempDir, "loom_job_*")
	if err != nil {
		return nil, &StageError{Stage: StageFetching, Err: fmt.Errorf("create working directory: %w", err)}
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn().Err(err).Str("dir", workDir).Msg("Failed to reclaim working directory")
		}
	}()

	// Fetching.
	videoPath, err := o.fetcher.Fetch(ctx, req.Reference, workDir)
	if err != nil {
		logger.Error().Err(err).Msg("Video download failed")
		return nil, &StageError{Stage: StageFetching, Err: err}
	}

	var durationSeconds float64
	if o.prober != nil {
		if info, err := o.prober.Probe(ctx, videoPath); err != nil {
			logger.Warn().Err(err).Msg("Media probe failed")
		} else {
			durationSeconds = info.Duration.Seconds()
			logger.Info().
				Float64("duration_s", durationSeconds).
				Int("width", info.Width).
				Int("height", info.Height).
				Str("codec", info.Codec).
				Msg("Video probed")
		}
	}

	// Extracting frames.
	framePaths, err := o.frames.ExtractFrames(ctx, videoPath, filepath.Join(workDir, "frames"), req.IntervalSeconds)
	if err != nil {
		logger.Error().Err(err).Msg("Frame extraction failed")
		return nil, &StageError{Stage: StageExtractingFrames, Err: err}
	}

	// Extracting audio.
	audioPath, err := o.audio.ExtractAudio(ctx, videoPath, filepath.Join(workDir, "audio"))
	if err != nil {
		logger.Error().Err(err).Msg("Audio extraction failed")
		return nil, &StageError{Stage: StageExtractingAudio, Err: err}
	}

	// Uploading. Always runs to completion; per-artifact failures are
	// recorded, never fatal.
	jobs := make([]uploadJob, 0, len(framePaths)+2)
	jobs = append(jobs, uploadJob{kind: KindVideo, path: videoPath, name: req.Title + "_video.mp4"})
	for _, fp := range framePaths {
		jobs = append(jobs, uploadJob{kind: KindFrame, path: fp, name: req.Title + "_" + filepath.Base(fp)})
	}
	jobs = append(jobs, uploadJob{kind: KindAudio, path: audioPath, name: req.Title + "_audio.wav"})

	artifacts, failures := o.uploadAll(ctx, logger, jobs)

	report := &Report{
		Success:         true,
		VideoID:         videoID,
		Title:           req.Title,
		DurationSeconds: durationSeconds,
		Artifacts:       artifacts,
		Failures:        failures,
		Expected:        Counts{Video: 1, Frames: len(framePaths), Audio: 1},
		Uploaded:        countByKind(artifacts),
	}

	logger.Info().
		Int("uploaded", report.Uploaded.Total()).
		Int("expected", report.Expected.Total()).
		Bool("complete", report.Complete()).
		Msg("Pipeline run finished")

	return report, nil
}

type uploadJob struct {
	kind Kind
	path string
	name string
}

// uploadAll runs the upload jobs with bounded parallelism. Results keep job
// order, so frames stay in capture order regardless of completion order.
func (o *Orchestrator) uploadAll(ctx context.Context, logger zerolog.Logger, jobs []uploadJob) ([]Artifact, []UploadFailure) {
	results := make([]*Artifact, len(jobs))
	errs := make([]*UploadFailure, len(jobs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.uploadWorkers)

	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, jb uploadJob) {
			defer wg.Done()
			sem <- struct{}{}        // Acquire semaphore
			defer func() { <-sem }() // Release semaphore

			ref, err := o.uploader.Upload(ctx, jb.path, jb.name)
			if err != nil {
				logger.Warn().Err(err).Str("name", jb.name).Msg("Artifact upload failed")
				errs[idx] = &UploadFailure{Kind: jb.kind, Name: jb.name, Error: err.Error()}
				return
			}
			results[idx] = &Artifact{Kind: jb.kind, ID: ref.ID, Name: ref.Name, Link: ref.Link}
		}(i, job)
	}
	wg.Wait()

	artifacts := make([]Artifact, 0, len(jobs))
	var failures []UploadFailure
	for i := range jobs {
		if results[i] != nil {
			artifacts = append(artifacts, *results[i])
		}
		if errs[i] != nil {
			failures = append(failures, *errs[i])
		}
	}
	return artifacts, failures
}

func countByKind(artifacts []Artifact) Counts {
	var c Counts
	for _, a := range artifacts {
		switch a.Kind {
		case KindVideo:
			c.Video++
		case KindFrame:
			c.Frames++
		case KindAudio:
			c.Audio++
		}
	}
	return c
}
