package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"loomproc/internal/config"
	"loomproc/internal/drive"
	"loomproc/internal/execx"
	"loomproc/internal/pipeline"
	"loomproc/internal/source"
)

// pipelineRunner lets handler tests substitute a fake pipeline.
type pipelineRunner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
}

type server struct {
	cfg      *config.Config
	runner   execx.Runner
	uploader *drive.Uploader
	pipeline pipelineRunner
}

// processRequest is the inbound job payload. Interval accepts both a JSON
// number and a numeric string.
type processRequest struct {
	URL      string      `json:"url"`
	Title    string      `json:"title"`
	Interval json.Number `json:"interval"`
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httpError(w, http.StatusNotFound, "not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Loom Processor API",
		"version": version,
		"endpoints": []string{
			"/process - Process a Loom video (POST)",
			"/check-tools - Check if required tools are available",
			"/test-drive - Test Google Drive integration",
		},
	})
}

func (s *server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.pipeline == nil {
		httpError(w, http.StatusServiceUnavailable, "Google Drive is not configured")
		return
	}

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.URL == "" {
		httpError(w, http.StatusBadRequest, "missing Loom URL")
		return
	}

	interval := 0
	if req.Interval != "" {
		n, err := req.Interval.Int64()
		if err != nil || n <= 0 {
			httpError(w, http.StatusBadRequest, fmt.Sprintf("interval must be a positive integer, got %q", req.Interval))
			return
		}
		interval = int(n)
	}

	report, err := s.pipeline.Run(r.Context(), pipeline.Request{
		Reference:       req.URL,
		Title:           req.Title,
		IntervalSeconds: interval,
	})
	if err != nil {
		status := http.StatusInternalServerError
		var invalid *source.InvalidReferenceError
		if errors.As(err, &invalid) {
			status = http.StatusBadRequest
		}

		stage := ""
		var stageErr *pipeline.StageError
		if errors.As(err, &stageErr) {
			stage = string(stageErr.Stage)
		}
		respondJSON(w, status, map[string]string{
			"error": err.Error(),
			"stage": stage,
		})
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// handleCheckTools reports availability of the external tools and the Drive
// placement, mirroring what the pipeline will need at run time.
func (s *server) handleCheckTools(w http.ResponseWriter, r *http.Request) {
	results := map[string]interface{}{
		"ffmpeg":  s.toolStatus(s.cfg.FfmpegPath),
		"ffprobe": s.toolStatus(s.cfg.FfprobePath),
		"yt-dlp":  s.toolStatus(s.cfg.YtDlpPath),
		"curl":    s.toolStatus(s.cfg.CurlPath),
	}

	driveStatus := map[string]interface{}{
		"available":        s.uploader != nil,
		"credentials_path": orNotSet(s.cfg.CredentialsPath),
		"folder_id":        orNotSet(s.cfg.DriveFolderID),
		"shared_drive_id":  orNotSet(s.cfg.DriveSharedID),
	}
	if s.uploader != nil {
		driveStatus["placement_configured"] = s.uploader.Configured()
	}
	results["google_drive"] = driveStatus

	respondJSON(w, http.StatusOK, results)
}

func (s *server) toolStatus(name string) map[string]interface{} {
	path, err := s.runner.LookPath(name)
	if err != nil {
		return map[string]interface{}{"available": false, "error": err.Error()}
	}
	return map[string]interface{}{"available": true, "path": path}
}

// handleTestDrive uploads a small generated file and returns its reference,
// proving credentials, placement, and permissions end to end.
func (s *server) handleTestDrive(w http.ResponseWriter, r *http.Request) {
	if s.uploader == nil {
		httpError(w, http.StatusServiceUnavailable, "Google Drive is not configured")
		return
	}

	testPath := filepath.Join(os.TempDir(), "loomproc_drive_test.txt")
	content := fmt.Sprintf("Drive connectivity test at %s\n", time.Now().Format(time.RFC3339))
	if err := os.WriteFile(testPath, []byte(content), 0o644); err != nil {
		httpError(w, http.StatusInternalServerError, "create test file: "+err.Error())
		return
	}
	defer os.Remove(testPath)

	ref, err := s.uploader.Upload(r.Context(), testPath, "loomproc_test_file.txt")
	if err != nil {
		log.Warn().Err(err).Msg("Drive test upload failed")
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	resp := map[string]interface{}{
		"success": true,
		"file":    ref,
		"message": "File uploaded successfully to Google Drive",
	}

	// Round-trip the metadata and count visible folders so the endpoint
	// exercises the same API surface the pipeline depends on.
	if meta, err := s.uploader.GetFile(r.Context(), ref.ID); err != nil {
		log.Warn().Err(err).Msg("Drive metadata readback failed")
		resp["metadata_verified"] = false
	} else {
		resp["metadata_verified"] = true
		resp["size_bytes"] = meta.Size
	}
	if folders, err := s.uploader.ListFolders(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Drive folder listing failed")
	} else {
		resp["visible_folders"] = len(folders)
	}

	respondJSON(w, http.StatusOK, resp)
}

func orNotSet(v string) string {
	if v == "" {
		return "not set"
	}
	return v
}
