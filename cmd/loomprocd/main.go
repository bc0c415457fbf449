package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"loomproc/internal/config"
	"loomproc/internal/drive"
	"loomproc/internal/execx"
	"loomproc/internal/extract"
	"loomproc/internal/fetch"
	"loomproc/internal/logging"
	"loomproc/internal/pipeline"
)

const version = "1.0.0"

// CLI flags
var portFlag int

var rootCmd = &cobra.Command{
	Use:   "loomprocd",
	Short: "HTTP daemon for the Loom processing pipeline",
	Long: `loomprocd exposes the Loom acquisition-extraction-upload pipeline over
HTTP. POST a share or embed URL to /process and the daemon downloads the
recording, extracts keyframes and a 16 kHz mono audio track, and uploads
everything to the configured Google Drive destination.

Examples:
  loomprocd
  loomprocd --port 9090`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if portFlag > 0 {
		cfg.Port = portFlag
	}

	ctx := context.Background()
	runner := execx.CmdRunner{}

	// A missing Drive setup should not keep the daemon from starting;
	// /check-tools reports it and /process refuses until it is fixed.
	var uploader *drive.Uploader
	if svc, err := drive.NewService(ctx, cfg); err != nil {
		log.Warn().Err(err).Msg("Google Drive unavailable; uploads disabled")
	} else {
		uploader = drive.NewUploader(svc, cfg)
	}

	srv := &server{
		cfg:      cfg,
		runner:   runner,
		uploader: uploader,
	}
	if uploader != nil {
		srv.pipeline = pipeline.New(
			cfg,
			fetch.New(cfg, runner),
			extract.NewFrameExtractor(cfg, runner),
			extract.NewAudioExtractor(cfg, runner),
			extract.NewProber(cfg, runner),
			uploader,
		)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleIndex)
	mux.HandleFunc("/process", srv.handleProcess)
	mux.HandleFunc("/check-tools", srv.handleCheckTools)
	mux.HandleFunc("/test-drive", srv.handleTestDrive)

	handler := withLogging(mux)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // Pipeline runs block on external tools
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(ctx)
	}()

	log.Info().Int("port", cfg.Port).Str("version", version).Msg("Starting Loom processor")

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// --- Middleware ---

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if !strings.HasPrefix(r.URL.Path, "/favicon") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		}
	})
}
