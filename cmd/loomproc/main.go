package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

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

// CLI flags
var (
	urlFlag      string
	titleFlag    string
	intervalFlag int
)

var rootCmd = &cobra.Command{
	Use:   "loomproc",
	Short: "Process Loom recordings into frames, audio, and Drive uploads",
	Long: `loomproc downloads a Loom screen recording, extracts keyframes at a
fixed interval plus a 16 kHz mono audio track, and uploads the video, frames,
and audio to Google Drive. The JSON report is printed on stdout.

Examples:
  loomproc process --url https://www.loom.com/share/abc123XYZ
  loomproc process --url https://www.loom.com/share/abc123XYZ --title Demo --interval 15
  loomproc check`,
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the full pipeline for one Loom URL",
	Run:   runProcess,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the required external tools are installed",
	Run:   runCheck,
}

func init() {
	processCmd.Flags().StringVar(&urlFlag, "url", "", "Loom share or embed URL (required)")
	processCmd.Flags().StringVar(&titleFlag, "title", "", "Artifact name prefix")
	processCmd.Flags().IntVar(&intervalFlag, "interval", 0, "Frame sampling interval in seconds")
	processCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runProcess(cmd *cobra.Command, args []string) {
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()
	runner := execx.CmdRunner{}

	svc, err := drive.NewService(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Google Drive unavailable")
	}

	orch := pipeline.New(
		cfg,
		fetch.New(cfg, runner),
		extract.NewFrameExtractor(cfg, runner),
		extract.NewAudioExtractor(cfg, runner),
		extract.NewProber(cfg, runner),
		drive.NewUploader(svc, cfg),
	)

	report, err := orch.Run(ctx, pipeline.Request{
		Reference:       urlFlag,
		Title:           titleFlag,
		IntervalSeconds: intervalFlag,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Pipeline run failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode report")
	}
	if !report.Complete() {
		os.Exit(2) // Completed, but some artifacts were not uploaded
	}
}

func runCheck(cmd *cobra.Command, args []string) {
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	runner := execx.CmdRunner{}
	ok := true
	for _, tool := range []string{cfg.FfmpegPath, cfg.FfprobePath, cfg.YtDlpPath, cfg.CurlPath} {
		path, err := runner.LookPath(tool)
		if err != nil {
			fmt.Printf("%-10s MISSING\n", tool)
			ok = false
			continue
		}
		fmt.Printf("%-10s %s\n", tool, path)
	}

	if cfg.CredentialsPath == "" {
		fmt.Println("drive      no credentials configured")
		ok = false
	} else if cfg.DriveFolderID == "" && cfg.DriveSharedID == "" {
		fmt.Println("drive      no folder or shared drive configured")
		ok = false
	} else {
		fmt.Println("drive      configured")
	}

	if !ok {
		os.Exit(1)
	}
}
