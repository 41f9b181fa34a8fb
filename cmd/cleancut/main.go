package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cleancut/internal/config"
	"cleancut/internal/logger"
	"cleancut/internal/services"
	"cleancut/internal/session"
	"cleancut/internal/video"
	"cleancut/internal/vision"
)

func main() {
	input := flag.String("input", "", "Source video file")
	ref := flag.String("ref", "", "Reference screenshot showing the menu overlay")
	output := flag.String("output", "clean.mp4", "Output video file")
	dryRun := flag.Bool("dry-run", false, "Print ranges without exporting")
	flag.Parse()

	if *input == "" || *ref == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	applog := logger.NewLogger(cfg.LogDirectory)
	opts := services.VisionOptions(cfg)

	profile, err := vision.CalibrateFile(*ref, opts)
	if err != nil {
		fatal("Calibration failed: %v", err)
	}
	applog.Info("Calibrated menu template at (%.3f, %.3f) size %.3fx%.3f",
		profile.Spatial.X, profile.Spatial.Y, profile.Spatial.W, profile.Spatial.H)

	source, err := video.OpenSource(*input, cfg.SampleFPS)
	if err != nil {
		fatal("Failed to open video: %v", err)
	}
	defer source.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prober := video.NewProber(cfg.FFprobePath)
	if duration, err := prober.Duration(ctx, *input); err == nil {
		source.SetDuration(duration)
	}

	scanner := vision.NewScanner(profile, opts, applog)
	sess := session.New(scanner, session.Options{
		ClusterTolerance: cfg.ClusterTolerance,
		MinSegment:       cfg.MinSegment,
		ProgressInterval: cfg.ProgressInterval,
		Progress: func(scanned int, timestamp, duration float64) {
			if duration > 0 {
				fmt.Printf("\rScanning... %.1f%%", timestamp/duration*100)
			}
		},
	}, applog)

	result, err := sess.Run(ctx, source)
	fmt.Println()
	if err != nil {
		fatal("Scan failed: %v", err)
	}

	fmt.Printf("Scanned %d frames, %d hits\n", result.FramesScanned, result.FramesHit)
	fmt.Printf("Menu visible in %d range(s):\n", len(result.Detections))
	for _, d := range result.Detections {
		fmt.Printf("  %8.3f - %8.3f\n", d.Start, d.End)
	}
	fmt.Printf("Keeping %d range(s):\n", len(result.Keeps))
	for _, k := range result.Keeps {
		fmt.Printf("  %8.3f - %8.3f\n", k.Start, k.End)
	}

	if *dryRun {
		return
	}
	if len(result.Keeps) == 0 {
		fatal("No clean footage to export")
	}

	transcoder := video.NewTranscoder(cfg.FFmpegPath, applog)
	if err := transcoder.Export(ctx, *input, result.Keeps, *output); err != nil {
		fatal("Export failed: %v", err)
	}
	fmt.Printf("Wrote %s\n", *output)
}

func fatal(format string, v ...interface{}) {
	log.Fatalf(format, v...)
}
