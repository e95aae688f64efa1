package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/melodyhei/handwriten2md/constants"
	"github.com/melodyhei/handwriten2md/internal/common"
	"github.com/melodyhei/handwriten2md/internal/document"
	"github.com/melodyhei/handwriten2md/internal/ingest"
	"github.com/melodyhei/handwriten2md/internal/ocr"
	"github.com/melodyhei/handwriten2md/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		images = flag.String("images", "", "directory holding note images (default $NOTES_IMAGE_DIR)")
		outDir = flag.String("outdir", "", "output directory for results and ledgers (default $NOTES_OUTPUT_DIR)")
		watch  = flag.Bool("watch", false, "keep running and re-trigger on new images")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *images != "" {
		cfg.Dirs.ImageDir = *images
	}
	if *outDir != "" {
		cfg.Dirs.OutputDir = *outDir
	}
	if err := cfg.ValidateRecognize(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateLedger(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.Dirs.OutputDir, 0o755); err != nil {
		printError("Error: create output dir: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recStore, _, cleanup, err := pipeline.OpenStores(cfg)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	client := ocr.NewClient(ocr.Config{
		APIKey:    cfg.OCR.APIKey,
		SecretKey: cfg.OCR.SecretKey,
		BaseURL:   cfg.OCR.BaseURL,
		Timeout:   cfg.OCR.Timeout,
	}, logger)

	out := document.NewAppender(
		filepath.Join(cfg.Dirs.OutputDir, constants.OCRResultsFile),
		constants.OCRResultsTitle,
	)
	stage := pipeline.NewRecognizeStage(logger, client, recStore, out, cfg.Dirs.ImageDir, cfg.OCR.MaxImageBytes)

	run := func() {
		res, err := stage.Run(ctx)
		if err != nil {
			logger.Error("recognition run failed", "error", err)
			if !*watch {
				os.Exit(1)
			}
			return
		}
		if res.NothingNew() {
			logger.Info("nothing new to process")
		}
	}

	run()
	if !*watch {
		return
	}

	sigCh, errCh, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Dir:      cfg.Dirs.ImageDir,
		Debounce: 2 * time.Second,
	}, logger)
	if err != nil {
		printError("Error: start watcher: %v\n", err)
		os.Exit(1)
	}
	logger.Info("watching for new images", "dir", cfg.Dirs.ImageDir)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}
			run()
		case werr := <-errCh:
			logger.Error("watcher error", "error", werr)
		}
	}
}
