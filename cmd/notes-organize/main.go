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

	"github.com/melodyhei/handwriten2md/constants"
	"github.com/melodyhei/handwriten2md/internal/common"
	"github.com/melodyhei/handwriten2md/internal/document"
	"github.com/melodyhei/handwriten2md/internal/llm"
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
		outDir = flag.String("outdir", "", "output directory holding the OCR results and ledgers (default $NOTES_OUTPUT_DIR)")
		reset  = flag.Bool("reset", false, "clear the organize ledger and rebuild the organized document from scratch")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *outDir != "" {
		cfg.Dirs.OutputDir = *outDir
	}
	if err := cfg.ValidateLedger(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, orgStore, cleanup, err := pipeline.OpenStores(cfg)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	client := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	out := document.NewAppender(
		filepath.Join(cfg.Dirs.OutputDir, constants.OrganizedTextFile),
		constants.OrganizedTextTitle,
	)
	stage := pipeline.NewOrganizeStage(logger, client, orgStore, out,
		filepath.Join(cfg.Dirs.OutputDir, constants.OCRResultsFile))

	if *reset {
		logger.Info("resetting organize stage")
		if err := stage.Reset(); err != nil {
			printError("Error: reset: %v\n", err)
			os.Exit(1)
		}
	}

	res, err := stage.Run(ctx)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if res.Candidates == 0 {
		logger.Info("no OCR sections found, nothing to organize")
		return
	}
	if res.NothingNew() {
		logger.Info("nothing new to organize")
		return
	}
	logger.Info("organize complete",
		"processed", res.Processed,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)
}
