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
	"github.com/melodyhei/handwriten2md/internal/convert"
	"github.com/melodyhei/handwriten2md/internal/document"
	"github.com/melodyhei/handwriten2md/internal/export"
	"github.com/melodyhei/handwriten2md/internal/llm"
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
		in     = flag.String("in", "", "directory holding HEIC originals (default $NOTES_INPUT_DIR)")
		images = flag.String("images", "", "directory for converted note images (default $NOTES_IMAGE_DIR)")
		outDir = flag.String("outdir", "", "output directory for documents and ledgers (default $NOTES_OUTPUT_DIR)")
		report = flag.String("report", "", "write an XLSX processing report to this path (optional)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *in != "" {
		cfg.Dirs.InputDir = *in
	}
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

	// The pipeline expects its directory layout to exist up front.
	for _, dir := range []string{cfg.Dirs.InputDir, cfg.Dirs.ImageDir, cfg.Dirs.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			printError("Error: create dir %s: %v\n", dir, err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recStore, orgStore, cleanup, err := pipeline.OpenStores(cfg)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	converter := convert.NewConverter(convert.ExecRunner{}, cfg.OCR.HeicConverter, logger)

	ocrClient := ocr.NewClient(ocr.Config{
		APIKey:    cfg.OCR.APIKey,
		SecretKey: cfg.OCR.SecretKey,
		BaseURL:   cfg.OCR.BaseURL,
		Timeout:   cfg.OCR.Timeout,
	}, logger)

	llmClient := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	if cfg.LLM.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; consolidation will record an inline failure")
	}

	ocrResultsPath := filepath.Join(cfg.Dirs.OutputDir, constants.OCRResultsFile)
	recognize := pipeline.NewRecognizeStage(logger, ocrClient, recStore,
		document.NewAppender(ocrResultsPath, constants.OCRResultsTitle),
		cfg.Dirs.ImageDir, cfg.OCR.MaxImageBytes)
	organize := pipeline.NewOrganizeStage(logger, llmClient, orgStore,
		document.NewAppender(filepath.Join(cfg.Dirs.OutputDir, constants.OrganizedTextFile), constants.OrganizedTextTitle),
		ocrResultsPath)

	processor := pipeline.NewProcessor(logger, converter, recognize, organize,
		cfg.Dirs.InputDir, cfg.Dirs.ImageDir)

	if err := processor.ProcessAll(ctx); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	if *report != "" {
		recLedger, err := recStore.Load()
		if err != nil {
			printError("Error: load recognize ledger: %v\n", err)
			os.Exit(1)
		}
		orgLedger, err := orgStore.Load()
		if err != nil {
			printError("Error: load organize ledger: %v\n", err)
			os.Exit(1)
		}
		sections, err := document.ParseFile(ocrResultsPath)
		if err != nil {
			printError("Error: parse OCR results: %v\n", err)
			os.Exit(1)
		}

		data, err := export.NewService(logger).BuildReport(recLedger, orgLedger, sections)
		if err != nil {
			printError("Error: build report: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*report, data, 0o644); err != nil {
			printError("Error: write report: %v\n", err)
			os.Exit(1)
		}
		logger.Info("report written", "path", *report)
	}

	logger.Info("batch processing complete",
		"ocr_results", ocrResultsPath,
		"organized_text", filepath.Join(cfg.Dirs.OutputDir, constants.OrganizedTextFile),
	)
}
