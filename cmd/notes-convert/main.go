package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/melodyhei/handwriten2md/internal/common"
	"github.com/melodyhei/handwriten2md/internal/convert"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		in   = flag.String("in", "", "directory holding HEIC originals (default $NOTES_INPUT_DIR)")
		out  = flag.String("out", "", "directory for converted PNG images (default $NOTES_IMAGE_DIR)")
		tool = flag.String("tool", "", "converter binary: heif-convert | magick | sips (default $HEIC_CONVERTER)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if *in == "" {
		*in = cfg.Dirs.InputDir
	}
	if *out == "" {
		*out = cfg.Dirs.ImageDir
	}
	if *tool == "" {
		*tool = cfg.OCR.HeicConverter
	}

	converter := convert.NewConverter(convert.ExecRunner{}, *tool, logger)
	stats, err := converter.ConvertDir(context.Background(), *in, *out)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if stats.Found == 0 {
		logger.Info("no HEIC files found, nothing to convert", "dir", *in)
		return
	}
	logger.Info("conversion complete",
		"found", stats.Found,
		"converted", stats.Converted,
		"failed", stats.Failed,
	)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
