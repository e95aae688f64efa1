// Package convert prepares note images for recognition: HEIC originals
// are re-encoded to PNG through an external converter binary, and
// oversized images are re-encoded to fit the OCR service's byte
// ceiling.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/melodyhei/handwriten2md/constants"
)

// Converter turns HEIC/HEIF files into PNG via an external tool.
type Converter struct {
	runner Runner
	tool   string // one of: heif-convert | magick | sips
	logger *slog.Logger
}

func NewConverter(r Runner, tool string, logger *slog.Logger) *Converter {
	if r == nil {
		r = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{runner: r, tool: tool, logger: logger}
}

// ConvertFile converts one HEIC file to PNG at out.
func (c *Converter) ConvertFile(ctx context.Context, in, out string) error {
	switch c.tool {
	case "heif-convert":
		if _, errb, err := c.runner.Run(ctx, "heif-convert", in, out); err != nil {
			return fmt.Errorf("heif-convert failed: %s: %w", truncate(string(errb), 512), err)
		}
	case "magick":
		if _, errb, err := c.runner.Run(ctx, "magick", in, out); err != nil {
			return fmt.Errorf("magick convert failed: %s: %w", truncate(string(errb), 512), err)
		}
	case "sips":
		if _, errb, err := c.runner.Run(ctx, "sips", "-s", "format", "png", in, "--out", out); err != nil {
			return fmt.Errorf("sips convert failed: %s: %w", truncate(string(errb), 512), err)
		}
	default:
		return fmt.Errorf("HEIC not supported: set HEIC_CONVERTER to one of: heif-convert | magick | sips")
	}

	if _, err := os.Stat(out); err != nil {
		return fmt.Errorf("HEIC conversion produced no output: %v", err)
	}
	return nil
}

// DirStats summarizes one directory conversion pass.
type DirStats struct {
	Found     int
	Converted int
	Failed    int
}

// ConvertDir converts every HEIC file in inDir (non-recursive, sorted
// by name) into outDir with a .png suffix. A failing file is logged
// and skipped; the pass continues.
func (c *Converter) ConvertDir(ctx context.Context, inDir, outDir string) (DirStats, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return DirStats{}, fmt.Errorf("read input dir %s: %w", inDir, err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return DirStats{}, fmt.Errorf("create output dir %s: %w", outDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if constants.IsHEICExt(filepath.Ext(e.Name())) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	stats := DirStats{Found: len(names)}
	for _, name := range names {
		in := filepath.Join(inDir, name)
		out := filepath.Join(outDir, strings.TrimSuffix(name, filepath.Ext(name))+".png")
		if err := c.ConvertFile(ctx, in, out); err != nil {
			c.logger.Error("convert.file.failed", "file", name, "error", err)
			stats.Failed++
			continue
		}
		c.logger.Info("convert.file.ok", "file", name, "out", out)
		stats.Converted++
	}
	return stats, nil
}
