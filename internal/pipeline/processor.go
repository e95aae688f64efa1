package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/melodyhei/handwriten2md/constants"
	"github.com/melodyhei/handwriten2md/internal/common"
	"github.com/melodyhei/handwriten2md/internal/convert"
	"github.com/melodyhei/handwriten2md/internal/ledger"
)

// Processor coordinates the full pipeline: convert, recognize, organize.
type Processor struct {
	Logger    *slog.Logger
	Converter *convert.Converter
	Recognize *RecognizeStage
	Organize  *OrganizeStage
	InputDir  string
	ImageDir  string
}

func NewProcessor(logger *slog.Logger, conv *convert.Converter, rec *RecognizeStage, org *OrganizeStage, inputDir, imageDir string) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:    logger,
		Converter: conv,
		Recognize: rec,
		Organize:  org,
		InputDir:  inputDir,
		ImageDir:  imageDir,
	}
}

// ProcessAll runs the three stages in order. Conversion failures for
// individual files do not stop recognition; stage-level errors do.
func (p *Processor) ProcessAll(ctx context.Context) error {
	stats, err := p.Converter.ConvertDir(ctx, p.InputDir, p.ImageDir)
	if err != nil {
		return fmt.Errorf("convert stage: %w", err)
	}
	p.Logger.Info("processor.convert.ok",
		"found", stats.Found, "converted", stats.Converted, "failed", stats.Failed)

	recRes, err := p.Recognize.Run(ctx)
	if err != nil {
		return fmt.Errorf("recognize stage: %w", err)
	}
	p.Logger.Info("processor.recognize.ok",
		"processed", recRes.Processed, "skipped", recRes.Skipped, "failed", recRes.Failed)

	orgRes, err := p.Organize.Run(ctx)
	if err != nil {
		return fmt.Errorf("organize stage: %w", err)
	}
	p.Logger.Info("processor.organize.ok",
		"processed", orgRes.Processed, "skipped", orgRes.Skipped, "failed", orgRes.Failed)
	return nil
}

// OpenStores returns the ledger stores for both stages according to
// the configured backend, plus a cleanup for the sqlite case.
func OpenStores(cfg *common.Config) (recognize, organize ledger.Store, cleanup func(), err error) {
	switch cfg.Ledger.Backend {
	case "sqlite":
		db, err := ledger.OpenSQLite(filepath.Join(cfg.Dirs.OutputDir, constants.LedgerDBFile))
		if err != nil {
			return nil, nil, nil, err
		}
		return ledger.NewSQLiteStore(db, string(constants.StageRecognize)),
			ledger.NewSQLiteStore(db, string(constants.StageOrganize)),
			func() { _ = db.Close() },
			nil
	case "json", "":
		return ledger.NewFileStore(filepath.Join(cfg.Dirs.OutputDir, constants.RecognizeLedgerFile)),
			ledger.NewFileStore(filepath.Join(cfg.Dirs.OutputDir, constants.OrganizeLedgerFile)),
			func() {},
			nil
	}
	return nil, nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
}
