package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/melodyhei/handwriten2md/constants"
	"github.com/melodyhei/handwriten2md/internal/convert"
	"github.com/melodyhei/handwriten2md/internal/document"
	"github.com/melodyhei/handwriten2md/internal/ingest"
	"github.com/melodyhei/handwriten2md/internal/ledger"
	"github.com/melodyhei/handwriten2md/internal/ocr"
)

// Recognizer is the slice of the OCR client the stage depends on.
type Recognizer interface {
	RecognizeBytes(ctx context.Context, img []byte) (string, error)
}

var _ Recognizer = (*ocr.Client)(nil)

// RecognizeStage runs handwriting recognition over every image in the
// image directory that is not yet in the stage ledger, appending one
// section per image to the OCR results document.
type RecognizeStage struct {
	Logger        *slog.Logger
	OCR           Recognizer
	Store         ledger.Store
	Out           *document.Appender
	ImageDir      string
	MaxImageBytes int64
}

func NewRecognizeStage(logger *slog.Logger, rec Recognizer, store ledger.Store, out *document.Appender, imageDir string, maxImageBytes int64) *RecognizeStage {
	if logger == nil {
		logger = slog.Default()
	}
	if maxImageBytes <= 0 {
		maxImageBytes = 4 << 20
	}
	return &RecognizeStage{
		Logger:        logger,
		OCR:           rec,
		Store:         store,
		Out:           out,
		ImageDir:      imageDir,
		MaxImageBytes: maxImageBytes,
	}
}

// Candidates enumerates the image files eligible for recognition.
func (s *RecognizeStage) Candidates() ([]WorkItem, error) {
	names, err := ingest.ListImages(s.ImageDir)
	if err != nil {
		return nil, err
	}
	items := make([]WorkItem, 0, len(names))
	for _, name := range names {
		items = append(items, WorkItem{ID: name, Payload: filepath.Join(s.ImageDir, name)})
	}
	return items, nil
}

// Process re-encodes one image under the service's byte ceiling,
// submits it for recognition, and returns the recognized text. Every
// failure collapses to an inline placeholder; the run continues.
func (s *RecognizeStage) Process(ctx context.Context, item WorkItem) (string, bool) {
	img, err := convert.EncodeUnderLimit(item.Payload, s.MaxImageBytes)
	if err != nil {
		return fmt.Sprintf("recognition failed: image compression: %v", err), false
	}
	text, err := s.OCR.RecognizeBytes(ctx, img)
	if err != nil {
		return fmt.Sprintf("recognition failed: %v", err), false
	}
	return text, true
}

// Run executes one incremental recognition pass.
func (s *RecognizeStage) Run(ctx context.Context) (Result, error) {
	candidates, err := s.Candidates()
	if err != nil {
		return Result{}, err
	}
	res, err := RunItems(ctx, s.Logger.With("stage", string(constants.StageRecognize)), candidates, s.Store, s, s.Out)
	if err != nil {
		return res, err
	}
	s.Logger.Info("recognize.done",
		"candidates", res.Candidates,
		"skipped", res.Skipped,
		"processed", res.Processed,
		"failed", res.Failed,
	)
	return res, nil
}
