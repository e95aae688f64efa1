package pipeline

import (
	"context"
	"log/slog"

	"github.com/melodyhei/handwriten2md/constants"
	"github.com/melodyhei/handwriten2md/internal/document"
	"github.com/melodyhei/handwriten2md/internal/ledger"
	"github.com/melodyhei/handwriten2md/internal/llm"
)

// Consolidator is the slice of the LLM client the stage depends on.
type Consolidator interface {
	Consolidate(ctx context.Context, prompt string) (string, error)
}

var _ Consolidator = (*llm.Client)(nil)

// OrganizeStage parses the OCR results document back into discrete
// text blocks, batches every block not yet in the stage ledger into a
// single consolidation call, and appends the result to the organized
// text document.
//
// The stage is incremental by default; the original clear-and-rebuild
// behavior is available only through the explicit Reset.
type OrganizeStage struct {
	Logger *slog.Logger
	LLM    Consolidator
	Store  ledger.Store
	Out    *document.Appender
	Source string // path of the OCR results document
}

func NewOrganizeStage(logger *slog.Logger, cons Consolidator, store ledger.Store, out *document.Appender, source string) *OrganizeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrganizeStage{Logger: logger, LLM: cons, Store: store, Out: out, Source: source}
}

// Candidates parses the source document into work items. A missing
// source document is fatal; a document with zero sections yields an
// empty slice ("nothing to do").
func (s *OrganizeStage) Candidates() ([]WorkItem, error) {
	sections, err := document.ParseFile(s.Source)
	if err != nil {
		return nil, err
	}
	items := make([]WorkItem, 0, len(sections))
	for _, sec := range sections {
		items = append(items, WorkItem{ID: sec.ID, Payload: sec.Body})
	}
	return items, nil
}

// ProcessBatch combines every item's payload into one prompt and asks
// the consolidation service for a single organized text. A missing
// credential or service error becomes a marked inline failure string;
// it never crashes the run.
func (s *OrganizeStage) ProcessBatch(ctx context.Context, items []WorkItem) (string, bool) {
	sections := make([]document.Section, 0, len(items))
	for _, it := range items {
		sections = append(sections, document.Section{ID: it.ID, Body: it.Payload})
	}
	text, err := s.LLM.Consolidate(ctx, llm.BuildPrompt(sections))
	if err != nil {
		return llm.FailurePrefix + err.Error(), false
	}
	return text, true
}

// Run executes one incremental consolidation pass.
func (s *OrganizeStage) Run(ctx context.Context) (Result, error) {
	candidates, err := s.Candidates()
	if err != nil {
		return Result{}, err
	}
	res, err := RunBatch(ctx, s.Logger.With("stage", string(constants.StageOrganize)), candidates, s.Store, s, s.Out)
	if err != nil {
		return res, err
	}
	s.Logger.Info("organize.done",
		"candidates", res.Candidates,
		"skipped", res.Skipped,
		"processed", res.Processed,
		"failed", res.Failed,
	)
	return res, nil
}

// Reset clears the stage ledger and truncates the organized text
// document back to its header, so the next run consolidates every
// section again. Opt-in only.
func (s *OrganizeStage) Reset() error {
	if err := s.Store.Clear(); err != nil {
		return err
	}
	return s.Out.Truncate()
}
