// Package pipeline implements the incremental-batch contract shared
// by both stages: list candidates, filter out items already in the
// ledger, process only the remainder, and durably record each item so
// a rerun after partial failure reprocesses nothing already done.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/melodyhei/handwriten2md/internal/document"
	"github.com/melodyhei/handwriten2md/internal/ledger"
)

// WorkItem identifies one unit of work for a stage.
type WorkItem struct {
	ID      string // image filename, or section header from a document
	Payload string // image path (recognize) or raw OCR text (organize)
}

// Filter returns the candidates whose id is not a key in the ledger,
// preserving the candidates' original order. Pure function.
func Filter(candidates []WorkItem, l ledger.Ledger) []WorkItem {
	var out []WorkItem
	for _, c := range candidates {
		if !l.Contains(c.ID) {
			out = append(out, c)
		}
	}
	return out
}

// ItemProcessor produces the textual result for one work item.
// ok=false means text is a human-readable error placeholder; the run
// continues to the next item either way.
type ItemProcessor interface {
	Process(ctx context.Context, item WorkItem) (text string, ok bool)
}

// BatchProcessor consumes all surviving items in a single external
// call and returns one consolidated result (or a marked failure
// string with ok=false).
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, items []WorkItem) (text string, ok bool)
}

// Result summarizes one stage run.
type Result struct {
	Candidates int
	Skipped    int // already in the ledger
	Processed  int
	Failed     int // processed with an inline error placeholder
}

// NothingNew reports whether the run had no unprocessed candidates.
func (r Result) NothingNew() bool {
	return r.Candidates > 0 && r.Skipped == r.Candidates
}

// RunItems executes the per-item incremental loop: each surviving item
// is processed, its section appended to the output document, and only
// then recorded in the ledger, always in that order. Failed items are appended as error placeholders and
// still recorded, so a permanently failing item is attempted at most
// once. When no candidate survives the filter, neither the output
// artifact nor the ledger is touched.
func RunItems(ctx context.Context, logger *slog.Logger, candidates []WorkItem, store ledger.Store, proc ItemProcessor, out *document.Appender) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	led, err := store.Load()
	if err != nil {
		return Result{}, fmt.Errorf("load ledger: %w", err)
	}

	res := Result{Candidates: len(candidates)}
	todo := Filter(candidates, led)
	res.Skipped = len(candidates) - len(todo)

	if len(todo) == 0 {
		logger.Info("pipeline.nothing_new", "candidates", len(candidates))
		return res, nil
	}
	logger.Info("pipeline.run.start", "candidates", len(candidates), "todo", len(todo))

	for i, item := range todo {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		logger.Info("pipeline.item.start", "item", item.ID, "n", i+1, "of", len(todo))

		text, ok := proc.Process(ctx, item)
		if !ok {
			logger.Error("pipeline.item.failed", "item", item.ID, "error", text)
			res.Failed++
		}

		if err := out.Append(document.FormatSection(item.ID, text)); err != nil {
			return res, fmt.Errorf("append result for %s: %w", item.ID, err)
		}
		if err := store.Record(item.ID, time.Now()); err != nil {
			return res, fmt.Errorf("record %s: %w", item.ID, err)
		}
		res.Processed++
		if ok {
			logger.Info("pipeline.item.ok", "item", item.ID)
		}
	}
	return res, nil
}

// RunBatch executes the batched variant: every surviving item goes
// into one external call, the single result (or marked failure
// string) is appended once, and then every item is recorded.
func RunBatch(ctx context.Context, logger *slog.Logger, candidates []WorkItem, store ledger.Store, proc BatchProcessor, out *document.Appender) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	led, err := store.Load()
	if err != nil {
		return Result{}, fmt.Errorf("load ledger: %w", err)
	}

	res := Result{Candidates: len(candidates)}
	todo := Filter(candidates, led)
	res.Skipped = len(candidates) - len(todo)

	if len(todo) == 0 {
		logger.Info("pipeline.nothing_new", "candidates", len(candidates))
		return res, nil
	}
	logger.Info("pipeline.batch.start", "candidates", len(candidates), "todo", len(todo))

	text, ok := proc.ProcessBatch(ctx, todo)
	if !ok {
		logger.Error("pipeline.batch.failed", "items", len(todo), "error", text)
	}

	if err := out.Append("\n" + text); err != nil {
		return res, fmt.Errorf("append batch result: %w", err)
	}
	now := time.Now()
	for _, item := range todo {
		if err := store.Record(item.ID, now); err != nil {
			return res, fmt.Errorf("record %s: %w", item.ID, err)
		}
		res.Processed++
	}
	if !ok {
		res.Failed = len(todo)
	}
	return res, nil
}
