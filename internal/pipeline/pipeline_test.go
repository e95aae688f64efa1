package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melodyhei/handwriten2md/internal/document"
	"github.com/melodyhei/handwriten2md/internal/ledger"
)

type fakeItemProcessor struct {
	failing map[string]string // id -> error placeholder
	calls   []string
}

func (f *fakeItemProcessor) Process(_ context.Context, item WorkItem) (string, bool) {
	f.calls = append(f.calls, item.ID)
	if msg, bad := f.failing[item.ID]; bad {
		return msg, false
	}
	return "text of " + item.ID, true
}

type fakeBatchProcessor struct {
	result string
	ok     bool
	got    []WorkItem
}

func (f *fakeBatchProcessor) ProcessBatch(_ context.Context, items []WorkItem) (string, bool) {
	f.got = items
	return f.result, f.ok
}

func items(ids ...string) []WorkItem {
	out := make([]WorkItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, WorkItem{ID: id, Payload: "payload " + id})
	}
	return out
}

func newFixture(t *testing.T) (ledger.Store, *document.Appender, string) {
	t.Helper()
	dir := t.TempDir()
	store := ledger.NewFileStore(filepath.Join(dir, "processed_images.json"))
	outPath := filepath.Join(dir, "ocr_results.md")
	return store, document.NewAppender(outPath, "# OCR Results"), outPath
}

func TestFilter_OrderPreservedAndPure(t *testing.T) {
	l := ledger.Ledger{"b.jpg": "2026-01-01 00:00:00"}
	candidates := items("c.jpg", "a.jpg", "b.jpg", "d.jpg")

	got := Filter(candidates, l)

	require.Len(t, got, 3)
	assert.Equal(t, "c.jpg", got[0].ID)
	assert.Equal(t, "a.jpg", got[1].ID)
	assert.Equal(t, "d.jpg", got[2].ID)
	// Candidates are untouched.
	assert.Len(t, candidates, 4)
}

func TestFilter_Idempotence(t *testing.T) {
	l := ledger.Ledger{}
	candidates := items("a.jpg", "b.jpg", "c.jpg")

	first := Filter(candidates, l)
	require.Len(t, first, 3)
	for _, it := range first {
		l.Set(it.ID, time.Now())
	}

	second := Filter(candidates, l)
	assert.Empty(t, second)
}

func TestRunItems_SecondRunProcessesNothing(t *testing.T) {
	store, out, outPath := newFixture(t)
	proc := &fakeItemProcessor{}

	res, err := RunItems(context.Background(), nil, items("a.jpg", "b.jpg"), store, proc, out)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 0, res.Failed)

	before, err := os.ReadFile(outPath)
	require.NoError(t, err)

	res, err = RunItems(context.Background(), nil, items("a.jpg", "b.jpg"), store, proc, out)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.Equal(t, 2, res.Skipped)
	assert.True(t, res.NothingNew())

	after, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, before, after, "rerun must not write anything")
	assert.Len(t, proc.calls, 2, "processor must not be invoked again")
}

func TestRunItems_NothingNewTouchesNoArtifacts(t *testing.T) {
	store, out, outPath := newFixture(t)
	require.NoError(t, store.Record("a.jpg", time.Now()))

	res, err := RunItems(context.Background(), nil, items("a.jpg"), store, &fakeItemProcessor{}, out)
	require.NoError(t, err)
	assert.True(t, res.NothingNew())

	_, err = os.Stat(outPath)
	assert.True(t, os.IsNotExist(err), "output document must not be created")
}

func TestRunItems_FailureIsolation(t *testing.T) {
	store, out, outPath := newFixture(t)
	proc := &fakeItemProcessor{failing: map[string]string{
		"b.jpg": "recognition failed: service said no",
	}}

	res, err := RunItems(context.Background(), nil, items("a.jpg", "b.jpg", "c.jpg"), store, proc, out)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, proc.calls,
		"items after the failing one must still be attempted")

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "## b.jpg")
	assert.Contains(t, content, "recognition failed: service said no")
	assert.Contains(t, content, "## c.jpg")

	l, err := store.Load()
	require.NoError(t, err)
	assert.True(t, l.Contains("b.jpg"), "failed item is still recorded (at most one attempt)")
	assert.True(t, l.Contains("c.jpg"))
}

// recordSpy asserts append-then-acknowledge ordering: by the time an
// item is recorded, its section must already be in the output document.
type recordSpy struct {
	ledger.Store
	t       *testing.T
	outPath string
}

func (s *recordSpy) Record(id string, at time.Time) error {
	raw, err := os.ReadFile(s.outPath)
	require.NoError(s.t, err)
	require.Contains(s.t, string(raw), "## "+id,
		"ledger update must happen only after the output append")
	return s.Store.Record(id, at)
}

func TestRunItems_AppendThenAcknowledge(t *testing.T) {
	store, out, outPath := newFixture(t)
	spy := &recordSpy{Store: store, t: t, outPath: outPath}

	_, err := RunItems(context.Background(), nil, items("a.jpg", "b.jpg"), spy, &fakeItemProcessor{}, out)
	require.NoError(t, err)
}

func TestRunItems_CorruptLedgerStopsRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "processed_images.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	store := ledger.NewFileStore(path)
	out := document.NewAppender(filepath.Join(dir, "ocr_results.md"), "# OCR Results")

	_, err := RunItems(context.Background(), nil, items("a.jpg"), store, &fakeItemProcessor{}, out)
	require.Error(t, err)
}

func TestRunBatch_AllSurvivorsInOneCall(t *testing.T) {
	store, out, outPath := newFixture(t)
	require.NoError(t, store.Record("a.jpg", time.Now()))
	proc := &fakeBatchProcessor{result: "the organized text", ok: true}

	res, err := RunBatch(context.Background(), nil, items("a.jpg", "b.jpg", "c.jpg"), store, proc, out)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 1, res.Skipped)

	require.Len(t, proc.got, 2)
	assert.Equal(t, "b.jpg", proc.got[0].ID)
	assert.Equal(t, "c.jpg", proc.got[1].ID)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "the organized text")

	l, err := store.Load()
	require.NoError(t, err)
	assert.True(t, l.Contains("b.jpg"))
	assert.True(t, l.Contains("c.jpg"))
}

func TestRunBatch_FailureStringStillLandsAndRecords(t *testing.T) {
	store, out, outPath := newFixture(t)
	proc := &fakeBatchProcessor{result: "consolidation failed: missing API key", ok: false}

	res, err := RunBatch(context.Background(), nil, items("a.jpg", "b.jpg"), store, proc, out)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, res.Failed)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "consolidation failed: missing API key")

	l, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, l, 2)
}

func TestRunItems_ManyItemsStaySorted(t *testing.T) {
	store, out, _ := newFixture(t)
	var ids []string
	for i := 0; i < 12; i++ {
		ids = append(ids, fmt.Sprintf("img-%02d.png", i))
	}
	proc := &fakeItemProcessor{}

	_, err := RunItems(context.Background(), nil, items(ids...), store, proc, out)
	require.NoError(t, err)
	assert.Equal(t, ids, proc.calls)
	assert.True(t, sortedStrings(proc.calls))
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if strings.Compare(s[i-1], s[i]) > 0 {
			return false
		}
	}
	return true
}
