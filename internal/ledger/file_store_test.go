package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melodyhei/handwriten2md/internal/common"
)

func TestFileStore_LoadMissingIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "processed_images.json"))

	l, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, l)
}

func TestFileStore_RecordSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_images.json")
	store := NewFileStore(path)

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, store.Record("a.jpg", at))
	require.NoError(t, store.Record("b.jpg", at.Add(time.Minute)))

	// A fresh store over the same path sees both entries.
	reloaded, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.True(t, reloaded.Contains("a.jpg"))
	assert.True(t, reloaded.Contains("b.jpg"))
	assert.Equal(t, "2026-03-14 09:26:53", reloaded["a.jpg"])
}

func TestFileStore_RecordOverwritesTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_images.json")
	store := NewFileStore(path)

	require.NoError(t, store.Record("a.jpg", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, store.Record("a.jpg", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)))

	l, err := store.Load()
	require.NoError(t, err)
	require.Len(t, l, 1)
	assert.Equal(t, "2026-01-02 00:00:00", l["a.jpg"])
}

func TestFileStore_PreservesNonASCII(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_images.json")
	store := NewFileStore(path)

	require.NoError(t, store.Record("笔记-01.png", time.Now()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "笔记-01.png")

	l, err := store.Load()
	require.NoError(t, err)
	assert.True(t, l.Contains("笔记-01.png"))
}

func TestFileStore_CorruptLedgerIsHardFailure(t *testing.T) {
	for name, content := range map[string]string{
		"invalid json": `{"a.jpg": `,
		"wrong shape":  `{"a.jpg": 42}`,
		"array":        `["a.jpg"]`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "processed_images.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := NewFileStore(path).Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrCorruptLedger))
		})
	}
}

func TestFileStore_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_images.json")
	store := NewFileStore(path)

	require.NoError(t, store.Record("a.jpg", time.Now()))
	require.NoError(t, store.Clear())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	l, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, l)

	// Clearing an already-missing ledger is not an error.
	require.NoError(t, store.Clear())
}
