package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Lifecycle(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "ledgers.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLiteStore(db, "RECOGNIZE")

	l, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, l)

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, store.Record("a.jpg", at))
	require.NoError(t, store.Record("b.jpg", at))

	l, err = store.Load()
	require.NoError(t, err)
	require.Len(t, l, 2)
	assert.Equal(t, "2026-03-14 09:26:53", l["a.jpg"])

	// Overwrite keeps map semantics.
	require.NoError(t, store.Record("a.jpg", at.Add(time.Hour)))
	l, err = store.Load()
	require.NoError(t, err)
	require.Len(t, l, 2)
	assert.Equal(t, "2026-03-14 10:26:53", l["a.jpg"])

	require.NoError(t, store.Clear())
	l, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, l)
}

func TestSQLiteStore_StagesAreIndependent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "ledgers.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rec := NewSQLiteStore(db, "RECOGNIZE")
	org := NewSQLiteStore(db, "ORGANIZE")

	require.NoError(t, rec.Record("a.jpg", time.Now()))

	orgLedger, err := org.Load()
	require.NoError(t, err)
	assert.False(t, orgLedger.Contains("a.jpg"))

	require.NoError(t, org.Record("a.jpg", time.Now()))
	require.NoError(t, rec.Clear())

	orgLedger, err = org.Load()
	require.NoError(t, err)
	assert.True(t, orgLedger.Contains("a.jpg"))
}
