package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartWatcher_SignalsOnNewImage(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh, _, err := StartWatcher(ctx, WatchConfig{Dir: dir, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	// A burst of writes coalesces into one signal.
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "b.png"))

	select {
	case _, ok := <-sigCh:
		require.True(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("no signal for new image files")
	}
}

func TestStartWatcher_RequiresDir(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	require.Error(t, err)
}

func TestStartWatcher_MissingDirIsError(t *testing.T) {
	_, _, err := StartWatcher(context.Background(),
		WatchConfig{Dir: filepath.Join(t.TempDir(), "missing")}, nil)
	require.Error(t, err)
}

func TestStartWatcher_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh, _, err := StartWatcher(ctx, WatchConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-sigCh:
		require.False(t, ok, "signal channel must close on cancel")
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
