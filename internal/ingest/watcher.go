package ingest

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/melodyhei/handwriten2md/constants"
)

// WatchConfig configures directory watching for new note images.
type WatchConfig struct {
	Dir      string
	Debounce time.Duration // coalesce rapid create/write bursts
}

// StartWatcher watches cfg.Dir for new or changed image files and
// emits one signal per debounced burst. The caller runs an
// incremental stage per signal; the ledger makes re-triggering for
// already-processed files harmless.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan struct{}, <-chan error, error) {
	if cfg.Dir == "" {
		return nil, nil, errors.New("watch dir is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := w.Add(cfg.Dir); err != nil {
		_ = w.Close()
		return nil, nil, err
	}

	sigCh := make(chan struct{}, 1)
	errCh := make(chan error, 1)

	go func() {
		defer func() { _ = w.Close() }()
		var timer *time.Timer
		var timerCh <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				close(sigCh)
				return
			case ev, ok := <-w.Events:
				if !ok {
					close(sigCh)
					return
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if IsHidden(ev.Name) || !constants.IsImageExt(filepath.Ext(ev.Name)) {
					continue
				}
				logger.Debug("watch.event", "op", ev.Op.String(), "file", ev.Name)
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
					timerCh = timer.C
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(cfg.Debounce)
				}
			case <-timerCh:
				timer = nil
				timerCh = nil
				select {
				case sigCh <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(sigCh)
					return
				}
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return sigCh, errCh, nil
}
