package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/gebo/internal/checksum"
	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/storage"
)

// EventCallback is called after a watcher-driven reload.
type EventCallback func()

// Watch starts an fsnotify watcher on the library root and reloads the
// repository (plus resyncs the index) when an external process rewrites the
// store file. Events are debounced because editors and atomic renames fire
// several per logical write, and the process's own writes are recognized by
// checksum and skipped. Runs until ctx is cancelled.
func Watch(ctx context.Context, db CompIndex, repo *comps.Repository, fs *storage.FS, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(fs.Root()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", fs.Root()))

	storePath := fs.StorePath()

	// reloadTimer debounces bursts of store-file events.
	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			reloadIfChanged(db, repo, fs, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != storePath {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reloadIfChanged re-reads the store when its content differs from what
// this process last read or wrote.
func reloadIfChanged(db CompIndex, repo *comps.Repository, fs *storage.FS, logger *slog.Logger, cb EventCallback) {
	data, err := fs.ReadStore()
	if err != nil {
		logger.Warn("watcher: read store failed", slog.String("error", err.Error()))
		return
	}
	if checksum.Sum(data) == repo.LastWrittenSum() {
		return
	}

	logger.Info("watcher: external store change, reloading")
	if err := repo.Reload(); err != nil {
		logger.Warn("watcher: reload failed", slog.String("error", err.Error()))
		return
	}
	if err := Sync(db, repo, logger); err != nil {
		logger.Warn("watcher: resync failed", slog.String("error", err.Error()))
	}
	if cb != nil {
		cb()
	}
}
