package script

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/buttonpad/buttonpad/pkg/logger"
)

// watchSettle coalesces the burst of events an editor produces when saving.
const watchSettle = 100 * time.Millisecond

// Watch calls reload after the file at path is written or replaced, until
// ctx is done. The parent directory is watched so that editors which save
// by renaming a temporary file are seen too.
func Watch(ctx context.Context, path string, l logger.Logger, reload func()) error {
	log := logger.OrNop(l)
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(path)
	dir := filepath.Dir(target)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var timer *time.Timer
	var settled <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchSettle)
			} else {
				timer.Reset(watchSettle)
			}
			settled = timer.C
		case <-settled:
			settled = nil
			reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warning("watching %s: %v", path, err)
		}
	}
}
