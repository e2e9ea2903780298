package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vunguyen2308/manhwa-reel/internal/logger"
)

type implWatcher struct {
	scriptsDir    string
	handler       EventHandler
	logger        logger.Logger
	watcher       *fsnotify.Watcher
	maxConcurrent int
	semaphore     chan struct{}
	wg            sync.WaitGroup
}

// Start monitors the scripts folder and runs the handler for each newly
// created chapter script, up to maxConcurrent at a time.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Script watcher started (max concurrent: %d). Monitoring: %s", w.maxConcurrent, w.scriptsDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for in-flight chapters to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "Script watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !isScriptFile(event.Name) {
				w.logger.Debug(ctx, "Ignoring non-script file: %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "New chapter script detected: %s", event.Name)

			// Small delay to ensure file is fully written
			time.Sleep(500 * time.Millisecond)

			select {
			case w.semaphore <- struct{}{}:
				w.wg.Add(1)
				go func(scriptPath string) {
					defer w.wg.Done()
					defer func() { <-w.semaphore }()

					if err := w.handler(ctx, scriptPath); err != nil {
						w.logger.Error(ctx, "Failed to process %s: %v", scriptPath, err)
					}
				}(event.Name)
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func isScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".txt"
}
