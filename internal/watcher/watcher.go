package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/broll-flow/internal/logger"
	"github.com/nguyentantai21042004/broll-flow/internal/upload"
	"github.com/nguyentantai21042004/broll-flow/internal/workflow"
)

type implWatcher struct {
	inputDir string
	handler  EventHandler
	logger   logger.Logger
	watcher  *fsnotify.Watcher
	settle   time.Duration
}

// Start blocks until ctx is done, dispatching each new video to the handler
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started. Monitoring: %s", w.inputDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !isVideoFile(event.Name) {
				w.logger.Debug(ctx, "Ignoring non-video file: %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "New video detected: %s", event.Name)

			// let the writer finish before the file is read
			if w.settle > 0 {
				select {
				case <-time.After(w.settle):
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			if err := w.handler(ctx, event.Name); err != nil {
				w.logger.Error(ctx, "Failed to submit %s: %v", event.Name, err)
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

// isVideoFile applies the upload media type gate to a file name. Hidden
// files are skipped.
func isVideoFile(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return upload.IsVideo(upload.MediaTypeFor(path))
}

// Submitter starts a run for an upload
type Submitter interface {
	Submit(ctx context.Context, up *upload.Upload) (*workflow.Run, error)
}

// SubmitTo returns a handler that references the file and submits it.
// The file stays in place; the watcher never owns what it picks up.
func SubmitTo(s Submitter, log logger.Logger) EventHandler {
	return func(ctx context.Context, filePath string) error {
		up, err := upload.FromPath(filePath)
		if err != nil {
			return err
		}
		run, err := s.Submit(ctx, up)
		if err != nil {
			return err
		}
		log.Info(ctx, "Submitted %s as run %s", up.Name, run.ID)
		return nil
	}
}
