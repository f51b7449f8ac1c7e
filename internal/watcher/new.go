package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/broll-flow/internal/logger"
)

// DefaultSettle is how long a new file is left alone before it is handed on
const DefaultSettle = 500 * time.Millisecond

// New creates a Watcher on inputDir. settle < 0 means DefaultSettle.
func New(inputDir string, handler EventHandler, log logger.Logger, settle time.Duration) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if settle < 0 {
		settle = DefaultSettle
	}

	return &implWatcher{
		inputDir: inputDir,
		handler:  handler,
		logger:   log,
		watcher:  watcher,
		settle:   settle,
	}, nil
}
