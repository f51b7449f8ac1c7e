package watcher

import "context"

// Watcher monitors the input folder for new videos
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is called once per new video file
type EventHandler func(ctx context.Context, filePath string) error
