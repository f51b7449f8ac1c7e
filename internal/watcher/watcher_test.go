package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/broll-flow/internal/logger"
	"github.com/nguyentantai21042004/broll-flow/internal/upload"
	"github.com/nguyentantai21042004/broll-flow/internal/workflow"
)

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/in/talk.mp4", true},
		{"/in/TALK.MOV", true},
		{"/in/clip.webm", true},
		{"/in/notes.txt", false},
		{"/in/cover.png", false},
		{"/in/.talk.mp4", false},
		{"/in/noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, isVideoFile(tt.path))
		})
	}
}

func TestWatcherDispatchesVideos(t *testing.T) {
	dir := t.TempDir()
	got := make(chan string, 4)

	w, err := New(dir, func(_ context.Context, p string) error {
		got <- p
		return nil
	}, logger.Nop(), 0)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0644))
	video := filepath.Join(dir, "talk.mp4")
	require.NoError(t, os.WriteFile(video, []byte("x"), 0644))

	select {
	case p := <-got:
		assert.Equal(t, video, p)
	case <-time.After(5 * time.Second):
		t.Fatal("video was not dispatched")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, got)
}

func TestNewMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil, logger.Nop(), 0)
	assert.Error(t, err)
}

type fakeSubmitter struct {
	got *upload.Upload
	err error
}

func (f *fakeSubmitter) Submit(_ context.Context, up *upload.Upload) (*workflow.Run, error) {
	f.got = up
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.Run{ID: "run-1"}, nil
}

func TestSubmitTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.mov")
	require.NoError(t, os.WriteFile(path, []byte("bytes"), 0644))

	s := &fakeSubmitter{}
	require.NoError(t, SubmitTo(s, logger.Nop())(context.Background(), path))
	require.NotNil(t, s.got)
	assert.Equal(t, "talk.mov", s.got.Name)
	assert.Equal(t, "video/quicktime", s.got.MediaType)
	assert.False(t, s.got.Owned())

	s.err = workflow.ErrMissingCredential
	err := SubmitTo(s, logger.Nop())(context.Background(), path)
	assert.True(t, errors.Is(err, workflow.ErrMissingCredential))

	assert.Error(t, SubmitTo(s, logger.Nop())(context.Background(), filepath.Join(t.TempDir(), "gone.mp4")))
}
