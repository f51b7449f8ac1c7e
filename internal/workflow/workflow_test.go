package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/broll-flow/internal/config"
	"github.com/nguyentantai21042004/broll-flow/internal/segment"
	"github.com/nguyentantai21042004/broll-flow/internal/upload"
)

type fakeTranscriber struct {
	fn func(ctx context.Context, up *upload.Upload, apiKey string) ([]segment.Cue, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, up *upload.Upload, apiKey string) ([]segment.Cue, error) {
	return f.fn(ctx, up, apiKey)
}

type fakeSearcher struct {
	fn func(ctx context.Context, query string) (string, error)
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (string, error) {
	return f.fn(ctx, query)
}

type fakeRecorder struct {
	mu    sync.Mutex
	runs  []string
	names []string
	segs  int
}

func (f *fakeRecorder) Record(_ context.Context, runID, fileName, _ string, segments []segment.Segment, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, runID)
	f.names = append(f.names, fileName)
	f.segs = len(segments)
	return nil
}

var fixedNow = time.Date(2026, 10, 14, 8, 30, 0, 0, time.UTC)

func zeroDelays() []time.Duration {
	return make([]time.Duration, len(mockCheckpoints))
}

func newVideo(t *testing.T) *upload.Upload {
	t.Helper()
	up, err := upload.FromReader(strings.NewReader("not really a video"), "clip.mp4", "video/mp4", t.TempDir())
	require.NoError(t, err)
	return up
}

func wait(t *testing.T, run *Run) error {
	t.Helper()
	select {
	case <-run.Done():
		return run.Err()
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
		return nil
	}
}

func newMock(t *testing.T, delays []time.Duration) *Controller {
	t.Helper()
	c, err := New(Options{Mode: config.ModeMock, StageDelays: delays, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	return c
}

func newExternal(t *testing.T, tr *fakeTranscriber, s *fakeSearcher) *Controller {
	t.Helper()
	opts := Options{Mode: config.ModeTranscribe, Transcriber: tr, MaxConcurrent: 2}
	if s != nil {
		opts.Searcher = s
	}
	c, err := New(opts)
	require.NoError(t, err)
	c.SetCredential("sk-test")
	return c
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateIdle, StateUploading, true},
		{StateUploading, StateExtracting, true},
		{StateExtracting, StateGenerating, true},
		{StateGenerating, StateComplete, true},
		{StateExtracting, StateIdle, true},
		{StateComplete, StateIdle, true},
		{StateGenerating, StateGenerating, true},
		{StateIdle, StateComplete, false},
		{StateUploading, StateGenerating, false},
		{StateComplete, StateExtracting, false},
		{State("bogus"), StateIdle, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := Transition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStatusInfo(t *testing.T) {
	assert.Equal(t, "Extracting Subtitles", StateExtracting.Info().Title)
	assert.Equal(t, "Processing Complete!", StateComplete.Info().Title)
	assert.Empty(t, StateIdle.Info().Title)
	assert.True(t, StateGenerating.Processing())
	assert.False(t, StateComplete.Processing())
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Mode: config.ModeMock, StageDelays: []time.Duration{1}})
	assert.Error(t, err)

	_, err = New(Options{Mode: config.ModeTranscribe})
	assert.Error(t, err)

	_, err = New(Options{Mode: "live", StageDelays: zeroDelays()})
	assert.Error(t, err)
}

func TestMockRun(t *testing.T) {
	c := newMock(t, zeroDelays())

	run, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)
	require.NoError(t, wait(t, run))

	snap := c.Snapshot()
	assert.Equal(t, StateComplete, snap.State)
	assert.Equal(t, 100, snap.Progress)
	assert.False(t, snap.Processing)
	assert.Equal(t, run.ID, snap.RunID)
	require.NotNil(t, snap.Upload)
	assert.Equal(t, "clip.mp4", snap.Upload.Name)

	require.Len(t, snap.Segments, 6)
	wantImages := []string{
		segment.ImageCoding, segment.ImageMeeting, segment.ImageCoding,
		segment.ImageMeeting, segment.ImageCoffee, segment.ImageCity,
	}
	for i, s := range snap.Segments {
		assert.Equal(t, segment.ID(i), s.ID)
		assert.Equal(t, wantImages[i], s.Image)
	}

	notices := c.Notices().Since(0)
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeSuccess, notices[0].Kind)
	assert.Equal(t, "Processing Complete! 🎉", notices[0].Title)
	assert.Equal(t, run.ID, notices[0].RunID)
}

func TestSubmitIsNonBlocking(t *testing.T) {
	c := newMock(t, []time.Duration{time.Hour, 0, 0, 0})

	run, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, StateUploading, snap.State)
	assert.Equal(t, 10, snap.Progress)
	assert.True(t, snap.Processing)
	assert.Equal(t, "Processing Video", snap.Status.Title)

	c.Reset(context.Background())
	assert.ErrorIs(t, wait(t, run), ErrSuperseded)
}

func TestSubmitRejectsNonVideo(t *testing.T) {
	c := newMock(t, zeroDelays())

	_, err := c.Submit(context.Background(), &upload.Upload{Name: "notes.txt", MediaType: "text/plain"})
	assert.ErrorIs(t, err, upload.ErrNotVideo)
	_, err = c.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, upload.ErrNotVideo)

	assert.Equal(t, StateIdle, c.Snapshot().State)
}

func TestSubmitMissingCredential(t *testing.T) {
	called := false
	c, err := New(Options{
		Mode: config.ModeTranscribe,
		Transcriber: &fakeTranscriber{fn: func(context.Context, *upload.Upload, string) ([]segment.Cue, error) {
			called = true
			return nil, nil
		}},
	})
	require.NoError(t, err)

	up := newVideo(t)
	_, err = c.Submit(context.Background(), up)
	assert.ErrorIs(t, err, ErrMissingCredential)

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Progress)
	assert.Nil(t, snap.Upload)
	assert.False(t, called)

	// the caller still owns a rejected upload
	_, statErr := os.Stat(up.Path)
	assert.NoError(t, statErr)

	c.SetCredential("  sk-late  ")
	assert.True(t, c.Snapshot().HasCredential)
	c.ClearCredential()
	assert.False(t, c.Snapshot().HasCredential)
}

func TestMockModeNeedsNoCredential(t *testing.T) {
	c := newMock(t, zeroDelays())
	run, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)
	assert.NoError(t, wait(t, run))
}

func TestExternalRun(t *testing.T) {
	var gotKey string
	tr := &fakeTranscriber{fn: func(_ context.Context, _ *upload.Upload, apiKey string) ([]segment.Cue, error) {
		gotKey = apiKey
		return []segment.Cue{
			{Start: 0, End: 2.5, Text: "Welcome to the keyboard workshop."},
			{Start: 2.5, End: 4, Text: "Go on, try it!"},
			{Start: 4, End: 7, Text: "Mountains, rivers and forests everywhere."},
		}, nil
	}}
	s := &fakeSearcher{fn: func(_ context.Context, query string) (string, error) {
		if query == "mountains" {
			return "", errors.New("rate limited")
		}
		return "https://images.example/" + query + ".jpg", nil
	}}
	rec := &fakeRecorder{}

	c := newExternal(t, tr, s)
	c.opts.Recorder = rec

	run, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)
	require.NoError(t, wait(t, run))
	assert.Equal(t, "sk-test", gotKey)

	snap := c.Snapshot()
	assert.Equal(t, StateComplete, snap.State)
	require.Len(t, snap.Segments, 3)

	assert.Equal(t, []string{"welcome", "keyboard", "workshop"}, snap.Segments[0].Keywords)
	assert.Equal(t, "https://images.example/welcome.jpg", snap.Segments[0].Image)

	// no keyword and no long word: the fallback query is used
	assert.Empty(t, snap.Segments[1].Keywords)
	assert.Equal(t, "https://images.example/technology.jpg", snap.Segments[1].Image)

	// failed search falls back without aborting the run
	assert.Equal(t, "https://source.unsplash.com/800x600/?mountains", snap.Segments[2].Image)

	for i, seg := range snap.Segments {
		assert.Equal(t, segment.ID(i), seg.ID)
	}
	assert.Equal(t, []string{run.ID}, rec.runs)
	assert.Equal(t, []string{"clip.mp4"}, rec.names)
	assert.Equal(t, 3, rec.segs)
}

func TestExternalRunWithoutSearcher(t *testing.T) {
	tr := &fakeTranscriber{fn: func(context.Context, *upload.Upload, string) ([]segment.Cue, error) {
		return []segment.Cue{{Start: 0, End: 1, Text: "Coffee time"}}, nil
	}}
	c := newExternal(t, tr, nil)

	run, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)
	require.NoError(t, wait(t, run))

	segs := c.Snapshot().Segments
	require.Len(t, segs, 1)
	assert.Equal(t, "https://source.unsplash.com/800x600/?coffee", segs[0].Image)
}

func TestExternalFailureRevertsToIdle(t *testing.T) {
	tr := &fakeTranscriber{fn: func(context.Context, *upload.Upload, string) ([]segment.Cue, error) {
		return nil, errors.New("openai http 500: boom")
	}}
	c := newExternal(t, tr, nil)

	run, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)

	runErr := wait(t, run)
	var stageErr *StageError
	require.ErrorAs(t, runErr, &stageErr)
	assert.Equal(t, "transcribe", stageErr.Stage)

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Progress)
	assert.Empty(t, snap.Segments)

	notices := c.Notices().Since(0)
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Kind)
	assert.Contains(t, notices[0].Description, "boom")

	_, err = c.ExportSubtitles()
	assert.ErrorIs(t, err, ErrNoSegments)
}

func TestInvalidCuesFailTheRun(t *testing.T) {
	tr := &fakeTranscriber{fn: func(context.Context, *upload.Upload, string) ([]segment.Cue, error) {
		return []segment.Cue{{Start: 2, End: 3, Text: "b"}, {Start: 1, End: 2, Text: "a"}}, nil
	}}
	c := newExternal(t, tr, nil)

	run, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)

	var stageErr *StageError
	require.ErrorAs(t, wait(t, run), &stageErr)
	assert.Equal(t, "segment", stageErr.Stage)
	assert.Equal(t, StateIdle, c.Snapshot().State)
}

func TestProgressCheckpoints(t *testing.T) {
	var c *Controller
	var seen []Snapshot
	var mu sync.Mutex
	observe := func() {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, c.Snapshot())
	}

	tr := &fakeTranscriber{fn: func(context.Context, *upload.Upload, string) ([]segment.Cue, error) {
		observe()
		return []segment.Cue{{Start: 0, End: 1, Text: "Laptop screens glowing"}}, nil
	}}
	s := &fakeSearcher{fn: func(context.Context, string) (string, error) {
		observe()
		return "https://images.example/a.jpg", nil
	}}
	c = newExternal(t, tr, s)

	run, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)
	require.NoError(t, wait(t, run))
	observe()

	require.Len(t, seen, 3)
	assert.Equal(t, StateExtracting, seen[0].State)
	assert.Equal(t, 30, seen[0].Progress)
	assert.Equal(t, StateGenerating, seen[1].State)
	assert.Equal(t, 70, seen[1].Progress)
	assert.Equal(t, StateComplete, seen[2].State)
	assert.Equal(t, 100, seen[2].Progress)

	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i].Progress, seen[i-1].Progress)
	}
}

func TestMoveNeverLowersProgress(t *testing.T) {
	c := newMock(t, zeroDelays())
	c.mu.Lock()
	defer c.mu.Unlock()

	require.NoError(t, c.moveLocked(StateUploading, 10))
	require.NoError(t, c.moveLocked(StateExtracting, 50))
	require.NoError(t, c.moveLocked(StateExtracting, 30))
	assert.Equal(t, 50, c.progress)
	assert.Error(t, c.moveLocked(StateComplete, 100))
	require.NoError(t, c.moveLocked(StateIdle, 100))
	assert.Zero(t, c.progress)
}

func TestSupersededRunIsDiscarded(t *testing.T) {
	started := make(chan struct{})
	var calls atomic.Int32

	tr := &fakeTranscriber{fn: func(ctx context.Context, _ *upload.Upload, _ string) ([]segment.Cue, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return []segment.Cue{{Start: 0, End: 1, Text: "Stale result arriving late"}}, nil
		}
		return []segment.Cue{{Start: 0, End: 2, Text: "Fresh keyboard content"}}, nil
	}}
	c := newExternal(t, tr, nil)

	first := newVideo(t)
	run1, err := c.Submit(context.Background(), first)
	require.NoError(t, err)
	<-started
	assert.Equal(t, StateExtracting, c.Snapshot().State)

	run2, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)

	assert.ErrorIs(t, wait(t, run1), ErrSuperseded)
	require.NoError(t, wait(t, run2))

	snap := c.Snapshot()
	assert.Equal(t, run2.ID, snap.RunID)
	require.Len(t, snap.Segments, 1)
	assert.Equal(t, "Fresh keyboard content", snap.Segments[0].Text)

	// the first upload was released when it was superseded
	_, statErr := os.Stat(first.Path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	for _, n := range c.Notices().Since(0) {
		assert.NotEqual(t, NoticeError, n.Kind)
	}
}

func TestResetReleasesUpload(t *testing.T) {
	c := newMock(t, zeroDelays())
	up := newVideo(t)

	run, err := c.Submit(context.Background(), up)
	require.NoError(t, err)
	require.NoError(t, wait(t, run))

	c.Reset(context.Background())

	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Zero(t, snap.Progress)
	assert.Nil(t, snap.Upload)
	assert.Empty(t, snap.Segments)
	assert.Empty(t, snap.RunID)

	_, statErr := os.Stat(up.Path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestExports(t *testing.T) {
	c := newMock(t, zeroDelays())

	_, err := c.ExportSubtitles()
	assert.ErrorIs(t, err, ErrNoSegments)
	_, err = c.ExportStoryboard()
	assert.ErrorIs(t, err, ErrNoSegments)
	assert.ErrorIs(t, c.ExportStoryboardDocx(filepath.Join(t.TempDir(), "x.docx")), ErrNoSegments)

	run, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)
	require.NoError(t, wait(t, run))

	srt, err := c.ExportSubtitles()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(srt, "1\n00:00:00,000 --> 00:00:03,500\n"))

	sb, err := c.ExportStoryboard()
	require.NoError(t, err)
	assert.Contains(t, string(sb), `"timestamp": "2026-10-14T08:30:00.000Z"`)
	assert.Contains(t, string(sb), `"timeRange": "23.1s - 28.7s"`)

	docxPath := filepath.Join(t.TempDir(), "storyboard.docx")
	require.NoError(t, c.ExportStoryboardDocx(docxPath))
	info, err := os.Stat(docxPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// exports leave the state untouched
	assert.Equal(t, StateComplete, c.Snapshot().State)
}

func TestCompletedRunWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Options{Mode: config.ModeMock, StageDelays: zeroDelays(), OutputDir: dir})
	require.NoError(t, err)

	run, err := c.Submit(context.Background(), newVideo(t))
	require.NoError(t, err)
	require.NoError(t, wait(t, run))

	srt, err := os.ReadFile(filepath.Join(dir, "clip.srt"))
	require.NoError(t, err)
	assert.Contains(t, string(srt), "00:00:23,100 --> 00:00:28,700")

	_, err = os.Stat(filepath.Join(dir, "clip.storyboard.json"))
	assert.NoError(t, err)
}

func TestNoticeBus(t *testing.T) {
	bus := NewNoticeBus(2)

	bus.Publish(Notice{Title: "a"})
	second := bus.Publish(Notice{Title: "b"})
	bus.Publish(Notice{Title: "c"})

	all := bus.Since(0)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Title)
	assert.Equal(t, "c", all[1].Title)
	assert.False(t, all[0].Timestamp.IsZero())

	later := bus.Since(second.Seq)
	require.Len(t, later, 1)
	assert.Equal(t, int64(3), later[0].Seq)
	assert.Empty(t, bus.Since(3))
}
