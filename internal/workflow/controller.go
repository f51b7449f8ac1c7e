// Package workflow owns the single processing state of the service and
// drives uploads through the stage pipeline that produces B-roll segments.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/broll-flow/internal/config"
	"github.com/nguyentantai21042004/broll-flow/internal/export"
	"github.com/nguyentantai21042004/broll-flow/internal/logger"
	"github.com/nguyentantai21042004/broll-flow/internal/photos"
	"github.com/nguyentantai21042004/broll-flow/internal/segment"
	"github.com/nguyentantai21042004/broll-flow/internal/transcriber"
	"github.com/nguyentantai21042004/broll-flow/internal/upload"
)

// Recorder persists completed runs
type Recorder interface {
	Record(ctx context.Context, runID, fileName, mode string, segments []segment.Segment, at time.Time) error
}

// Options configures a Controller. Transcriber is required in transcribe
// mode; Searcher, Recorder and OutputDir are optional.
type Options struct {
	Mode          string
	StageDelays   []time.Duration
	Transcriber   transcriber.Transcriber
	Searcher      photos.Searcher
	Recorder      Recorder
	FallbackTerm  string
	MaxConcurrent int
	OutputDir     string
	Logger        logger.Logger
	Now           func() time.Time
}

// Run is the handle of one submitted upload
type Run struct {
	ID   string
	done chan struct{}
	err  error
}

// Done is closed when the run completes, fails or is superseded
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Err returns the outcome of the run; valid once Done is closed
func (r *Run) Err() error {
	<-r.done
	return r.err
}

// UploadInfo describes the current upload without exposing its path
type UploadInfo struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	SizeMB    string `json:"sizeMB"`
	MediaType string `json:"mediaType"`
}

// Snapshot is a read-only view of the controller
type Snapshot struct {
	RunID         string            `json:"runId,omitempty"`
	Mode          string            `json:"mode"`
	State         State             `json:"state"`
	Progress      int               `json:"progress"`
	Status        StatusInfo        `json:"status"`
	Processing    bool              `json:"processing"`
	HasCredential bool              `json:"hasCredential"`
	Upload        *UploadInfo       `json:"upload,omitempty"`
	Segments      []segment.Segment `json:"segments"`
}

// Controller is safe for concurrent use
type Controller struct {
	opts    Options
	log     logger.Logger
	notices *NoticeBus

	mu       sync.Mutex
	state    State
	progress int
	gen      uint64
	runID    string
	cancel   context.CancelFunc
	upload   *upload.Upload
	segments []segment.Segment
	apiKey   string
}

// New creates an idle controller
func New(opts Options) (*Controller, error) {
	if opts.Mode == "" {
		opts.Mode = config.ModeMock
	}
	switch opts.Mode {
	case config.ModeMock:
		if len(opts.StageDelays) != len(mockCheckpoints) {
			return nil, fmt.Errorf("mock mode needs %d stage delays, got %d", len(mockCheckpoints), len(opts.StageDelays))
		}
	case config.ModeTranscribe:
		if opts.Transcriber == nil {
			return nil, fmt.Errorf("transcribe mode needs a transcriber")
		}
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.Mode)
	}
	if opts.FallbackTerm == "" {
		opts.FallbackTerm = segment.DefaultQuery
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Controller{
		opts:    opts,
		log:     opts.Logger,
		notices: NewNoticeBus(0),
		state:   StateIdle,
	}, nil
}

// Notices returns the notice buffer of this controller
func (c *Controller) Notices() *NoticeBus {
	return c.notices
}

// SetCredential stores the transcription API key in memory. An empty key
// clears it.
func (c *Controller) SetCredential(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = strings.TrimSpace(key)
}

func (c *Controller) ClearCredential() {
	c.SetCredential("")
}

// Submit starts a run for up, superseding any run in flight. It returns
// without waiting for the run. On error the caller keeps ownership of up;
// on success the controller releases it on the next Submit or Reset.
func (c *Controller) Submit(ctx context.Context, up *upload.Upload) (*Run, error) {
	if up == nil || !upload.IsVideo(up.MediaType) {
		name := ""
		if up != nil {
			name = up.Name
		}
		return nil, fmt.Errorf("submit %q: %w", name, upload.ErrNotVideo)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opts.Mode == config.ModeTranscribe && c.apiKey == "" {
		return nil, ErrMissingCredential
	}

	c.supersedeLocked(ctx)
	if err := c.moveLocked(StateUploading, uploadCheckpoint); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &Run{ID: uuid.NewString(), done: make(chan struct{})}
	c.cancel = cancel
	c.runID = run.ID
	c.upload = up

	c.log.Info(ctx, "Run %s started: %s (%s, %s)", run.ID, up.Name, up.MediaType, up.SizeMB())
	go c.execute(runCtx, c.gen, run, up, c.apiKey)

	return run, nil
}

// Reset supersedes any run, releases the upload and returns to idle
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.supersedeLocked(ctx)
	c.runID = ""
	c.log.Info(ctx, "Workflow reset")
}

// supersedeLocked invalidates the current run and clears its outputs
func (c *Controller) supersedeLocked(ctx context.Context) {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.upload != nil {
		if err := c.upload.Release(); err != nil {
			c.log.Warn(ctx, "Failed to release upload: %v", err)
		}
		c.upload = nil
	}
	c.segments = nil
	if c.state != StateIdle {
		c.moveLocked(StateIdle, 0)
	}
}

// moveLocked applies a transition and raises progress to at least p
func (c *Controller) moveLocked(to State, p int) error {
	if err := Transition(c.state, to); err != nil {
		return err
	}
	c.state = to
	if to == StateIdle {
		c.progress = 0
		return nil
	}
	if p > c.progress {
		c.progress = p
	}
	return nil
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		RunID:         c.runID,
		Mode:          c.opts.Mode,
		State:         c.state,
		Progress:      c.progress,
		Status:        c.state.Info(),
		Processing:    c.state.Processing(),
		HasCredential: c.apiKey != "",
		Segments:      append([]segment.Segment{}, c.segments...),
	}
	if c.upload != nil {
		s.Upload = &UploadInfo{
			Name:      c.upload.Name,
			Size:      c.upload.Size,
			SizeMB:    c.upload.SizeMB(),
			MediaType: c.upload.MediaType,
		}
	}
	return s
}

func (c *Controller) currentSegments() ([]segment.Segment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.segments) == 0 {
		return nil, ErrNoSegments
	}
	return append([]segment.Segment(nil), c.segments...), nil
}

// ExportSubtitles renders the current segments as SRT
func (c *Controller) ExportSubtitles() (string, error) {
	segs, err := c.currentSegments()
	if err != nil {
		return "", err
	}
	return export.Subtitles(segs), nil
}

// ExportStoryboard renders the current segments as the JSON storyboard
func (c *Controller) ExportStoryboard() ([]byte, error) {
	segs, err := c.currentSegments()
	if err != nil {
		return nil, err
	}
	return export.StoryboardJSON(segs, c.opts.Now())
}

// ExportStoryboardDocx writes the current segments as a DOCX storyboard to path
func (c *Controller) ExportStoryboardDocx(path string) error {
	segs, err := c.currentSegments()
	if err != nil {
		return err
	}
	return export.WriteStoryboardDocx(export.StoryboardTitle, segs, path)
}
