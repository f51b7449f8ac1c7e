package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyentantai21042004/broll-flow/internal/config"
	"github.com/nguyentantai21042004/broll-flow/internal/export"
	"github.com/nguyentantai21042004/broll-flow/internal/segment"
	"github.com/nguyentantai21042004/broll-flow/internal/upload"
)

const (
	uploadCheckpoint   = 10
	completeCheckpoint = 100
)

// runData is what the stages of one run pass along
type runData struct {
	up       *upload.Upload
	apiKey   string
	cues     []segment.Cue
	segments []segment.Segment
}

// stage is one step of a pipeline. The run enters state at progress before
// do is called; a failing do sends the controller to onFail.
type stage struct {
	name     string
	state    State
	progress int
	onFail   State
	do       func(ctx context.Context, rd *runData) error
}

var mockCheckpoints = []struct {
	name     string
	state    State
	progress int
}{
	{"upload", StateUploading, uploadCheckpoint},
	{"extract", StateExtracting, 30},
	{"generate", StateGenerating, 60},
	{"finalize", StateGenerating, 90},
}

func (c *Controller) mockStages() []stage {
	stages := make([]stage, len(mockCheckpoints))
	for i, cp := range mockCheckpoints {
		delay := c.opts.StageDelays[i]
		stages[i] = stage{
			name:     cp.name,
			state:    cp.state,
			progress: cp.progress,
			onFail:   StateIdle,
			do: func(ctx context.Context, rd *runData) error {
				return sleep(ctx, delay)
			},
		}
	}

	last := stages[len(stages)-1].do
	stages[len(stages)-1].do = func(ctx context.Context, rd *runData) error {
		if err := last(ctx, rd); err != nil {
			return err
		}
		rd.segments = segment.MockSegments()
		return nil
	}
	return stages
}

func (c *Controller) externalStages() []stage {
	return []stage{
		{name: "upload", state: StateUploading, progress: uploadCheckpoint, onFail: StateIdle, do: checkUpload},
		{name: "transcribe", state: StateExtracting, progress: 30, onFail: StateIdle, do: c.transcribe},
		{name: "segment", state: StateExtracting, progress: 50, onFail: StateIdle, do: buildSegments},
		{name: "images", state: StateGenerating, progress: 70, onFail: StateIdle, do: c.attachImages},
		{name: "assemble", state: StateGenerating, progress: 90, onFail: StateIdle},
	}
}

func (c *Controller) stages() []stage {
	if c.opts.Mode == config.ModeTranscribe {
		return c.externalStages()
	}
	return c.mockStages()
}

// execute runs the pipeline for one generation and publishes its outcome
func (c *Controller) execute(ctx context.Context, gen uint64, run *Run, up *upload.Upload, apiKey string) {
	defer close(run.done)
	started := time.Now()

	rd := &runData{up: up, apiKey: apiKey}
	for _, st := range c.stages() {
		if !c.advance(gen, st.state, st.progress) {
			run.err = ErrSuperseded
			return
		}
		c.log.Debug(ctx, "Run %s: stage %s (%d%%)", run.ID, st.name, st.progress)

		if st.do == nil {
			continue
		}
		if err := st.do(ctx, rd); err != nil {
			run.err = c.fail(ctx, gen, run, st, err)
			return
		}
	}

	run.err = c.complete(ctx, gen, run, rd)
	if run.err == nil {
		c.log.Info(ctx, "Run %s completed: %d segments in %s", run.ID, len(rd.segments), time.Since(started))
	}
}

// advance moves a live run forward; false means the run was superseded
func (c *Controller) advance(gen uint64, to State, progress int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return false
	}
	if err := c.moveLocked(to, progress); err != nil {
		c.log.Error(context.Background(), "Run %s: %v", c.runID, err)
		return false
	}
	return true
}

func (c *Controller) fail(ctx context.Context, gen uint64, run *Run, st stage, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.log.Debug(ctx, "Run %s: discarding result of superseded run: %v", run.ID, err)
		return ErrSuperseded
	}

	stageErr := &StageError{Stage: st.name, Err: err}
	c.segments = nil
	if moveErr := c.moveLocked(st.onFail, 0); moveErr != nil {
		c.log.Error(ctx, "Run %s: %v", run.ID, moveErr)
	}
	c.releaseCancelLocked()

	c.log.Error(ctx, "Run %s failed: %v", run.ID, stageErr)
	n := failedNotice
	n.RunID = run.ID
	n.Description = stageErr.Error()
	c.notices.Publish(n)

	return stageErr
}

func (c *Controller) complete(ctx context.Context, gen uint64, run *Run, rd *runData) error {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err := c.moveLocked(StateComplete, completeCheckpoint); err != nil {
		c.mu.Unlock()
		return err
	}
	c.segments = rd.segments
	c.releaseCancelLocked()
	n := completeNotice
	n.RunID = run.ID
	c.notices.Publish(n)
	c.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	at := c.opts.Now()
	if c.opts.OutputDir != "" {
		if err := writeOutputs(c.opts.OutputDir, rd.up.Name, rd.segments, at); err != nil {
			c.log.Warn(ctx, "Run %s: failed to write outputs: %v", run.ID, err)
		}
	}
	if c.opts.Recorder != nil {
		if err := c.opts.Recorder.Record(ctx, run.ID, rd.up.Name, c.opts.Mode, rd.segments, at); err != nil {
			c.log.Warn(ctx, "Run %s: failed to record history: %v", run.ID, err)
		}
	}
	return nil
}

// releaseCancelLocked frees the context of a run that has finished
func (c *Controller) releaseCancelLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func checkUpload(_ context.Context, rd *runData) error {
	info, err := os.Stat(rd.up.Path)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("upload is empty")
	}
	return nil
}

func (c *Controller) transcribe(ctx context.Context, rd *runData) error {
	cues, err := c.opts.Transcriber.Transcribe(ctx, rd.up, rd.apiKey)
	if err != nil {
		return err
	}
	rd.cues = cues
	return nil
}

// buildSegments numbers the cues and derives their keywords
func buildSegments(_ context.Context, rd *runData) error {
	if err := segment.Validate(rd.cues); err != nil {
		return err
	}
	segs := make([]segment.Segment, len(rd.cues))
	for i, cue := range rd.cues {
		segs[i] = segment.Segment{
			ID:       segment.ID(i),
			Start:    cue.Start,
			End:      cue.End,
			Text:     cue.Text,
			Keywords: segment.Keywords(cue.Text),
		}
	}
	rd.segments = segs
	return nil
}

// writeOutputs saves the SRT and JSON exports next to each other in dir,
// named after the uploaded file
func writeOutputs(dir, uploadName string, segs []segment.Segment, at time.Time) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(uploadName), filepath.Ext(uploadName))

	srtPath := filepath.Join(dir, base+".srt")
	if err := os.WriteFile(srtPath, []byte(export.Subtitles(segs)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", srtPath, err)
	}

	data, err := export.StoryboardJSON(segs, at)
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(dir, base+".storyboard.json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
