package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential is returned by Submit in transcribe mode without an API key
	ErrMissingCredential = errors.New("transcription API key is not set")
	// ErrNoSegments is returned by exports when there is nothing to export
	ErrNoSegments = errors.New("no segments to export")
	// ErrSuperseded is the result of a run replaced by a newer submit or a reset
	ErrSuperseded = errors.New("run superseded")
)

// StageError reports the pipeline stage a run failed in
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
