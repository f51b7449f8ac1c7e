package workflow

import "fmt"

// State is the processing state of the controller
type State string

const (
	StateIdle       State = "idle"
	StateUploading  State = "uploading"
	StateExtracting State = "extracting"
	StateGenerating State = "generating"
	StateComplete   State = "complete"
)

// transitions lists every allowed edge. Re-entering the current state is
// always allowed and only moves progress.
var transitions = map[State][]State{
	StateIdle:       {StateUploading},
	StateUploading:  {StateExtracting, StateIdle},
	StateExtracting: {StateGenerating, StateIdle},
	StateGenerating: {StateComplete, StateIdle},
	StateComplete:   {StateIdle},
}

// Transition validates the edge from -> to
func Transition(from, to State) error {
	if from == to {
		if _, ok := transitions[from]; ok {
			return nil
		}
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("invalid transition: %s -> %s", from, to)
}

// Processing reports whether a run is active in this state
func (s State) Processing() bool {
	switch s {
	case StateUploading, StateExtracting, StateGenerating:
		return true
	default:
		return false
	}
}

// StatusInfo is the display text for a state
type StatusInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

var statusInfo = map[State]StatusInfo{
	StateUploading:  {"Processing Video", "Analyzing your video content..."},
	StateExtracting: {"Extracting Subtitles", "Using AI to transcribe audio content..."},
	StateGenerating: {"Generating B-roll", "Creating contextual image suggestions..."},
	StateComplete:   {"Processing Complete!", "Your B-roll suggestions are ready."},
}

// Info returns the status text; idle has none
func (s State) Info() StatusInfo {
	return statusInfo[s]
}
