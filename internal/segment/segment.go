// Package segment holds the transcript segment model and the rules that
// derive keywords and image search queries from segment text.
package segment

import "fmt"

// Cue is one timestamped piece of transcript as returned by a transcriber
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Segment is a cue enriched with keywords and an optional B-roll image.
// Segments are built once per run and never modified afterwards.
type Segment struct {
	ID       string   `json:"id"`
	Start    float64  `json:"startTime"`
	End      float64  `json:"endTime"`
	Text     string   `json:"text"`
	Keywords []string `json:"keywords"`
	Image    string   `json:"brollImage,omitempty"`
}

// ID returns the identifier of the segment at position index
func ID(index int) string {
	return fmt.Sprintf("segment-%d", index)
}

// Validate checks ordering invariants across an ordered cue list
func Validate(cues []Cue) error {
	prevEnd := 0.0
	for i, c := range cues {
		if c.Start < 0 || c.End <= c.Start {
			return fmt.Errorf("cue %d: start %.3f must be before end %.3f", i, c.Start, c.End)
		}
		if c.Start < prevEnd {
			return fmt.Errorf("cue %d: start %.3f overlaps previous end %.3f", i, c.Start, prevEnd)
		}
		prevEnd = c.End
	}
	return nil
}
