package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nguyentantai21042004/broll-flow/internal/segment"
)

const (
	StoryboardFilename = "storyboard.json"
	StoryboardMIME     = "application/json"
	StoryboardTitle    = "B-roll Storyboard"

	isoMillis = "2006-01-02T15:04:05.000Z"
)

// Storyboard is the exported JSON document
type Storyboard struct {
	Title     string            `json:"title"`
	Timestamp string            `json:"timestamp"`
	Segments  []StoryboardEntry `json:"segments"`
}

type StoryboardEntry struct {
	TimeRange   string   `json:"timeRange"`
	Text        string   `json:"text"`
	Keywords    []string `json:"keywords"`
	BrollImage  string   `json:"brollImage,omitempty"`
	Suggestions []string `json:"suggestions"`
}

// formatSeconds renders raw seconds in shortest form: 0, 3.5, 8.2
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TimeRange renders "{start}s - {end}s"
func TimeRange(start, end float64) string {
	return fmt.Sprintf("%ss - %ss", formatSeconds(start), formatSeconds(end))
}

// Suggestions maps each keyword to a stock footage hint
func Suggestions(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = "Stock footage: " + kw
	}
	return out
}

// BuildStoryboard assembles the document for segments generated at now
func BuildStoryboard(segments []segment.Segment, now time.Time) Storyboard {
	sb := Storyboard{
		Title:     StoryboardTitle,
		Timestamp: now.UTC().Format(isoMillis),
		Segments:  make([]StoryboardEntry, 0, len(segments)),
	}

	for _, s := range segments {
		keywords := s.Keywords
		if keywords == nil {
			keywords = []string{}
		}
		sb.Segments = append(sb.Segments, StoryboardEntry{
			TimeRange:   TimeRange(s.Start, s.End),
			Text:        s.Text,
			Keywords:    keywords,
			BrollImage:  s.Image,
			Suggestions: Suggestions(keywords),
		})
	}

	return sb
}

// StoryboardJSON renders the storyboard with two-space indentation
func StoryboardJSON(segments []segment.Segment, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildStoryboard(segments, now)); err != nil {
		return nil, fmt.Errorf("encode storyboard: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
