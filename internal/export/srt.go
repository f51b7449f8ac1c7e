// Package export renders a segment list into downloadable formats.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/nguyentantai21042004/broll-flow/internal/segment"
)

const (
	SubtitlesFilename = "subtitles.srt"
	SubtitlesMIME     = "text/plain"
)

// toMillis floors seconds to whole milliseconds. The epsilon absorbs binary
// representation error so 8.2 maps to 8200 and not 8199.
func toMillis(seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}
	return int64(math.Floor(seconds*1000 + 1e-6))
}

// Timestamp formats seconds as HH:MM:SS,mmm, flooring at every unit
func Timestamp(seconds float64) string {
	ms := toMillis(seconds)
	hours := ms / 3_600_000
	mins := (ms % 3_600_000) / 60_000
	secs := (ms % 60_000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, mins, secs, ms%1000)
}

// ClockTime formats seconds as m:ss for timeline display
func ClockTime(seconds float64) string {
	total := toMillis(seconds) / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Subtitles renders segments as SRT cues. An empty list yields "".
func Subtitles(segments []segment.Segment) string {
	blocks := make([]string, len(segments))
	for i, s := range segments {
		blocks[i] = fmt.Sprintf("%d\n%s --> %s\n%s\n", i+1, Timestamp(s.Start), Timestamp(s.End), s.Text)
	}
	return strings.Join(blocks, "\n")
}
