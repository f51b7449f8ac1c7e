package workflow

import (
	"sync"
	"time"
)

// NoticeKind classifies a user-visible notice
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a sequenced message for the display layer
type Notice struct {
	Seq         int64      `json:"seq"`
	Timestamp   time.Time  `json:"timestamp"`
	RunID       string     `json:"runId,omitempty"`
	Kind        NoticeKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

var (
	completeNotice = Notice{
		Kind:        NoticeSuccess,
		Title:       "Processing Complete! 🎉",
		Description: "Your B-roll suggestions are ready to view.",
	}
	failedNotice = Notice{
		Kind:  NoticeError,
		Title: "Processing Failed",
	}

	// SubtitlesSaved is published after the SRT export is delivered
	SubtitlesSaved = Notice{
		Kind:        NoticeSuccess,
		Title:       "SRT Downloaded",
		Description: "Subtitle file has been saved to your device.",
	}
	// StoryboardSaved is published after the JSON storyboard is delivered
	StoryboardSaved = Notice{
		Kind:        NoticeSuccess,
		Title:       "Storyboard Exported",
		Description: "Your B-roll storyboard has been saved as JSON.",
	}
	// StoryboardDocxSaved is published after the DOCX storyboard is delivered
	StoryboardDocxSaved = Notice{
		Kind:        NoticeSuccess,
		Title:       "Storyboard Exported",
		Description: "Your B-roll storyboard has been saved as DOCX.",
	}
)

// NoticeBus keeps the most recent notices for incremental reads
type NoticeBus struct {
	mu         sync.RWMutex
	nextSeq    int64
	maxNotices int
	notices    []Notice
}

// NewNoticeBus creates a bounded buffer; maxNotices <= 0 means 100
func NewNoticeBus(maxNotices int) *NoticeBus {
	if maxNotices <= 0 {
		maxNotices = 100
	}
	return &NoticeBus{
		maxNotices: maxNotices,
		notices:    make([]Notice, 0, maxNotices),
	}
}

// Publish assigns the sequence number and timestamp and stores n
func (b *NoticeBus) Publish(n Notice) Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	n.Seq = b.nextSeq
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}

	b.notices = append(b.notices, n)
	if len(b.notices) > b.maxNotices {
		trim := len(b.notices) - b.maxNotices
		b.notices = append([]Notice(nil), b.notices[trim:]...)
	}
	return n
}

// Since returns notices with a sequence strictly greater than seq
func (b *NoticeBus) Since(seq int64) []Notice {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Notice, 0, len(b.notices))
	for _, n := range b.notices {
		if n.Seq > seq {
			out = append(out, n)
		}
	}
	return out
}
