package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nguyentantai21042004/broll-flow/internal/segment"
	"github.com/nguyentantai21042004/broll-flow/internal/upload"
)

// ErrEmptyTranscript is returned when the provider yields no usable cues
var ErrEmptyTranscript = errors.New("transcript has no segments")

// Transcribe optionally extracts audio, calls the provider and normalizes the cues
func (t *implTranscriber) Transcribe(ctx context.Context, up *upload.Upload, apiKey string) ([]segment.Cue, error) {
	m := media{Path: up.Path, Name: up.Name, MediaType: up.MediaType}

	if t.cfg.ExtractAudio {
		audioPath, err := t.extractAudio(ctx, up.Path)
		if err != nil {
			return nil, fmt.Errorf("extract audio: %w", err)
		}
		defer t.cleanupTempFile(ctx, audioPath)
		m = media{Path: audioPath, Name: "audio.wav", MediaType: "audio/wav"}
	}

	t.logger.Info(ctx, "Transcribing %s with %s (%s)", up.Name, t.cfg.Provider, t.cfg.Model)

	cues, err := t.provider.transcribe(ctx, m, apiKey)
	if err != nil {
		return nil, fmt.Errorf("%s transcribe: %w", t.cfg.Provider, err)
	}

	cues = normalize(cues)
	if len(cues) == 0 {
		return nil, ErrEmptyTranscript
	}

	t.logger.Info(ctx, "Transcription completed: %d segments", len(cues))
	return cues, nil
}

// normalize trims text, drops empty cues and clamps starts so the sequence
// is non-overlapping and non-decreasing.
func normalize(cues []segment.Cue) []segment.Cue {
	out := make([]segment.Cue, 0, len(cues))
	prevEnd := 0.0

	for _, c := range cues {
		c.Text = strings.TrimSpace(c.Text)
		if c.Text == "" {
			continue
		}
		if c.Start < prevEnd {
			c.Start = prevEnd
		}
		if c.End <= c.Start {
			continue
		}
		out = append(out, c)
		prevEnd = c.End
	}

	return out
}

// cleanupTempFile removes a temporary file, logs warning if fails
func (t *implTranscriber) cleanupTempFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil {
		t.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", filePath, err)
	} else {
		t.logger.Debug(ctx, "Cleaned up temp file: %s", filePath)
	}
}
