package transcriber

import (
	"context"

	"github.com/nguyentantai21042004/broll-flow/internal/segment"
	"github.com/nguyentantai21042004/broll-flow/internal/upload"
)

// Transcriber turns an uploaded video into timestamped cues.
// The API key is passed per call and never retained.
type Transcriber interface {
	Transcribe(ctx context.Context, up *upload.Upload, apiKey string) ([]segment.Cue, error)
}

// media is what a provider sends to its speech-to-text API
type media struct {
	Path      string
	Name      string
	MediaType string
}

// provider is one speech-to-text backend
type provider interface {
	transcribe(ctx context.Context, m media, apiKey string) ([]segment.Cue, error)
}
