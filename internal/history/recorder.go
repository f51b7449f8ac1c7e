package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/broll-flow/internal/export"
	"github.com/nguyentantai21042004/broll-flow/internal/segment"
)

// Record stores a completed run together with its storyboard export
func (s *Store) Record(ctx context.Context, runID, fileName, mode string, segments []segment.Segment, at time.Time) error {
	storyboard, err := export.StoryboardJSON(segments, at)
	if err != nil {
		return err
	}
	return s.Save(ctx, Record{
		ID:           uuid.NewString(),
		RunID:        runID,
		FileName:     fileName,
		Mode:         mode,
		SegmentCount: len(segments),
		CreatedAt:    at,
		Storyboard:   string(storyboard),
	})
}
