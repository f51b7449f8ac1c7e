package workflow

import (
	"context"
	"sync"

	"github.com/nguyentantai21042004/broll-flow/internal/photos"
	"github.com/nguyentantai21042004/broll-flow/internal/segment"
)

// attachImages searches one photo per segment with at most MaxConcurrent
// requests in flight. Each goroutine writes only its own slot. Search
// failures fall back to the keyword image URL.
func (c *Controller) attachImages(ctx context.Context, rd *runData) error {
	sem := newSemaphore(c.opts.MaxConcurrent)
	var wg sync.WaitGroup

	for i := range rd.segments {
		seg := &rd.segments[i]
		query := segment.ImageQuery(seg.Text, seg.Keywords, segment.DefaultQueryRules, c.opts.FallbackTerm)

		if err := sem.acquire(ctx); err != nil {
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.release()
			seg.Image = c.searchImage(ctx, seg.ID, query)
		}()
	}

	wg.Wait()
	return ctx.Err()
}

func (c *Controller) searchImage(ctx context.Context, id, query string) string {
	if c.opts.Searcher == nil {
		return photos.FallbackURL(query)
	}
	url, err := c.opts.Searcher.Search(ctx, query)
	if err != nil || url == "" {
		c.log.Debug(ctx, "Image search for %s (%q) fell back: %v", id, query, err)
		return photos.FallbackURL(query)
	}
	return url
}
