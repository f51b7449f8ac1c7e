package photos

import "context"

// Searcher resolves an image search query to one photo URL
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}
