package photos

import (
	"net/http"
	"strings"
	"time"

	"github.com/nguyentantai21042004/broll-flow/internal/logger"
)

type implSearcher struct {
	baseURL   string
	accessKey string
	client    *http.Client
	logger    logger.Logger
}

// New creates an Unsplash Searcher. An empty accessKey makes every search
// return ErrNoResult without touching the network.
func New(baseURL, accessKey string, log logger.Logger) Searcher {
	return &implSearcher{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    log,
	}
}
