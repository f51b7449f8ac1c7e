package photos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrNoResult means the query produced no usable photo
var ErrNoResult = errors.New("no photo found")

type searchResp struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Search returns the regular-size URL of the first landscape result
func (s *implSearcher) Search(ctx context.Context, query string) (string, error) {
	if s.accessKey == "" {
		return "", ErrNoResult
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "1")
	q.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+s.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search photos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("unsplash http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var sr searchResp
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if len(sr.Results) == 0 || sr.Results[0].URLs.Regular == "" {
		return "", ErrNoResult
	}

	s.logger.Debug(ctx, "Photo for %q: %s", query, sr.Results[0].URLs.Regular)
	return sr.Results[0].URLs.Regular, nil
}
