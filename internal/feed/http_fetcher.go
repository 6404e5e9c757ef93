package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxFeedBody bounds how much of a feed response is read.
const maxFeedBody = 5 << 20

// FetchResponse is the outcome of one feed GET.
type FetchResponse struct {
	StatusCode int
	Body       string
}

// HTTPFetcher retrieves a feed body.
type HTTPFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResponse, error)
}

// DefaultHTTPFetcher implements HTTPFetcher using net/http.
type DefaultHTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates an HTTPFetcher backed by the given http.Client.
func NewHTTPFetcher(client *http.Client, userAgent string) *DefaultHTTPFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &DefaultHTTPFetcher{client: client, userAgent: userAgent}
}

// Fetch performs an HTTP GET and returns the status code and body. Transport
// failures are returned as errors; non-200 statuses are not.
func (f *DefaultHTTPFetcher) Fetch(ctx context.Context, url string) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("http fetcher new request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("http fetcher do request: %w", doErr)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if readErr != nil {
		return nil, fmt.Errorf("http fetcher read body: %w", readErr)
	}

	return &FetchResponse{StatusCode: resp.StatusCode, Body: string(raw)}, nil
}
