// Package scraper implements the source adapters that fetch job offers from
// external search APIs and public job boards.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"jobmate/exec-discovery/internal/model"
)

// MaxQueryRoles caps the number of target roles a query API adapter searches
// per invocation, bounding outbound call volume.
const MaxQueryRoles = 3

// MaxBoardResults caps the number of results a public board adapter keeps per
// role.
const MaxBoardResults = 10

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "jobmate-discovery/1.0"
	maxErrorBody     = 512
)

// Source fetches raw postings from one external surface. Implementations must
// not deduplicate or score.
type Source interface {
	Info() model.SourceInfo
	Fetch(ctx context.Context, criteria model.Criteria) ([]model.RawPosting, error)
}

// ErrorKind classifies source failures for the run report.
type ErrorKind string

const (
	KindUnavailable ErrorKind = "source_unavailable"
	KindAuth        ErrorKind = "auth_error"
	KindRateLimited ErrorKind = "rate_limited"
	KindMalformed   ErrorKind = "malformed_response"
)

// SourceError is a classified adapter failure.
type SourceError struct {
	Source     string
	Kind       ErrorKind
	StatusCode int
	Cause      error
}

func (e *SourceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %v", e.Source, e.Kind, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Cause)
}

func (e *SourceError) Unwrap() error { return e.Cause }

// ClassifyHTTPStatus builds a SourceError from a non-200 response.
func ClassifyHTTPStatus(source string, statusCode int, body []byte) *SourceError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	cause := fmt.Errorf("unexpected status %d: %s", statusCode, body)

	kind := KindUnavailable
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindAuth
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	}
	return &SourceError{Source: source, Kind: kind, StatusCode: statusCode, Cause: cause}
}

// ClassifyTransportError wraps a network-level failure (DNS, reset, timeout).
func ClassifyTransportError(source string, err error) *SourceError {
	return &SourceError{Source: source, Kind: KindUnavailable, Cause: err}
}

// KindOf returns the ErrorKind of err, or "" when err is not a SourceError.
func KindOf(err error) ErrorKind {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// ClientOptions configures the HTTP behaviour shared by every adapter.
type ClientOptions struct {
	HTTPClient *http.Client
	// Timeout bounds each outbound call.
	Timeout time.Duration
	// RatePerSecond limits outbound calls per adapter; 0 disables limiting.
	RatePerSecond float64
	UserAgent     string
}

// httpGetter performs rate-limited, deadline-bounded GET requests.
type httpGetter struct {
	source    string
	client    *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	userAgent string
}

func newHTTPGetter(source string, opts ClientOptions) *httpGetter {
	g := &httpGetter{
		source:    source,
		client:    opts.HTTPClient,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if g.userAgent == "" {
		g.userAgent = defaultUserAgent
	}
	if opts.RatePerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return g
}

// getJSON issues a GET to reqURL and decodes a 200 JSON body into out.
func (g *httpGetter) getJSON(ctx context.Context, reqURL string, headers map[string]string, out any) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return ClassifyTransportError(g.source, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", g.source, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return ClassifyTransportError(g.source, fmt.Errorf("http GET: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ClassifyTransportError(g.source, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return ClassifyHTTPStatus(g.source, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &SourceError{Source: g.source, Kind: KindMalformed, Cause: fmt.Errorf("json unmarshal: %w", err)}
	}
	return nil
}

// queryRoles returns at most n target roles in their configured order.
func queryRoles(c model.Criteria, n int) []string {
	if len(c.TargetRoles) <= n {
		return c.TargetRoles
	}
	return c.TargetRoles[:n]
}

// firstLocation returns the first preferred location, or "" when none is set.
func firstLocation(c model.Criteria) string {
	if len(c.PreferredLocations) == 0 {
		return ""
	}
	return c.PreferredLocations[0]
}
