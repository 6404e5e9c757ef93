package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"jobmate/exec-discovery/internal/model"
)

const serpAPIBaseURL = "https://serpapi.com"

// SerpAPI queries Google Jobs through SerpApi, one request per target role.
type SerpAPI struct {
	APIKey  string
	BaseURL string
	http    *httpGetter
}

// NewSerpAPI constructs a SerpApi Google Jobs adapter.
func NewSerpAPI(apiKey string, opts ClientOptions) *SerpAPI {
	return &SerpAPI{APIKey: apiKey, BaseURL: serpAPIBaseURL, http: newHTTPGetter("SerpApi", opts)}
}

type serpResponse struct {
	Error       string       `json:"error"`
	JobsResults []serpResult `json:"jobs_results"`
}

type serpResult struct {
	JobID              string         `json:"job_id"`
	Title              string         `json:"title"`
	CompanyName        string         `json:"company_name"`
	Location           string         `json:"location"`
	Description        string         `json:"description"`
	ShareLink          string         `json:"share_link"`
	ApplyOptions       []serpLink     `json:"apply_options"`
	DetectedExtensions serpExtensions `json:"detected_extensions"`
}

type serpLink struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

type serpExtensions struct {
	PostedAt     string `json:"posted_at"`
	ScheduleType string `json:"schedule_type"`
	WorkFromHome bool   `json:"work_from_home"`
}

// Info implements Source.
func (s *SerpAPI) Info() model.SourceInfo {
	return model.SourceInfo{Name: "Google Jobs", Kind: model.SourceKindAPI, DefaultLocation: "US"}
}

// Fetch implements Source.
func (s *SerpAPI) Fetch(ctx context.Context, c model.Criteria) ([]model.RawPosting, error) {
	var out []model.RawPosting
	for _, role := range queryRoles(c, MaxQueryRoles) {
		params := url.Values{}
		params.Set("engine", "google_jobs")
		params.Set("q", role)
		if loc := firstLocation(c); loc != "" {
			params.Set("location", loc)
		}
		params.Set("api_key", s.APIKey)
		endpoint := strings.TrimRight(s.BaseURL, "/") + "/search.json?" + params.Encode()

		var resp serpResponse
		if err := s.http.getJSON(ctx, endpoint, nil, &resp); err != nil {
			return nil, fmt.Errorf("role %q: %w", role, err)
		}
		if resp.Error != "" && len(resp.JobsResults) == 0 && !strings.Contains(resp.Error, "hasn't returned any results") {
			return nil, &SourceError{Source: "SerpApi", Kind: KindUnavailable, Cause: fmt.Errorf("role %q: %s", role, resp.Error)}
		}

		for _, r := range resp.JobsResults {
			arrangement := r.DetectedExtensions.ScheduleType
			if r.DetectedExtensions.WorkFromHome {
				arrangement = "Remote"
			}
			out = append(out, model.RawPosting{
				ExternalID:      r.JobID,
				Title:           r.Title,
				Company:         r.CompanyName,
				Description:     r.Description,
				Location:        r.Location,
				WorkArrangement: arrangement,
				URL:             serpLinkFor(r),
				Posted:          r.DetectedExtensions.PostedAt,
			})
		}
	}
	return out, nil
}

// serpLinkFor prefers the first apply link over the Google share link.
func serpLinkFor(r serpResult) string {
	for _, opt := range r.ApplyOptions {
		if opt.Link != "" {
			return opt.Link
		}
	}
	return r.ShareLink
}
