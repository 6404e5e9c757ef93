package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"jobmate/exec-discovery/internal/model"
)

const (
	jsearchBaseURL = "https://jsearch.p.rapidapi.com"
	jsearchHost    = "jsearch.p.rapidapi.com"
)

// JSearch queries the JSearch API on RapidAPI, one request per target role.
type JSearch struct {
	APIKey  string
	BaseURL string
	http    *httpGetter
}

// NewJSearch constructs a JSearch adapter.
func NewJSearch(apiKey string, opts ClientOptions) *JSearch {
	return &JSearch{APIKey: apiKey, BaseURL: jsearchBaseURL, http: newHTTPGetter("JSearch", opts)}
}

type jsearchResponse struct {
	Status string          `json:"status"`
	Data   []jsearchResult `json:"data"`
}

type jsearchResult struct {
	JobID               string `json:"job_id"`
	Title               string `json:"job_title"`
	EmployerName        string `json:"employer_name"`
	EmployerType        string `json:"employer_company_type"`
	Description         string `json:"job_description"`
	City                string `json:"job_city"`
	State               string `json:"job_state"`
	Country             string `json:"job_country"`
	IsRemote            bool   `json:"job_is_remote"`
	EmploymentType      string `json:"job_employment_type"`
	ApplyLink           string `json:"job_apply_link"`
	PostedAtDatetimeUTC string `json:"job_posted_at_datetime_utc"`
}

// Info implements Source.
func (j *JSearch) Info() model.SourceInfo {
	return model.SourceInfo{Name: "JSearch", Kind: model.SourceKindAPI, DefaultLocation: "US"}
}

// Fetch implements Source.
func (j *JSearch) Fetch(ctx context.Context, c model.Criteria) ([]model.RawPosting, error) {
	var out []model.RawPosting
	for _, role := range queryRoles(c, MaxQueryRoles) {
		query := role
		if loc := firstLocation(c); loc != "" {
			query = role + " in " + loc
		}

		params := url.Values{}
		params.Set("query", query)
		params.Set("page", "1")
		params.Set("num_pages", "1")
		endpoint := strings.TrimRight(j.BaseURL, "/") + "/search?" + params.Encode()

		var resp jsearchResponse
		err := j.http.getJSON(ctx, endpoint, map[string]string{
			"X-RapidAPI-Key":  j.APIKey,
			"X-RapidAPI-Host": jsearchHost,
		}, &resp)
		if err != nil {
			return nil, fmt.Errorf("role %q: %w", role, err)
		}

		for _, r := range resp.Data {
			out = append(out, model.RawPosting{
				ExternalID:      r.JobID,
				Title:           r.Title,
				Company:         r.EmployerName,
				Description:     r.Description,
				Location:        joinLocation(r.City, r.State),
				WorkArrangement: jsearchArrangement(r),
				Industry:        r.EmployerType,
				URL:             r.ApplyLink,
				Posted:          r.PostedAtDatetimeUTC,
			})
		}
	}
	return out, nil
}

func jsearchArrangement(r jsearchResult) string {
	if r.IsRemote {
		return "Remote"
	}
	switch r.EmploymentType {
	case "FULLTIME":
		return "Full-time"
	case "PARTTIME":
		return "Part-time"
	case "CONTRACTOR":
		return "Contract"
	}
	return ""
}

// joinLocation renders "City, ST", dropping empty parts.
func joinLocation(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
