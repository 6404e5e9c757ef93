package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"jobmate/exec-discovery/internal/model"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 20
)

// Adzuna queries the Adzuna search API, one request per target role.
type Adzuna struct {
	AppID   string
	AppKey  string
	Country string // "us", "gb", "fr", …
	BaseURL string
	http    *httpGetter
}

// NewAdzuna constructs an Adzuna adapter.
func NewAdzuna(appID, appKey, country string, opts ClientOptions) *Adzuna {
	if country == "" {
		country = "us"
	}
	return &Adzuna{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		BaseURL: adzunaBaseURL,
		http:    newHTTPGetter("Adzuna", opts),
	}
}

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Company      adzunaCompany  `json:"company"`
	Location     adzunaLocation `json:"location"`
	RedirectURL  string         `json:"redirect_url"`
	Created      string         `json:"created"`
	ContractTime string         `json:"contract_time"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Info implements Source.
func (a *Adzuna) Info() model.SourceInfo {
	return model.SourceInfo{Name: "Adzuna", Kind: model.SourceKindAPI, DefaultLocation: "US"}
}

// Fetch implements Source.
func (a *Adzuna) Fetch(ctx context.Context, c model.Criteria) ([]model.RawPosting, error) {
	var out []model.RawPosting
	for _, role := range queryRoles(c, MaxQueryRoles) {
		batch, err := a.fetchRole(ctx, role, firstLocation(c))
		if err != nil {
			return nil, fmt.Errorf("role %q: %w", role, err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (a *Adzuna) fetchRole(ctx context.Context, role, location string) ([]model.RawPosting, error) {
	params := url.Values{}
	params.Set("app_id", a.AppID)
	params.Set("app_key", a.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", role)
	if location != "" {
		params.Set("where", location)
	}
	params.Set("content-type", "application/json")
	params.Set("sort_by", "date")

	endpoint := fmt.Sprintf("%s/%s/search/1?%s", strings.TrimRight(a.BaseURL, "/"), a.Country, params.Encode())

	var resp adzunaResponse
	if err := a.http.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	results := make([]model.RawPosting, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, model.RawPosting{
			ExternalID:      r.ID,
			Title:           r.Title,
			Company:         r.Company.DisplayName,
			Description:     r.Description,
			Location:        r.Location.DisplayName,
			WorkArrangement: contractTime(r.ContractTime),
			URL:             r.RedirectURL,
			Posted:          r.Created,
		})
	}
	return results, nil
}

// contractTime maps Adzuna's contract_time values to a work arrangement tag.
func contractTime(v string) string {
	switch v {
	case "full_time":
		return "Full-time"
	case "part_time":
		return "Part-time"
	}
	return ""
}
