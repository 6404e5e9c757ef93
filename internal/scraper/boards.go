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
	remotiveBaseURL = "https://remotive.com"
	remoteOKBaseURL = "https://remoteok.com"
	theMuseBaseURL  = "https://www.themuse.com"
)

// ─── Remotive ────────────────────────────────────────────────────────────────

// Remotive searches the Remotive public API. It queries the first target role
// only, to bound latency.
type Remotive struct {
	BaseURL string
	http    *httpGetter
}

// NewRemotive constructs a Remotive adapter.
func NewRemotive(opts ClientOptions) *Remotive {
	return &Remotive{BaseURL: remotiveBaseURL, http: newHTTPGetter("Remotive", opts)}
}

type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

type remotiveJob struct {
	ID                int    `json:"id"`
	URL               string `json:"url"`
	Title             string `json:"title"`
	CompanyName       string `json:"company_name"`
	Category          string `json:"category"`
	JobType           string `json:"job_type"`
	PublicationDate   string `json:"publication_date"`
	CandidateLocation string `json:"candidate_required_location"`
	Description       string `json:"description"`
}

// Info implements Source.
func (r *Remotive) Info() model.SourceInfo {
	return model.SourceInfo{Name: "Remotive", Kind: model.SourceKindAPI, DefaultLocation: "Remote"}
}

// Fetch implements Source.
func (r *Remotive) Fetch(ctx context.Context, c model.Criteria) ([]model.RawPosting, error) {
	roles := queryRoles(c, 1)
	if len(roles) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("search", roles[0])
	params.Set("limit", strconv.Itoa(MaxBoardResults))
	endpoint := strings.TrimRight(r.BaseURL, "/") + "/api/remote-jobs?" + params.Encode()

	var resp remotiveResponse
	if err := r.http.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	jobs := resp.Jobs
	if len(jobs) > MaxBoardResults {
		jobs = jobs[:MaxBoardResults]
	}
	out := make([]model.RawPosting, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, model.RawPosting{
			ExternalID:      strconv.Itoa(j.ID),
			Title:           j.Title,
			Company:         j.CompanyName,
			Description:     j.Description,
			Location:        remoteLocation(j.CandidateLocation),
			WorkArrangement: "Remote",
			URL:             j.URL,
			Posted:          j.PublicationDate,
		})
	}
	return out, nil
}

// ─── RemoteOK ────────────────────────────────────────────────────────────────

// RemoteOK reads the RemoteOK public feed once and keeps, per target role, the
// first listings whose position or tags mention the role's keywords. A listing
// matching several roles is emitted once.
type RemoteOK struct {
	BaseURL string
	http    *httpGetter
}

// NewRemoteOK constructs a RemoteOK adapter.
func NewRemoteOK(opts ClientOptions) *RemoteOK {
	return &RemoteOK{BaseURL: remoteOKBaseURL, http: newHTTPGetter("RemoteOK", opts)}
}

// remoteOKJob mirrors one element of the RemoteOK API array. The first
// element is a legal notice without an id.
type remoteOKJob struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
}

// Info implements Source.
func (r *RemoteOK) Info() model.SourceInfo {
	return model.SourceInfo{Name: "RemoteOK", Kind: model.SourceKindAPI, DefaultLocation: "Remote"}
}

// Fetch implements Source.
func (r *RemoteOK) Fetch(ctx context.Context, c model.Criteria) ([]model.RawPosting, error) {
	var jobs []remoteOKJob
	if err := r.http.getJSON(ctx, strings.TrimRight(r.BaseURL, "/")+"/api", nil, &jobs); err != nil {
		return nil, err
	}

	var out []model.RawPosting
	emitted := make(map[string]struct{})
	for _, role := range queryRoles(c, MaxQueryRoles) {
		keywords := KeywordSet([]string{role})
		kept := 0
		for _, j := range jobs {
			if kept == MaxBoardResults {
				break
			}
			if j.ID == "" || j.Position == "" {
				continue
			}
			if _, dup := emitted[j.ID]; dup {
				continue
			}
			if !MatchesKeywords(j.Position, strings.Join(j.Tags, " "), keywords) {
				continue
			}
			emitted[j.ID] = struct{}{}
			kept++
			out = append(out, model.RawPosting{
				ExternalID:      j.ID,
				Title:           j.Position,
				Company:         j.Company,
				Description:     j.Description,
				Location:        remoteLocation(j.Location),
				WorkArrangement: "Remote",
				URL:             j.URL,
				Posted:          j.Date,
			})
		}
	}
	return out, nil
}

// ─── The Muse ────────────────────────────────────────────────────────────────

// TheMuse lists executive and senior-level openings from The Muse public API
// with a single request and keeps, per target role (up to MaxQueryRoles), the
// first listings whose name mentions the role's keywords. A listing matching
// several roles is emitted once.
type TheMuse struct {
	APIKey  string
	BaseURL string
	http    *httpGetter
}

// NewTheMuse constructs a The Muse adapter. apiKey is optional.
func NewTheMuse(apiKey string, opts ClientOptions) *TheMuse {
	return &TheMuse{APIKey: apiKey, BaseURL: theMuseBaseURL, http: newHTTPGetter("The Muse", opts)}
}

type museResponse struct {
	Results []museJob `json:"results"`
}

type museJob struct {
	ID              int         `json:"id"`
	Name            string      `json:"name"`
	Contents        string      `json:"contents"`
	PublicationDate string      `json:"publication_date"`
	Locations       []museNamed `json:"locations"`
	Company         museNamed   `json:"company"`
	Refs            museRefs    `json:"refs"`
}

type museNamed struct {
	Name string `json:"name"`
}

type museRefs struct {
	LandingPage string `json:"landing_page"`
}

// Info implements Source.
func (m *TheMuse) Info() model.SourceInfo {
	return model.SourceInfo{Name: "The Muse", Kind: model.SourceKindAPI, DefaultLocation: "US"}
}

// Fetch implements Source.
func (m *TheMuse) Fetch(ctx context.Context, c model.Criteria) ([]model.RawPosting, error) {
	params := url.Values{}
	params.Set("page", "0")
	params.Set("descending", "true")
	params.Add("level", "Executive")
	params.Add("level", "Senior Level")
	if m.APIKey != "" {
		params.Set("api_key", m.APIKey)
	}
	endpoint := strings.TrimRight(m.BaseURL, "/") + "/api/public/jobs?" + params.Encode()

	var resp museResponse
	if err := m.http.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	var out []model.RawPosting
	emitted := make(map[int]struct{})
	for _, role := range queryRoles(c, MaxQueryRoles) {
		keywords := KeywordSet([]string{role})
		kept := 0
		for _, j := range resp.Results {
			if kept == MaxBoardResults {
				break
			}
			if _, dup := emitted[j.ID]; dup {
				continue
			}
			if !MatchesKeywords(j.Name, "", keywords) {
				continue
			}
			emitted[j.ID] = struct{}{}
			kept++
			out = append(out, model.RawPosting{
				ExternalID:  fmt.Sprintf("muse-%d", j.ID),
				Title:       j.Name,
				Company:     j.Company.Name,
				Description: j.Contents,
				Location:    museLocation(j.Locations),
				URL:         j.Refs.LandingPage,
				Posted:      j.PublicationDate,
			})
		}
	}
	return out, nil
}

func museLocation(locs []museNamed) string {
	names := make([]string, 0, len(locs))
	for _, l := range locs {
		if l.Name != "" {
			names = append(names, l.Name)
		}
	}
	return strings.Join(names, "; ")
}

// remoteLocation prefixes a region restriction with "Remote" so that remote
// boards are recognised as remote by the location gate ("USA" → "Remote (USA)").
func remoteLocation(region string) string {
	region = strings.TrimSpace(region)
	switch {
	case region == "":
		return ""
	case strings.Contains(strings.ToLower(region), "remote"):
		return region
	}
	return "Remote (" + region + ")"
}
