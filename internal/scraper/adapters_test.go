package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobmate/exec-discovery/internal/model"
)

func serveJSON(t *testing.T, handler func(r *http.Request) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code, body := handler(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAdzuna_OneRequestPerRoleCappedAtThree(t *testing.T) {
	var calls atomic.Int32
	srv := serveJSON(t, func(r *http.Request) (int, string) {
		calls.Add(1)
		assert.Equal(t, "/us/search/1", r.URL.Path)
		assert.Equal(t, "id", r.URL.Query().Get("app_id"))
		assert.Equal(t, "New York, NY", r.URL.Query().Get("where"))
		what := r.URL.Query().Get("what")
		return 200, fmt.Sprintf(`{"count":1,"results":[{"id":"%s-1","title":"%s","description":"d",
			"company":{"display_name":"Acme"},"location":{"display_name":"New York, NY"},
			"redirect_url":"https://adzuna.example/%s","created":"2024-05-01T10:00:00Z","contract_time":"full_time"}]}`,
			what, what, strings.ReplaceAll(what, " ", "-"))
	})

	a := NewAdzuna("id", "key", "", ClientOptions{})
	a.BaseURL = srv.URL
	got, err := a.Fetch(context.Background(), testCriteria("CTO", "VP Engineering", "Head of Design", "CIO"))
	require.NoError(t, err)

	assert.EqualValues(t, 3, calls.Load())
	require.Len(t, got, 3)
	assert.Equal(t, "CTO", got[0].Title)
	assert.Equal(t, "Acme", got[0].Company)
	assert.Equal(t, "Full-time", got[0].WorkArrangement)
	assert.Equal(t, "https://adzuna.example/CTO", got[0].URL)
}

func TestAdzuna_AbortsOnFirstFailedRole(t *testing.T) {
	var calls atomic.Int32
	srv := serveJSON(t, func(*http.Request) (int, string) {
		calls.Add(1)
		return http.StatusUnauthorized, `{"exception":"AUTH_FAIL"}`
	})

	a := NewAdzuna("id", "bad", "gb", ClientOptions{})
	a.BaseURL = srv.URL
	got, err := a.Fetch(context.Background(), testCriteria("CTO", "CIO"))
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestJSearch_SendsRapidAPIHeadersAndMapsFields(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) (int, string) {
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "CTO in New York, NY", r.URL.Query().Get("query"))
		return 200, `{"status":"OK","data":[{"job_id":"j1","job_title":"Chief Technology Officer",
			"employer_name":"Beta","employer_company_type":"Computer Services","job_description":"lead",
			"job_city":"New York","job_state":"NY","job_is_remote":true,
			"job_apply_link":"https://beta.example/apply","job_posted_at_datetime_utc":"2024-05-02T00:00:00.000Z"}]}`
	})

	j := NewJSearch("secret", ClientOptions{})
	j.BaseURL = srv.URL
	got, err := j.Fetch(context.Background(), testCriteria("CTO"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New York, NY", got[0].Location)
	assert.Equal(t, "Remote", got[0].WorkArrangement)
	assert.Equal(t, "Computer Services", got[0].Industry)
	assert.Equal(t, "https://beta.example/apply", got[0].URL)
}

func TestSerpAPI_PrefersApplyLinkAndFlagsRemote(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) (int, string) {
		assert.Equal(t, "google_jobs", r.URL.Query().Get("engine"))
		return 200, `{"jobs_results":[{"job_id":"g1","title":"VP Product","company_name":"Gamma",
			"location":"Austin, TX","description":"d","share_link":"https://google.example/share",
			"apply_options":[{"title":"Gamma","link":"https://gamma.example/jobs/1"}],
			"detected_extensions":{"posted_at":"3 days ago","work_from_home":true}}]}`
	})

	s := NewSerpAPI("k", ClientOptions{})
	s.BaseURL = srv.URL
	got, err := s.Fetch(context.Background(), testCriteria("VP Product"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://gamma.example/jobs/1", got[0].URL)
	assert.Equal(t, "Remote", got[0].WorkArrangement)
}

func TestSerpAPI_NoResultsIsNotAnError(t *testing.T) {
	srv := serveJSON(t, func(*http.Request) (int, string) {
		return 200, `{"error":"Google hasn't returned any results for this query."}`
	})

	s := NewSerpAPI("k", ClientOptions{})
	s.BaseURL = srv.URL
	got, err := s.Fetch(context.Background(), testCriteria("VP Product"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSerpAPI_ErrorFieldFailsAdapter(t *testing.T) {
	srv := serveJSON(t, func(*http.Request) (int, string) {
		return 200, `{"error":"Invalid API key."}`
	})

	s := NewSerpAPI("k", ClientOptions{})
	s.BaseURL = srv.URL
	_, err := s.Fetch(context.Background(), testCriteria("VP Product"))
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestRemotive_QueriesFirstRoleOnly(t *testing.T) {
	var calls atomic.Int32
	srv := serveJSON(t, func(r *http.Request) (int, string) {
		calls.Add(1)
		assert.Equal(t, "/api/remote-jobs", r.URL.Path)
		assert.Equal(t, "Head of Design", r.URL.Query().Get("search"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		return 200, `{"jobs":[{"id":7,"url":"https://remotive.example/7","title":"Head of Design",
			"company_name":"Delta","candidate_required_location":"USA","publication_date":"2024-05-03T08:00:00"}]}`
	})

	r := NewRemotive(ClientOptions{})
	r.BaseURL = srv.URL
	got, err := r.Fetch(context.Background(), testCriteria("Head of Design", "CTO"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())
	require.Len(t, got, 1)
	assert.Equal(t, "7", got[0].ExternalID)
	assert.Equal(t, "Remote (USA)", got[0].Location)
	assert.Equal(t, "Remote", got[0].WorkArrangement)
}

func TestRemoteOK_SkipsLegalNoticeAndFiltersByRole(t *testing.T) {
	var b strings.Builder
	b.WriteString(`[{"legal":"API terms"}`)
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, `,{"id":"%d","url":"https://remoteok.example/%d","position":"Director of Engineering","company":"Eps","tags":["exec"]}`, i, i)
	}
	b.WriteString(`,{"id":"99","url":"https://remoteok.example/99","position":"Support Agent","company":"Zeta","tags":["support"]}`)
	b.WriteString(`,{"id":"100","url":"https://remoteok.example/100","position":"Lead","company":"Eta","tags":["design"]}]`)
	body := b.String()

	var calls atomic.Int32
	srv := serveJSON(t, func(r *http.Request) (int, string) {
		calls.Add(1)
		assert.Equal(t, "/api", r.URL.Path)
		return 200, body
	})

	ro := NewRemoteOK(ClientOptions{})
	ro.BaseURL = srv.URL
	got, err := ro.Fetch(context.Background(), testCriteria("Engineering Director", "Product Design"))
	require.NoError(t, err)

	assert.EqualValues(t, 1, calls.Load())
	// ten capped matches for the first role, one tag match for the second
	require.Len(t, got, 11)
	assert.Equal(t, "100", got[10].ExternalID)
	for _, p := range got {
		assert.NotEqual(t, "Support Agent", p.Title)
		assert.Equal(t, "Remote", p.WorkArrangement)
	}
}

func TestTheMuse_RequestsExecutiveLevels(t *testing.T) {
	srv := serveJSON(t, func(r *http.Request) (int, string) {
		assert.ElementsMatch(t, []string{"Executive", "Senior Level"}, r.URL.Query()["level"])
		return 200, `{"results":[
			{"id":1,"name":"VP, Marketing","contents":"<p>Lead</p>","publication_date":"2024-05-04T00:00:00Z",
			 "locations":[{"name":"Chicago, IL"},{"name":"Flexible / Remote"}],"company":{"name":"Theta"},
			 "refs":{"landing_page":"https://muse.example/1"}},
			{"id":2,"name":"Chief Technology Officer","company":{"name":"Iota"},"refs":{"landing_page":"https://muse.example/2"}}]}`
	})

	m := NewTheMuse("", ClientOptions{})
	m.BaseURL = srv.URL
	got, err := m.Fetch(context.Background(), testCriteria("Chief Technology Officer"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "muse-2", got[0].ExternalID)
	assert.Equal(t, "https://muse.example/2", got[0].URL)
}

func TestRemoteOK_ListingMatchingSeveralRolesEmittedOnce(t *testing.T) {
	srv := serveJSON(t, func(*http.Request) (int, string) {
		return 200, `[{"legal":"API terms"},
			{"id":"1","url":"https://remoteok.example/1","position":"Director of Engineering","tags":["exec"]},
			{"id":"2","url":"https://remoteok.example/2","position":"VP Engineering","tags":["exec"]}]`
	})

	ro := NewRemoteOK(ClientOptions{})
	ro.BaseURL = srv.URL
	got, err := ro.Fetch(context.Background(), testCriteria("Engineering Director", "VP Engineering"))
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ExternalID)
	}
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestTheMuse_ListingMatchingSeveralRolesEmittedOnce(t *testing.T) {
	var calls atomic.Int32
	srv := serveJSON(t, func(*http.Request) (int, string) {
		calls.Add(1)
		return 200, `{"results":[
			{"id":7,"name":"Chief Technology Officer","company":{"name":"Iota"},"refs":{"landing_page":"https://muse.example/7"}}]}`
	})

	m := NewTheMuse("", ClientOptions{})
	m.BaseURL = srv.URL
	got, err := m.Fetch(context.Background(), testCriteria("Chief Technology Officer", "Technology Officer", "Chief Officer"))
	require.NoError(t, err)

	assert.EqualValues(t, 1, calls.Load())
	require.Len(t, got, 1)
	assert.Equal(t, "muse-7", got[0].ExternalID)
}

func TestTheMuse_JoinsLocations(t *testing.T) {
	assert.Equal(t, "Chicago, IL; Flexible / Remote",
		museLocation([]museNamed{{Name: "Chicago, IL"}, {Name: ""}, {Name: "Flexible / Remote"}}))
}

func TestRemoteLocation(t *testing.T) {
	assert.Equal(t, "", remoteLocation("  "))
	assert.Equal(t, "Remote (USA)", remoteLocation("USA"))
	assert.Equal(t, "Worldwide Remote", remoteLocation("Worldwide Remote"))
}

func TestRegistry_SkipsUnconfiguredAdapters(t *testing.T) {
	all := Registry(Credentials{
		AdzunaAppID: "id", AdzunaAppKey: "key", JSearchKey: "j", SerpAPIKey: "s",
	}, ClientOptions{}, zap.NewNop())
	names := make([]string, 0, len(all))
	for _, s := range all {
		names = append(names, s.Info().Name)
	}
	assert.Equal(t, []string{"Adzuna", "JSearch", "Google Jobs", "Remotive", "RemoteOK", "The Muse"}, names)

	public := Registry(Credentials{AdzunaAppID: "id"}, ClientOptions{}, nil)
	require.Len(t, public, 3)
	for _, s := range public {
		assert.Equal(t, model.SourceKindAPI, s.Info().Kind)
	}
}
