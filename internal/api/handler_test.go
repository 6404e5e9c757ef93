package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/exec-discovery/internal/api"
	"jobmate/exec-discovery/internal/discovery"
	"jobmate/exec-discovery/internal/model"
	"jobmate/exec-discovery/internal/scraper"
	"jobmate/exec-discovery/internal/store"
)

type fixedSource struct {
	items []model.RawPosting
}

func (s *fixedSource) Info() model.SourceInfo {
	return model.SourceInfo{Name: "Adzuna", Kind: model.SourceKindAPI, DefaultLocation: "US"}
}

func (s *fixedSource) Fetch(context.Context, model.Criteria) ([]model.RawPosting, error) {
	return s.items, nil
}

func setupRouter(t *testing.T, items ...model.RawPosting) (*gin.Engine, *store.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := store.NewMemory()
	orch := discovery.New(discovery.Deps{
		Store:   repo,
		Sources: []scraper.Source{&fixedSource{items: items}},
	}, discovery.Options{})
	h := api.NewHandler(repo, orch, false, nil)
	return api.NewRouter(h, http.NotFoundHandler(), "test"), repo
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedPosting(t *testing.T, repo *store.Memory, url string, score int, status model.PostingStatus) *model.Posting {
	t.Helper()
	p := &model.Posting{
		Title:      "VP Engineering",
		Company:    "Acme",
		SourceName: "Adzuna",
		SourceKind: model.SourceKindAPI,
		SourceURL:  url,
		PostedDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Status:     status,
		MatchScore: score,
	}
	_, err := repo.CreatePosting(context.Background(), p)
	require.NoError(t, err)
	return p
}

func TestHealth(t *testing.T) {
	r, _ := setupRouter(t)
	w := do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"discovery-service","version":"test"}`, w.Body.String())
}

func TestSaveCandidate_RequiresTargetRoles(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(r, http.MethodPut, "/candidates/c1", map[string]any{"targetRoles": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/candidates/c1", map[string]any{"targetRoles": []string{"CTO"}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTriggerRun(t *testing.T) {
	r, repo := setupRouter(t, model.RawPosting{
		Title:           "VP Design",
		Company:         "Acme",
		Location:        "Remote",
		WorkArrangement: "Remote",
		URL:             "https://jobs.example.com/1",
	})
	require.NoError(t, repo.SaveCandidate(context.Background(), &model.CandidateProfile{
		ID:                "c1",
		TargetRoles:       []string{"VP Design"},
		RemotePreferences: []string{"Fully Remote"},
		Active:            true,
	}))

	w := do(r, http.MethodPost, "/candidates/c1/runs?score=true&wait=true", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res discovery.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, model.RunCompleted, res.Status)
	assert.Equal(t, 1, res.NewPostings)

	w = do(r, http.MethodGet, "/runs/"+res.RunID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/postings?category=medium", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count    int             `json:"count"`
		Postings []model.Posting `json:"postings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, 70, list.Postings[0].MatchScore)
}

func TestTriggerRun_BackgroundByDefault(t *testing.T) {
	r, repo := setupRouter(t, model.RawPosting{
		Title:    "VP Design",
		Company:  "Acme",
		Location: "Remote",
		URL:      "https://jobs.example.com/1",
	})
	require.NoError(t, repo.SaveCandidate(context.Background(), &model.CandidateProfile{
		ID:          "c1",
		TargetRoles: []string{"VP Design"},
		Active:      true,
	}))

	w := do(r, http.MethodPost, "/candidates/c1/runs", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var started discovery.RunResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	require.NotEmpty(t, started.RunID)
	assert.Equal(t, model.RunRunning, started.Status)

	require.Eventually(t, func() bool {
		run, err := repo.GetRun(context.Background(), started.RunID)
		return err == nil && run.Status == model.RunCompleted
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTriggerRun_Errors(t *testing.T) {
	r, repo := setupRouter(t)
	require.NoError(t, repo.SaveCandidate(context.Background(), &model.CandidateProfile{ID: "empty", Active: true}))

	w := do(r, http.MethodPost, "/candidates/empty/runs", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"failed"`)

	w = do(r, http.MethodPost, "/candidates/empty/runs?wait=true", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodPost, "/candidates/empty/runs?score=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/candidates/empty/runs?wait=soon", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/candidates/ghost/rescore", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodGet, "/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPostings_Filters(t *testing.T) {
	r, repo := setupRouter(t)
	seedPosting(t, repo, "https://x/high", 92, model.StatusNew)
	seedPosting(t, repo, "https://x/medium", 75, model.StatusNew)
	seedPosting(t, repo, "https://x/low", 55, model.StatusSaved)

	count := func(query string) int {
		w := do(r, http.MethodGet, "/postings"+query, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var body struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body.Count
	}

	assert.Equal(t, 3, count(""))
	assert.Equal(t, 1, count("?category=high"))
	assert.Equal(t, 2, count("?min_score=70"))
	assert.Equal(t, 1, count("?status=saved"))
	assert.Equal(t, 2, count("?limit=2"))

	for _, bad := range []string{"?status=archived", "?category=great", "?min_score=101", "?limit=0"} {
		w := do(r, http.MethodGet, "/postings"+bad, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestMoveStatus(t *testing.T) {
	r, repo := setupRouter(t)
	p := seedPosting(t, repo, "https://x/1", 80, model.StatusNew)

	w := do(r, http.MethodPost, "/postings/"+p.ID+"/status", map[string]string{"status": "saved"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/postings/"+p.ID+"/status", map[string]string{"status": "applied"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, "/postings/"+p.ID+"/status", map[string]string{"status": "saved"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/postings/"+p.ID+"/status", map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/postings/missing/status", map[string]string{"status": "saved"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	got, err := repo.GetPosting(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApplied, got.Status)
}

func TestGetAndDeletePosting(t *testing.T) {
	r, repo := setupRouter(t)
	p := seedPosting(t, repo, "https://x/1", 90, model.StatusNew)

	w := do(r, http.MethodGet, "/postings/"+p.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"category":"high"`)

	w = do(r, http.MethodDelete, "/postings/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, http.MethodDelete, "/postings/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListFeeds(t *testing.T) {
	r, repo := setupRouter(t)
	require.NoError(t, repo.EnsureFeed(context.Background(), &model.Feed{Name: "Exec", URL: "https://feeds/exec"}))

	w := do(r, http.MethodGet, "/feeds", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}
