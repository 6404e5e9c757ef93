// Package api exposes discovery runs, postings and feeds over HTTP.
//
// Routes:
//
//	GET    /health
//	GET    /metrics
//	PUT    /candidates/:id              → create or replace a candidate profile
//	POST   /candidates/:id/runs         → start discovery (?score=true|false, ?wait=true)
//	POST   /candidates/:id/rescore      → recompute scores of new postings
//	GET    /runs/:id
//	GET    /postings                    → ?status=&category=&min_score=&limit=
//	GET    /postings/:id
//	POST   /postings/:id/status         → move a posting along its lifecycle
//	DELETE /postings/:id
//	GET    /feeds
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobmate/exec-discovery/internal/discovery"
	"jobmate/exec-discovery/internal/lifecycle"
	"jobmate/exec-discovery/internal/model"
	"jobmate/exec-discovery/internal/scoring"
	"jobmate/exec-discovery/internal/store"
)

// ─── Request types ───────────────────────────────────────────────────────────

type candidateRequest struct {
	TargetRoles        []string `json:"targetRoles" binding:"required,min=1,dive,required"`
	Industries         []string `json:"industries"`
	PreferredLocations []string `json:"preferredLocations"`
	RemotePreferences  []string `json:"remotePreferences"`
	Active             *bool    `json:"active"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	store          store.Repository
	discovery      *discovery.Orchestrator
	scoreByDefault bool
	log            *zap.Logger
}

// NewHandler returns a configured Handler. scoreByDefault is used when a run
// request carries no score parameter.
func NewHandler(repo store.Repository, orch *discovery.Orchestrator, scoreByDefault bool, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{store: repo, discovery: orch, scoreByDefault: scoreByDefault, log: log.Named("api")}
}

// ─── Candidates and runs ─────────────────────────────────────────────────────

func (h *Handler) saveCandidate(c *gin.Context) {
	var req candidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	profile := &model.CandidateProfile{
		ID:                 c.Param("id"),
		TargetRoles:        req.TargetRoles,
		Industries:         req.Industries,
		PreferredLocations: req.PreferredLocations,
		RemotePreferences:  req.RemotePreferences,
		Active:             req.Active == nil || *req.Active,
	}
	if _, err := profile.Criteria(); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.SaveCandidate(c.Request.Context(), profile); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// triggerRun starts a discovery run. By default the run continues in the
// background and 202 is returned with the run ID; poll GET /runs/:id for the
// outcome. With ?wait=true the response carries the finished run.
func (h *Handler) triggerRun(c *gin.Context) {
	score, err := boolQuery(c, "score", h.scoreByDefault)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	wait, err := boolQuery(c, "wait", false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orch := h.discovery.WithScore(score)
	start, code := orch.Start, http.StatusAccepted
	if wait {
		start, code = orch.Run, http.StatusCreated
	}

	result, err := start(c.Request.Context(), c.Param("id"))
	if err != nil {
		if result != nil {
			c.JSON(toHTTPStatus(err), gin.H{"error": err.Error(), "run": result})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(code, result)
}

func (h *Handler) rescore(c *gin.Context) {
	changed, err := h.discovery.Rescore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (h *Handler) getRun(c *gin.Context) {
	run, err := h.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// ─── Postings ────────────────────────────────────────────────────────────────

func (h *Handler) listPostings(c *gin.Context) {
	filter, err := parsePostingFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	postings, err := h.store.ListPostings(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	if postings == nil {
		postings = []model.Posting{}
	}
	c.JSON(http.StatusOK, gin.H{"postings": postings, "count": len(postings)})
}

func (h *Handler) getPosting(c *gin.Context) {
	p, err := h.store.GetPosting(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posting": p, "category": scoring.CategoryFor(p.MatchScore)})
}

func (h *Handler) moveStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must contain status"})
		return
	}
	next, err := lifecycle.ParsePostingStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	p, err := h.store.GetPosting(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := lifecycle.CheckPostingTransition(p.Status, next); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.store.UpdatePostingStatus(ctx, p.ID, next); err != nil {
		h.fail(c, err)
		return
	}
	p.Status = next
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deletePosting(c *gin.Context) {
	if err := h.store.DeletePosting(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ─── Feeds ───────────────────────────────────────────────────────────────────

func (h *Handler) listFeeds(c *gin.Context) {
	feeds, err := h.store.ListFeeds(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if feeds == nil {
		feeds = []model.Feed{}
	}
	c.JSON(http.StatusOK, gin.H{"feeds": feeds, "count": len(feeds)})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func boolQuery(c *gin.Context, key string, fallback bool) (bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return v, nil
}

// parsePostingFilter reads status, category, min_score and limit. A category
// narrows the score range to its bounds; min_score raises the lower bound.
func parsePostingFilter(c *gin.Context) (store.PostingFilter, error) {
	var f store.PostingFilter

	if raw := c.Query("status"); raw != "" {
		st, err := lifecycle.ParsePostingStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	if raw := c.Query("category"); raw != "" {
		cat, ok := scoring.ParseCategory(raw)
		if !ok {
			return f, errors.New("category must be one of high, medium, low, none")
		}
		f.MinScore, f.MaxScore = cat.Bounds()
	}
	if raw := c.Query("min_score"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > scoring.MaxScore {
			return f, errors.New("min_score must be an integer between 0 and 100")
		}
		if v > f.MinScore {
			f.MinScore = v
		}
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return f, errors.New("limit must be a positive integer")
		}
		f.Limit = v
	}
	return f, nil
}

// fail writes err with the status toHTTPStatus picks. Internal errors are
// logged and their detail hidden.
func (h *Handler) fail(c *gin.Context, err error) {
	code := toHTTPStatus(err)
	if code == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(code, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// toHTTPStatus maps domain errors to HTTP status codes.
func toHTTPStatus(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, model.ErrNoCriteriaConfigured) {
		return http.StatusUnprocessableEntity
	}
	var te *lifecycle.TransitionError
	if errors.As(err, &te) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
