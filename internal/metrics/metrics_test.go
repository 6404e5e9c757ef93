package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/exec-discovery/internal/metrics"
	"jobmate/exec-discovery/internal/model"
)

func TestObserveSource(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveSource(model.SourceReport{Name: "Adzuna", Created: 3, Duplicates: 2})
	m.ObserveSource(model.SourceReport{Name: "Adzuna", Created: 1})
	m.ObserveSource(model.SourceReport{Name: "JSearch", Error: "boom", ErrorKind: "rate_limited"})
	m.ObserveSource(model.SourceReport{Name: "Feed", Error: "boom"})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.PostingsCreated.WithLabelValues("Adzuna")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Duplicates.WithLabelValues("Adzuna")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceErrors.WithLabelValues("JSearch", "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceErrors.WithLabelValues("Feed", "unknown")))
}

func TestObserveRunAndFeed(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveRun(model.RunCompleted, 3*time.Second)
	m.ObserveRun(model.RunFailed, time.Second)
	m.ObserveFeed(model.Feed{Name: "ok", Status: model.FeedActive})
	m.ObserveFeed(model.Feed{Name: "bad", Status: model.FeedError})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedStatus.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FeedStatus.WithLabelValues("bad")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	m.ObserveRun(model.RunCompleted, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `discovery_runs_total{status="completed"} 1`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveRun(model.RunCompleted, time.Second)
	m.ObserveSource(model.SourceReport{Name: "x", Created: 1})
	m.ObserveFeed(model.Feed{Name: "x"})
}
