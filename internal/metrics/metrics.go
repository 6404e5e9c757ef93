// Package metrics exposes Prometheus instrumentation for discovery runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobmate/exec-discovery/internal/model"
)

const namespace = "discovery"

// Metrics holds the discovery Prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	PostingsCreated *prometheus.CounterVec
	Duplicates      *prometheus.CounterVec
	SourceErrors    *prometheus.CounterVec
	FeedStatus      *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests
// to avoid duplicate registration on the default registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Discovery runs by terminal status",
		}, []string{"status"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a discovery run",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		PostingsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_created_total",
			Help:      "New postings persisted, by source",
		}, []string{"source"}),
		Duplicates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_duplicate_total",
			Help:      "Postings skipped because their locator was already known, by source",
		}, []string{"source"}),
		SourceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Source adapter failures by source and error kind",
		}, []string{"source", "kind"}),
		FeedStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_healthy",
			Help:      "1 when the feed's last fetch succeeded, 0 otherwise",
		}, []string{"feed"}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(status model.RunStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(string(status)).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// ObserveSource records the outcome of one source within a run.
func (m *Metrics) ObserveSource(r model.SourceReport) {
	if m == nil {
		return
	}
	if r.Created > 0 {
		m.PostingsCreated.WithLabelValues(r.Name).Add(float64(r.Created))
	}
	if r.Duplicates > 0 {
		m.Duplicates.WithLabelValues(r.Name).Add(float64(r.Duplicates))
	}
	if r.Error != "" {
		kind := r.ErrorKind
		if kind == "" {
			kind = "unknown"
		}
		m.SourceErrors.WithLabelValues(r.Name, kind).Inc()
	}
}

// ObserveFeed records the health of a feed after a fetch attempt.
func (m *Metrics) ObserveFeed(f model.Feed) {
	if m == nil {
		return
	}
	v := 0.0
	if f.Status == model.FeedActive {
		v = 1
	}
	m.FeedStatus.WithLabelValues(f.Name).Set(v)
}
