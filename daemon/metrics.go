package daemon

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry

	requestsTotal       *prometheus.CounterVec
	recomputationsTotal *prometheus.CounterVec
	recomputeDuration   prometheus.Histogram
	sharedResultsTotal  prometheus.Counter
	snapshotHitsTotal   prometheus.Counter
	invalidationsTotal  prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{registry: prometheus.NewRegistry()}

	m.requestsTotal = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "workgraph_daemon_requests_total",
			Help: "Total number of daemon requests",
		},
		[]string{"type"}, // hello, ping, stop, invalid
	)

	m.recomputationsTotal = promauto.With(m.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "workgraph_daemon_recomputations_total",
			Help: "Total number of project graph recomputations",
		},
		[]string{"result"}, // success, failure
	)

	m.recomputeDuration = promauto.With(m.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "workgraph_daemon_recompute_duration_seconds",
			Help:    "Duration of project graph recomputations in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	m.sharedResultsTotal = promauto.With(m.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "workgraph_daemon_shared_results_total",
			Help: "Requests answered by attaching to an in-flight recomputation",
		},
	)

	m.snapshotHitsTotal = promauto.With(m.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "workgraph_daemon_snapshot_hits_total",
			Help: "Requests answered from an unchanged workspace snapshot",
		},
	)

	m.invalidationsTotal = promauto.With(m.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "workgraph_daemon_invalidations_total",
			Help: "Workspace changes that invalidated the cached snapshot",
		},
	)

	return m
}

func (m *metrics) recordRecompute(err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.recomputationsTotal.WithLabelValues(result).Inc()
	m.recomputeDuration.Observe(duration.Seconds())
}

func (m *metrics) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return mux
}
