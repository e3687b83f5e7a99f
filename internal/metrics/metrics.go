package metrics

import (
	"net/http"

	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketmind"

// Recorder exports engine and HTTP metrics on its own registry, so tests and
// multiple engines in one process never collide on the global one.
type Recorder struct {
	registry *prometheus.Registry

	cycles           *prometheus.CounterVec
	cycleDuration    *prometheus.HistogramVec
	transitions      *prometheus.CounterVec
	mistakes         *prometheus.CounterVec
	phaseCommits     *prometheus.CounterVec
	verdictFallbacks *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Update cycles by outcome",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one update cycle",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hypotheses",
			Name:      "transitions_total",
			Help:      "Hypothesis status transitions",
		}, []string{"from", "to"}),
		mistakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "learning",
			Name:      "mistakes_total",
			Help:      "Mistake records by root cause category",
		}, []string{"category"}),
		phaseCommits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "narratives",
			Name:      "phase_commits_total",
			Help:      "Committed narrative phase changes by target phase",
		}, []string{"phase"}),
		verdictFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reasoning",
			Name:      "verdict_fallbacks_total",
			Help:      "Verdicts replaced by INCONCLUSIVE by reason",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status class",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	r.registry.MustRegister(
		r.cycles, r.cycleDuration, r.transitions, r.mistakes, r.phaseCommits, r.verdictFallbacks,
		r.httpRequests, r.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) RecordCycle(outcome string, seconds float64) {
	r.cycles.WithLabelValues(outcome).Inc()
	r.cycleDuration.WithLabelValues(outcome).Observe(seconds)
}

func (r *Recorder) RecordTransition(from, to domain.HypothesisStatus) {
	r.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (r *Recorder) RecordMistake(category domain.RootCause) {
	r.mistakes.WithLabelValues(string(category)).Inc()
}

func (r *Recorder) RecordPhaseCommit(phase domain.Phase) {
	r.phaseCommits.WithLabelValues(string(phase)).Inc()
}

func (r *Recorder) RecordVerdictFallback(reason string) {
	r.verdictFallbacks.WithLabelValues(reason).Inc()
}

// RecordRequest counts one served HTTP request. Status is bucketed by class.
func (r *Recorder) RecordRequest(method string, status int, seconds float64) {
	r.httpRequests.WithLabelValues(method, statusClass(status)).Inc()
	r.httpDuration.WithLabelValues(method).Observe(seconds)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

var _ domain.MetricsRecorder = (*Recorder)(nil)
