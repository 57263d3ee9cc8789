// Package metrics exposes Prometheus instruments for the game loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codehunt"

// Metrics holds the instruments. A nil *Metrics is valid and records
// nothing, so components can take one unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	// ChallengesGenerated counts generated challenges.
	// Labels: kind, difficulty
	ChallengesGenerated *prometheus.CounterVec

	// GenerationFailures counts failed generations.
	// Labels: reason (rate_limited, provider_unavailable, invalid, empty, no_source_files, other)
	GenerationFailures *prometheus.CounterVec

	// GenerationSeconds measures extraction plus generation latency.
	GenerationSeconds prometheus.Histogram

	// Verifications counts resolved verifications.
	// Labels: kind, outcome (success, timeout, missing_file, failure)
	Verifications *prometheus.CounterVec

	HintsUsed         prometheus.Counter
	ChallengesSkipped prometheus.Counter

	Points prometheus.Gauge
	Level  prometheus.Gauge
	Streak prometheus.Gauge
}

// New creates the instruments on a private registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newWithRegistry(reg)
}

func newWithRegistry(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ChallengesGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_generated_total",
			Help:      "Challenges generated by kind and difficulty.",
		}, []string{"kind", "difficulty"}),
		GenerationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Failed challenge generations by reason.",
		}, []string{"reason"}),
		GenerationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_seconds",
			Help:      "Time to extract context and generate a challenge.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Resolved verifications by challenge kind and outcome.",
		}, []string{"kind", "outcome"}),
		HintsUsed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hints_used_total",
			Help:      "Hints revealed.",
		}),
		ChallengesSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_skipped_total",
			Help:      "Challenges skipped.",
		}),
		Points: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "points",
			Help:      "Current session points.",
		}),
		Level: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "level",
			Help:      "Current session level.",
		}),
		Streak: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "streak",
			Help:      "Current completion streak.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Generated(kind, difficulty string) {
	if m == nil {
		return
	}
	m.ChallengesGenerated.WithLabelValues(kind, difficulty).Inc()
}

func (m *Metrics) GenerationFailed(reason string) {
	if m == nil {
		return
	}
	m.GenerationFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveGeneration(seconds float64) {
	if m == nil {
		return
	}
	m.GenerationSeconds.Observe(seconds)
}

func (m *Metrics) Verified(kind, outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) HintUsed() {
	if m == nil {
		return
	}
	m.HintsUsed.Inc()
}

func (m *Metrics) Skipped() {
	if m == nil {
		return
	}
	m.ChallengesSkipped.Inc()
}

// SetProgress publishes the score gauges.
func (m *Metrics) SetProgress(points, level, streak int) {
	if m == nil {
		return
	}
	m.Points.Set(float64(points))
	m.Level.Set(float64(level))
	m.Streak.Set(float64(streak))
}
