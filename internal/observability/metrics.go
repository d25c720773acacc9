// Package observability groups the Prometheus instruments exposed on
// /metrics.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveLiveSessions prometheus.Gauge
	TerminalFrames     *prometheus.CounterVec
	GuardDecisions     *prometheus.CounterVec
	StageTransitions   *prometheus.CounterVec
	GenerationTokens   *prometheus.CounterVec
	FirstDeltaLatency  prometheus.Histogram
}

// New registers all instruments under the given namespace on the default
// registry.
func New(namespace string) *Metrics {
	return &Metrics{
		ActiveLiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_live_sessions",
			Help:      "Number of live realtime sessions in the registry.",
		}),
		TerminalFrames: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_terminal_frames_total",
			Help:      "Terminal chat stream frames by outcome.",
		}, []string{"outcome"}),
		GuardDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Duplicate-call guard decisions by result.",
		}, []string{"result"}),
		StageTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Conversation stage transitions by target stage.",
		}, []string{"to"}),
		GenerationTokens: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tokens_total",
			Help:      "Estimated generation tokens by direction.",
		}, []string{"direction"}),
		FirstDeltaLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "first_delta_latency_ms",
			Help:      "Latency to first streamed content delta in milliseconds.",
			Buckets:   []float64{100, 200, 300, 500, 700, 900, 1200, 2000, 5000},
		}),
	}
}

// ObserveFirstDelta records the latency to the first content delta.
func (m *Metrics) ObserveFirstDelta(d time.Duration) {
	if m == nil {
		return
	}
	m.FirstDeltaLatency.Observe(float64(d.Milliseconds()))
}

// CountTerminal records one terminal frame outcome ("done" or "error").
func (m *Metrics) CountTerminal(outcome string) {
	if m == nil {
		return
	}
	m.TerminalFrames.WithLabelValues(outcome).Inc()
}

// CountGuard records one guard decision ("allowed" or "denied").
func (m *Metrics) CountGuard(result string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(result).Inc()
}

// CountStage records one stage transition.
func (m *Metrics) CountStage(to string) {
	if m == nil {
		return
	}
	m.StageTransitions.WithLabelValues(to).Inc()
}

// CountTokens records estimated token usage for one generation call.
func (m *Metrics) CountTokens(input, output int) {
	if m == nil {
		return
	}
	m.GenerationTokens.WithLabelValues("input").Add(float64(input))
	m.GenerationTokens.WithLabelValues("output").Add(float64(output))
}

// SetActiveLiveSessions updates the live-session gauge.
func (m *Metrics) SetActiveLiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveLiveSessions.Set(float64(n))
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
