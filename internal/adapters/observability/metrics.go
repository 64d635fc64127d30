// Package observability exports orchestrator telemetry as Prometheus metrics
// and OpenTelemetry spans.
package observability

import (
	"net/http"
	"time"

	"github.com/bnema/helpdesk-agent/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hda"

// Metrics implements ports.Telemetry on a private Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	turns         *prometheus.CounterVec
	turnDuration  *prometheus.HistogramVec
	guardrails    *prometheus.CounterVec
	toolCalls     *prometheus.CounterVec
	reasonerCalls *prometheus.CounterVec
	reasonerTime  *prometheus.HistogramVec
	transitions   *prometheus.CounterVec
}

var _ ports.Telemetry = (*Metrics)(nil)

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns processed, by specialist and outcome.",
		}, []string{"specialist", "outcome"}),
		turnDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a full conversation turn.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"specialist"}),
		guardrails: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guardrail_trips_total",
			Help:      "Guardrail rules that blocked or rewrote a message.",
		}, []string{"stage", "rule"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Commerce tool invocations, by tool and outcome.",
		}, []string{"tool", "outcome"}),
		reasonerCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reasoner_calls_total",
			Help:      "Reasoner requests, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		reasonerTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reasoner_duration_seconds",
			Help:      "Latency of reasoner requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Conversation state machine transitions.",
		}, []string{"from", "to"}),
	}
}

func (m *Metrics) TurnCompleted(specialist string, outcome string, duration time.Duration) {
	m.turns.WithLabelValues(specialist, outcome).Inc()
	m.turnDuration.WithLabelValues(specialist).Observe(duration.Seconds())
}

func (m *Metrics) GuardrailTripped(stage string, rule string) {
	m.guardrails.WithLabelValues(stage, rule).Inc()
}

func (m *Metrics) ToolCalled(tool string, outcome string) {
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) ReasonerCalled(kind string, outcome string, duration time.Duration) {
	m.reasonerCalls.WithLabelValues(kind, outcome).Inc()
	m.reasonerTime.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) Transition(from string, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
