package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestMetricsCountTelemetry(t *testing.T) {
	t.Parallel()
	m := NewMetrics()

	m.TurnCompleted("order_management", "responded", 1500*time.Millisecond)
	m.TurnCompleted("order_management", "responded", 200*time.Millisecond)
	m.TurnCompleted("wismo", "escalated", time.Second)
	m.GuardrailTripped("input", "prompt_injection")
	m.ToolCalled("shopify_cancel_order", "success")
	m.ToolCalled("shopify_cancel_order", "failure")
	m.ReasonerCalled("classify", "ok", 300*time.Millisecond)
	m.Transition("ACTIVE", "ESCALATED")

	assert.InDelta(t, 2, testutil.ToFloat64(m.turns.WithLabelValues("order_management", "responded")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.turns.WithLabelValues("wismo", "escalated")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.guardrails.WithLabelValues("input", "prompt_injection")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.toolCalls.WithLabelValues("shopify_cancel_order", "failure")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.reasonerCalls.WithLabelValues("classify", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.transitions.WithLabelValues("ACTIVE", "ESCALATED")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.turnDuration))
}

func TestMetricsRegistriesAreIndependent(t *testing.T) {
	t.Parallel()

	a := NewMetrics()
	b := NewMetrics()
	a.ToolCalled("shopify_get_order_details", "success")

	assert.InDelta(t, 0, testutil.ToFloat64(b.toolCalls.WithLabelValues("shopify_get_order_details", "success")), 0)
}

func TestMetricsHandlerExposesSeries(t *testing.T) {
	t.Parallel()
	m := NewMetrics()
	m.Transition("ACTIVE", "RESOLVED")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `hda_state_transitions_total{from="ACTIVE",to="RESOLVED"} 1`)
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	t.Parallel()

	shutdown, err := InitTracing(TracingOptions{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingExportsSpans(t *testing.T) {
	var buf strings.Builder
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	shutdown, err := InitTracing(TracingOptions{Enabled: true, Writer: &syncWriter{w: &buf}})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "turn")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"turn"`)
	assert.Contains(t, buf.String(), ServiceName)
}
