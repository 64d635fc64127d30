package domain

import "time"

type TraceKind string

const (
	TraceLock             TraceKind = "lock"
	TraceGuardrail        TraceKind = "guardrail_check"
	TraceClassification   TraceKind = "classification"
	TraceIntentShift      TraceKind = "intent_shift"
	TraceRouting          TraceKind = "routing"
	TraceReactStep        TraceKind = "react_step"
	TraceToolCall         TraceKind = "tool_call"
	TraceResponse         TraceKind = "response"
	TraceHandoff          TraceKind = "handoff"
	TraceReflection       TraceKind = "reflection"
	TraceRevision         TraceKind = "revision"
	TraceEscalation       TraceKind = "escalation"
	TraceTransportFailure TraceKind = "transport_failure"
)

type TraceEvent struct {
	At         time.Time      `json:"at"`
	State      string         `json:"state"`
	Kind       TraceKind      `json:"kind"`
	Agent      string         `json:"agent,omitempty"`
	Detail     string         `json:"detail"`
	Tool       string         `json:"tool,omitempty"`
	ToolArgs   map[string]any `json:"tool_args,omitempty"`
	ToolResult *ToolResult    `json:"tool_result,omitempty"`
	Confidence *int           `json:"confidence,omitempty"`
	Passed     *bool          `json:"passed,omitempty"`
}
