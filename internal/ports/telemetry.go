package ports

import "time"

type Telemetry interface {
	TurnCompleted(specialist string, outcome string, duration time.Duration)
	GuardrailTripped(stage string, rule string)
	ToolCalled(tool string, outcome string)
	ReasonerCalled(kind string, outcome string, duration time.Duration)
	Transition(from string, to string)
}

type NopTelemetry struct{}

func (NopTelemetry) TurnCompleted(string, string, time.Duration)  {}
func (NopTelemetry) GuardrailTripped(string, string)              {}
func (NopTelemetry) ToolCalled(string, string)                    {}
func (NopTelemetry) ReasonerCalled(string, string, time.Duration) {}
func (NopTelemetry) Transition(string, string)                    {}
