package domain

type GuardrailVerdict struct {
	Passed     bool     `json:"passed"`
	Violations []string `json:"violations,omitempty"`
	Override   string   `json:"override,omitempty"`
}

type ReflectionVerdict struct {
	Passed       bool   `json:"passed"`
	Rule         string `json:"rule_violated,omitempty"`
	Reason       string `json:"reason,omitempty"`
	SuggestedFix string `json:"suggested_fix,omitempty"`
}

type HandoffInstruction struct {
	Target Specialist `json:"target"`
	Reason string     `json:"reason"`
}

type EscalationInstruction struct {
	Category EscalationCategory `json:"category"`
	Reason   string             `json:"reason"`
}

// DraftShape tells which of the three mutually exclusive forms a specialist
// output has.
type DraftShape string

const (
	DraftReply      DraftShape = "reply"
	DraftHandoff    DraftShape = "handoff"
	DraftEscalation DraftShape = "escalation"
)
