package application

import (
	"time"

	"github.com/bnema/helpdesk-agent/internal/guardrail"
)

const (
	DefaultConfidenceThreshold = 80
	DefaultShiftThreshold      = 85
	DefaultMaxIterations       = 6
	DefaultMaxSupervisorRuns   = 2
	DefaultTimeout             = 10 * time.Second
	DefaultRetryTimeout        = 15 * time.Second

	maxHandoffsPerTurn = 1
	maxStepsPerTurn    = 64
	historyExcerpt     = 10
	toolResultsExcerpt = 5
)

// Settings is every tunable the orchestrator reads. It is passed in at
// construction time and never mutated afterwards.
type Settings struct {
	ConfidenceThreshold int
	ShiftThreshold      int
	MaxIterations       int
	MaxSupervisorRuns   int
	MaxInputChars       int

	Reasoning RetryPolicy
	Tools     RetryPolicy

	Location *time.Location
	Persona  guardrail.Persona

	// ReflectionReviewer enables the reasoning-service reviewer after the
	// deterministic reflection rules pass.
	ReflectionReviewer bool
	// GeneratedSummary asks the reasoning service for the escalation summary.
	GeneratedSummary bool
}

func DefaultSettings() Settings {
	return Settings{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		ShiftThreshold:      DefaultShiftThreshold,
		MaxIterations:       DefaultMaxIterations,
		MaxSupervisorRuns:   DefaultMaxSupervisorRuns,
		MaxInputChars:       guardrail.DefaultMaxInputChars,
		Reasoning:           RetryPolicy{Timeout: DefaultTimeout, RetryTimeout: DefaultRetryTimeout},
		Tools:               RetryPolicy{Timeout: DefaultTimeout, RetryTimeout: DefaultRetryTimeout},
		Location:            time.UTC,
		Persona:             guardrail.DefaultPersona(),
		ReflectionReviewer:  true,
	}
}

// withDefaults fills zero values so a partially populated Settings is usable.
func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.ConfidenceThreshold <= 0 {
		s.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if s.ShiftThreshold <= 0 {
		s.ShiftThreshold = def.ShiftThreshold
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = def.MaxIterations
	}
	if s.MaxSupervisorRuns <= 0 {
		s.MaxSupervisorRuns = def.MaxSupervisorRuns
	}
	if s.MaxInputChars <= 0 {
		s.MaxInputChars = def.MaxInputChars
	}
	s.Reasoning = s.Reasoning.withDefaults()
	s.Tools = s.Tools.withDefaults()
	if s.Location == nil {
		s.Location = def.Location
	}
	if s.Persona.AgentName == "" {
		s.Persona = def.Persona
	}

	return s
}

// EscalatedTo is the payload's human owner label.
func (s Settings) EscalatedTo() string {
	return s.Persona.LeadName + " - " + s.Persona.LeadTitle
}
