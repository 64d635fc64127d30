package application

import (
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

// TurnResult is what a caller gets back from one customer message.
type TurnResult struct {
	SessionID        string
	Response         string
	Escalated        bool
	ActionsTaken     []string
	Agent            domain.Specialist
	Intent           domain.Category
	IntentConfidence int
	Revised          bool
	IntentShifted    bool
}

type SessionTrace struct {
	SessionID            string
	Customer             domain.Customer
	Intent               domain.Category
	IntentConfidence     int
	Agent                domain.Specialist
	Events               []domain.TraceEvent
	FinalResponse        string
	ActionsTaken         []string
	Escalated            bool
	Revised              bool
	IntentShifted        bool
	Handoffs             []string
	ReflectionViolations []string
	GuardrailBlocks      []string
	Messages             []domain.Message
	Escalation           *domain.EscalationPayload
	TurnCount            int
	UpdatedAt            time.Time
}

type SessionSummary struct {
	SessionID     string
	CustomerEmail string
	Agent         domain.Specialist
	Intent        domain.Category
	Escalated     bool
	Turns         int
	UpdatedAt     time.Time
}

func newTurnResult(session domain.Session) TurnResult {
	return TurnResult{
		SessionID:        session.ID,
		Response:         session.Turn.Reply,
		Escalated:        session.Escalated,
		ActionsTaken:     append([]string{}, session.ActionsTaken...),
		Agent:            session.ActiveSpecialist,
		Intent:           session.Intent,
		IntentConfidence: session.IntentConfidence,
		Revised:          session.Turn.Revised,
		IntentShifted:    session.Turn.IntentShifted,
	}
}

func newSessionTrace(session domain.Session) SessionTrace {
	return SessionTrace{
		SessionID:            session.ID,
		Customer:             session.Customer,
		Intent:               session.Intent,
		IntentConfidence:     session.IntentConfidence,
		Agent:                session.ActiveSpecialist,
		Events:               append([]domain.TraceEvent{}, session.Trace...),
		FinalResponse:        session.Turn.Reply,
		ActionsTaken:         append([]string{}, session.ActionsTaken...),
		Escalated:            session.Escalated,
		Revised:              session.Turn.Revised,
		IntentShifted:        session.Turn.IntentShifted,
		Handoffs:             append([]string{}, session.Turn.Handoffs...),
		ReflectionViolations: append([]string{}, session.Turn.ReflectionFailures...),
		GuardrailBlocks:      append([]string{}, session.Turn.GuardrailBlocks...),
		Messages:             append([]domain.Message{}, session.Messages...),
		Escalation:           session.Escalation,
		TurnCount:            session.TurnCount,
		UpdatedAt:            session.UpdatedAt,
	}
}

func newSessionSummary(session domain.Session) SessionSummary {
	return SessionSummary{
		SessionID:     session.ID,
		CustomerEmail: session.Customer.Email,
		Agent:         session.ActiveSpecialist,
		Intent:        session.Intent,
		Escalated:     session.Escalated,
		Turns:         session.CustomerTurns(),
		UpdatedAt:     session.UpdatedAt,
	}
}
