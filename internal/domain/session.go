package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	At        time.Time  `json:"at"`
}

type Customer struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ExternalID string `json:"external_id,omitempty"`
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return fmt.Errorf("%w: first name is required", ErrInvalidCustomer)
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidCustomer, c.Email)
	}

	return nil
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Greeting is the name used in fixed replies.
func (c Customer) Greeting() string {
	if name := strings.TrimSpace(c.FirstName); name != "" {
		return name
	}

	return "there"
}

// OrderContext is what the specialists learned about the customer's order and
// subscription. It survives across turns.
type OrderContext struct {
	OrderID              string   `json:"order_id,omitempty"`
	OrderNumber          string   `json:"order_number,omitempty"`
	OrderTotal           *float64 `json:"order_total,omitempty"`
	PendingRefundAmount  *float64 `json:"pending_refund_amount,omitempty"`
	SubscriptionID       string   `json:"subscription_id,omitempty"`
	DiscountCodesCreated int      `json:"discount_codes_created"`
}

// TurnState holds the per-turn volatile counters and flags. It is reset by
// BeginTurn and kept afterwards only so the trace can show the last turn.
type TurnState struct {
	Number             int                    `json:"number"`
	HandoffCount       int                    `json:"handoff_count"`
	SupervisorRuns     int                    `json:"supervisor_runs"`
	SpecialistRuns     int                    `json:"specialist_runs"`
	Revised            bool                   `json:"revised"`
	IntentShifted      bool                   `json:"intent_shifted"`
	InputBlocked       bool                   `json:"input_blocked"`
	PIIRedacted        bool                   `json:"pii_redacted"`
	Truncated          bool                   `json:"truncated"`
	AggressiveLanguage bool                   `json:"aggressive_language"`
	HealthRisk         bool                   `json:"health_risk"`
	Handoffs           []string               `json:"handoffs,omitempty"`
	GuardrailBlocks    []string               `json:"guardrail_blocks,omitempty"`
	ReflectionFailures []string               `json:"reflection_failures,omitempty"`
	Escalation         *EscalationInstruction `json:"escalation,omitempty"`
	Reply              string                 `json:"reply"`
}

type Session struct {
	ID               string             `json:"id"`
	Customer         Customer           `json:"customer"`
	Messages         []Message          `json:"messages"`
	ActiveSpecialist Specialist         `json:"active_specialist"`
	Intent           Category           `json:"intent,omitempty"`
	IntentConfidence int                `json:"intent_confidence"`
	Escalated        bool               `json:"escalated"`
	Escalation       *EscalationPayload `json:"escalation,omitempty"`
	Context          OrderContext       `json:"context"`
	ToolLog          []ToolCallLogEntry `json:"tool_log"`
	ActionsTaken     []string           `json:"actions_taken"`
	TurnCount        int                `json:"turn_count"`
	Turn             TurnState          `json:"turn"`
	Trace            []TraceEvent       `json:"trace"`
	Version          int64              `json:"version"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func NewSession(id string, customer Customer, now time.Time) Session {
	return Session{
		ID:               id,
		Customer:         customer,
		ActiveSpecialist: SpecialistSupervisor,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// BeginTurn resets every volatile per-turn value to its turn-start default.
// The escalated flag is never touched.
func (s *Session) BeginTurn() {
	s.TurnCount++
	s.Turn = TurnState{Number: s.TurnCount}
	s.Trace = nil
	s.Context.PendingRefundAmount = nil
}

// Escalate trips the permanent lock. There is no inverse.
func (s *Session) Escalate(payload EscalationPayload) {
	s.Escalated = true
	p := payload
	s.Escalation = &p
}

func (s *Session) AppendMessage(role Role, content string, at time.Time) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, At: at})
}

// CustomerTurns counts customer messages in the history, including the one
// being processed.
func (s Session) CustomerTurns() int {
	count := 0
	for _, msg := range s.Messages {
		if msg.Role == RoleCustomer {
			count++
		}
	}

	return count
}

func (s Session) LastCustomerMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleCustomer {
			return s.Messages[i].Content
		}
	}

	return ""
}

func (s *Session) Record(event TraceEvent) {
	s.Trace = append(s.Trace, event)
}

// TurnToolLog returns the entries appended during the given turn.
func (s Session) TurnToolLog(turn int) []ToolCallLogEntry {
	out := make([]ToolCallLogEntry, 0)
	for _, entry := range s.ToolLog {
		if entry.Turn == turn {
			out = append(out, entry)
		}
	}

	return out
}

// Clone returns a deep enough copy for a turn to work on without aliasing the
// stored slices.
func (s Session) Clone() Session {
	out := s
	out.Messages = append([]Message(nil), s.Messages...)
	out.ToolLog = append([]ToolCallLogEntry(nil), s.ToolLog...)
	out.ActionsTaken = append([]string(nil), s.ActionsTaken...)
	out.Trace = append([]TraceEvent(nil), s.Trace...)
	out.Turn.Handoffs = append([]string(nil), s.Turn.Handoffs...)
	out.Turn.GuardrailBlocks = append([]string(nil), s.Turn.GuardrailBlocks...)
	out.Turn.ReflectionFailures = append([]string(nil), s.Turn.ReflectionFailures...)
	if s.Escalation != nil {
		p := *s.Escalation
		out.Escalation = &p
	}
	if s.Context.OrderTotal != nil {
		v := *s.Context.OrderTotal
		out.Context.OrderTotal = &v
	}
	if s.Context.PendingRefundAmount != nil {
		v := *s.Context.PendingRefundAmount
		out.Context.PendingRefundAmount = &v
	}

	return out
}
