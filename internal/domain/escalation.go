package domain

import (
	"strings"
	"time"
)

type EscalationCategory string

const (
	EscalationHealth          EscalationCategory = "health_concern"
	EscalationChargeback      EscalationCategory = "chargeback_risk"
	EscalationBilling         EscalationCategory = "billing_error"
	EscalationTechnical       EscalationCategory = "technical_error"
	EscalationUncertain       EscalationCategory = "uncertain"
	EscalationCustomerRequest EscalationCategory = "customer_request"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

func ParseEscalationCategory(raw string) EscalationCategory {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return EscalationUncertain
	}

	return EscalationCategory(normalized)
}

func (c EscalationCategory) Priority() Priority {
	switch c {
	case EscalationHealth, EscalationChargeback, EscalationBilling, EscalationTechnical:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// EscalationPayload is the single artifact handed to a human operator.
type EscalationPayload struct {
	CustomerName        string             `json:"customer_name"`
	CustomerEmail       string             `json:"customer_email"`
	OrderID             string             `json:"order_id,omitempty"`
	SubscriptionID      string             `json:"subscription_id,omitempty"`
	Category            EscalationCategory `json:"category"`
	Priority            Priority           `json:"priority"`
	Summary             string             `json:"summary"`
	ActionsTaken        []string           `json:"actions_taken"`
	ConversationHistory []string           `json:"conversation_history"`
	EscalatedTo         string             `json:"escalated_to"`
	CreatedAt           time.Time          `json:"created_at"`
}
