package ports

import (
	"context"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

type EscalationTicket struct {
	ID        int64
	SessionID string
	Payload   domain.EscalationPayload
}

type EscalationSink interface {
	Publish(ctx context.Context, sessionID string, payload domain.EscalationPayload) error
}

type EscalationQueue interface {
	EscalationSink
	List(ctx context.Context, limit int) ([]EscalationTicket, error)
}
