package ports

import (
	"context"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	// Update runs fn against the stored session and persists the result
	// atomically. Returning an error from fn aborts the write.
	Update(ctx context.Context, id string, fn func(*domain.Session) error) error
	List(ctx context.Context) ([]domain.Session, error)
}
