package ports

import (
	"context"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

// CommerceAPI executes a named downstream operation. A returned error means the
// call never produced an envelope (timeout, connection failure); business
// failures come back as a ToolResult with Success=false.
type CommerceAPI interface {
	Execute(ctx context.Context, operation string, args map[string]any) (domain.ToolResult, error)
}
