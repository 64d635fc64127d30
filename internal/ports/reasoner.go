package ports

import (
	"context"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

type ModelTier string

const (
	// ModelFast backs classification and reflection.
	ModelFast ModelTier = "fast"
	// ModelSmart backs specialists, the supervisor and revisions.
	ModelSmart ModelTier = "smart"
)

type ChatRole string

const (
	ChatUser      ChatRole = "user"
	ChatAssistant ChatRole = "assistant"
	ChatTool      ChatRole = "tool"
)

type ChatMessage struct {
	Role       ChatRole
	Content    string
	ToolCalls  []domain.ToolCall
	ToolCallID string
}

type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type CompletionRequest struct {
	Tier      ModelTier
	System    string
	Prompt    string
	MaxTokens int
}

type ReasonRequest struct {
	System   string
	Messages []ChatMessage
	Tools    []ToolSpec
}

// ReasonResult carries either a textual reply or tool calls.
type ReasonResult struct {
	Text      string
	ToolCalls []domain.ToolCall
}

type Reasoner interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Reason(ctx context.Context, req ReasonRequest) (ReasonResult, error)
}
