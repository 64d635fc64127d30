package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/guardrail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayloadResolvesIdentifiersFromToolLog(t *testing.T) {
	t.Parallel()

	session := testSession()
	session.BeginTurn()
	for i := range 12 {
		session.AppendMessage(domain.RoleCustomer, fmt.Sprintf("message %d", i), monday)
	}
	session.ActionsTaken = []string{"shopify_create_draft_order: success"}
	session.ToolLog = []domain.ToolCallLogEntry{
		{
			Tool:   domain.ToolGetSubscriptionStatus,
			Result: domain.Succeeded(map[string]any{"subscriptionId": "sub_sarah_001"}),
		},
		{
			Tool:   domain.ToolAddTags,
			Args:   map[string]any{"id": "gid://shopify/Order/5531567751245", "tags": []any{"WISMO"}},
			Result: domain.Succeeded(map[string]any{}),
		},
		{
			Tool:   domain.ToolCreateDraftOrder,
			Result: domain.Succeeded(map[string]any{"draftOrderId": "gid://shopify/DraftOrder/991"}),
		},
	}

	escalator := NewEscalator(nil, fixedClock{monday}, fastSettings(), nil, nil)
	payload := escalator.BuildPayload(context.Background(), session, domain.EscalationInstruction{
		Category: domain.EscalationChargeback,
		Reason:   "customer mentioned a dispute",
	})

	assert.Equal(t, "Sarah Jones", payload.CustomerName)
	assert.Equal(t, "sarah@example.com", payload.CustomerEmail)
	assert.Equal(t, "gid://shopify/Order/5531567751245", payload.OrderID)
	assert.Equal(t, "sub_sarah_001", payload.SubscriptionID)
	assert.Equal(t, domain.PriorityHigh, payload.Priority)
	assert.Equal(t, "Monica - Head of CS", payload.EscalatedTo)
	assert.Equal(t, monday, payload.CreatedAt)
	assert.Contains(t, payload.Summary, "customer mentioned a dispute")
	assert.Contains(t, payload.Summary, "gid://shopify/DraftOrder/991")
	assert.Equal(t, []string{"shopify_create_draft_order: success"}, payload.ActionsTaken)
	require.Len(t, payload.ConversationHistory, historyExcerpt)
	assert.Equal(t, "customer: message 2", payload.ConversationHistory[0])
}

func TestBuildPayloadPrefersSessionContext(t *testing.T) {
	t.Parallel()

	session := testSession()
	session.Context.OrderID = "gid://shopify/Order/1"
	session.ToolLog = []domain.ToolCallLogEntry{{
		Tool:   domain.ToolGetOrderDetails,
		Result: domain.Succeeded(map[string]any{"id": "gid://shopify/Order/2"}),
	}}

	payload := NewEscalator(nil, fixedClock{monday}, fastSettings(), nil, nil).
		BuildPayload(context.Background(), session, domain.EscalationInstruction{Category: "customer_request"})

	assert.Equal(t, "gid://shopify/Order/1", payload.OrderID)
	assert.Equal(t, domain.PriorityNormal, payload.Priority)
	assert.Empty(t, payload.SubscriptionID)
}

func TestGeneratedSummaryFallsBackOnFailure(t *testing.T) {
	t.Parallel()

	settings := fastSettings()
	settings.GeneratedSummary = true

	reasoner := newFakeReasoner().answer(promptSummary, "Sarah wants a human to look at a double charge.")
	payload := NewEscalator(reasoner, fixedClock{monday}, settings, nil, nil).
		BuildPayload(context.Background(), testSession(), domain.EscalationInstruction{Category: domain.EscalationBilling})
	assert.Equal(t, "Sarah wants a human to look at a double charge.", payload.Summary)

	failing := newFakeReasoner()
	failing.completeFn = func(string) (string, error) { return "", errors.New("unavailable") }
	payload = NewEscalator(failing, fixedClock{monday}, settings, nil, nil).
		BuildPayload(context.Background(), testSession(), domain.EscalationInstruction{Category: domain.EscalationBilling, Reason: "double charge"})
	assert.Contains(t, payload.Summary, "Escalated as billing_error: double charge.")
}

func TestEscalationReplies(t *testing.T) {
	t.Parallel()

	persona := guardrail.DefaultPersona()

	standard := EscalationReply(persona, "Sarah", domain.EscalationUncertain)
	assert.Equal(t, "Hey Sarah, to make sure you get the best help, I'm looping in Monica, who is our Head of CS. She'll take the conversation from here. 💛\n\nCaz", standard)

	health := EscalationReply(persona, "Sarah", domain.EscalationHealth)
	assert.Contains(t, health, "stop using")
	assert.Contains(t, health, "health")
	assert.Contains(t, health, "Monica")

	technical := EscalationReply(persona, "Sarah", domain.EscalationTechnical)
	assert.Contains(t, technical, "let me have our team follow up")

	assert.Equal(t,
		"Hey Sarah, your issue has been escalated to Monica, our Head of CS. She'll be following up with you directly. Please hang tight! 💛\n\nCaz",
		LockedReply(persona, "Sarah"))
}
