package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionWithLog(entries ...domain.ToolCallLogEntry) domain.Session {
	session := testSession()
	session.BeginTurn()
	session.AppendMessage(domain.RoleCustomer, "where is order #43189?", monday)
	for i := range entries {
		entries[i].Turn = session.TurnCount
	}
	session.ToolLog = entries

	return session
}

func orderDetails(status string) domain.ToolCallLogEntry {
	return domain.ToolCallLogEntry{
		Tool: domain.ToolGetOrderDetails,
		Args: map[string]any{"orderId": "#43189"},
		Result: domain.Succeeded(map[string]any{
			"id":     "gid://shopify/Order/5531567751245",
			"name":   "#43189",
			"status": status,
		}),
	}
}

func TestCheckRulesPassesGroundedReply(t *testing.T) {
	t.Parallel()

	reflector := NewReflector(nil, fixedClock{monday}, fastSettings(), nil, nil)
	session := sessionWithLog(orderDetails("FULFILLED"))

	verdict := reflector.CheckRules(session, "Hey Sarah, order #43189 is on its way! Give it until this Friday. 💛\n\nCaz", domain.SpecialistWISMO)
	assert.True(t, verdict.Passed)
}

func TestCheckRulesWaitPromiseFollowsWeekday(t *testing.T) {
	t.Parallel()

	thursday := monday.Add(3 * 24 * time.Hour)
	reflector := NewReflector(nil, fixedClock{thursday}, fastSettings(), nil, nil)
	session := sessionWithLog(orderDetails("FULFILLED"))

	verdict := reflector.CheckRules(session, "Hey Sarah, order #43189 is on its way! Give it until this Friday. 💛\n\nCaz", domain.SpecialistWISMO)
	assert.False(t, verdict.Passed)
	assert.Equal(t, RuleWaitPromise, verdict.Rule)
	assert.Contains(t, verdict.SuggestedFix, "early next week")

	verdict = reflector.CheckRules(session, "Hey Sarah, order #43189 is on its way! Give it until early next week. 💛\n\nCaz", domain.SpecialistWISMO)
	assert.True(t, verdict.Passed)
}

func TestCheckRulesCancellationPromiseOnWednesday(t *testing.T) {
	t.Parallel()

	wednesday := monday.Add(2 * 24 * time.Hour)
	reflector := NewReflector(nil, fixedClock{wednesday}, fastSettings(), nil, nil)
	session := sessionWithLog()

	verdict := reflector.CheckRules(session, "Hey Sarah, could you give it until this Friday before we cancel? 💛\n\nCaz", domain.SpecialistAccount)
	assert.False(t, verdict.Passed)
	assert.Equal(t, RuleWaitPromise, verdict.Rule)
}

func TestCheckRulesFactualAccuracy(t *testing.T) {
	t.Parallel()

	reflector := NewReflector(nil, fixedClock{monday}, fastSettings(), nil, nil)

	unfulfilled := sessionWithLog(orderDetails("UNFULFILLED"))
	verdict := reflector.CheckRules(unfulfilled, "Hey Sarah, good news, order #43189 has shipped! 💛\n\nCaz", domain.SpecialistWISMO)
	assert.Equal(t, RuleFactualAccuracy, verdict.Rule)

	verdict = reflector.CheckRules(unfulfilled, "Hey Sarah, order #43189 hasn't shipped yet, it's being prepared. 💛\n\nCaz", domain.SpecialistWISMO)
	assert.True(t, verdict.Passed)

	verdict = reflector.CheckRules(unfulfilled, "Hey Sarah, I checked order #99999 and it's being prepared. 💛\n\nCaz", domain.SpecialistWISMO)
	assert.Equal(t, RuleFactualAccuracy, verdict.Rule)
	assert.Contains(t, verdict.Reason, "#99999")
}

func TestCheckRulesResolutionOrder(t *testing.T) {
	t.Parallel()

	reflector := NewReflector(nil, fixedClock{monday}, fastSettings(), nil, nil)
	refund := domain.ToolCallLogEntry{
		Tool:   domain.ToolRefundOrder,
		Args:   map[string]any{"orderId": "gid://shopify/Order/5531567751245"},
		Result: domain.Succeeded(map[string]any{"refunded": true}),
	}

	session := sessionWithLog(refund)
	verdict := reflector.CheckRules(session, "Hey Sarah, your refund for #43189 is being processed. 💛\n\nCaz", domain.SpecialistIssue)
	assert.Equal(t, RuleResolutionOrder, verdict.Rule)

	session.Messages = append([]domain.Message{{Role: domain.RoleAgent, Content: "Would store credit with a 10% bonus work instead?"}}, session.Messages...)
	verdict = reflector.CheckRules(session, "Hey Sarah, your refund for #43189 is being processed. 💛\n\nCaz", domain.SpecialistIssue)
	assert.True(t, verdict.Passed)
}

func TestCheckRulesInformationGathering(t *testing.T) {
	t.Parallel()

	reflector := NewReflector(nil, fixedClock{monday}, fastSettings(), nil, nil)
	session := sessionWithLog(domain.ToolCallLogEntry{
		Tool:   domain.ToolCreateStoreCredit,
		Result: domain.Succeeded(map[string]any{"credited": map[string]any{"amount": "30.79"}}),
	})
	session.Intent = domain.CategoryWrongMissing

	verdict := reflector.CheckRules(session, "Hey Sarah, I've added store credit to your account for order #43189. 💛\n\nCaz", domain.SpecialistIssue)
	assert.Equal(t, RuleInformation, verdict.Rule)
}

func TestCheckRulesIdentifierShape(t *testing.T) {
	t.Parallel()

	reflector := NewReflector(nil, fixedClock{monday}, fastSettings(), nil, nil)
	session := sessionWithLog(domain.ToolCallLogEntry{
		Tool:    domain.ToolCancelOrder,
		Args:    map[string]any{"orderId": "#43189"},
		Blocked: true,
		Result:  domain.Failed("Guardrail: Tool 'shopify_cancel_order' requires a canonical identifier (gid://shopify/...) in \"orderId\", got '#43189'."),
	})

	verdict := reflector.CheckRules(session, "Hey Sarah, order #43189 has been cancelled for you. 💛\n\nCaz", domain.SpecialistAccount)
	assert.Equal(t, RuleIdentifierShape, verdict.Rule)
}

func TestParseReviewerVerdict(t *testing.T) {
	t.Parallel()

	verdict, ok := parseReviewerVerdict("```json\n{\"pass\": false, \"rule_violated\": \"TONE & PERSONA\", \"reason\": \"cold\", \"suggested_fix\": \"be warm\"}\n```")
	require.True(t, ok)
	assert.False(t, verdict.Passed)
	assert.Equal(t, "TONE & PERSONA", verdict.Rule)
	assert.Equal(t, "be warm", verdict.SuggestedFix)

	verdict, ok = parseReviewerVerdict(`Sure! {"pass": true} hope that helps`)
	require.True(t, ok)
	assert.True(t, verdict.Passed)

	_, ok = parseReviewerVerdict("looks fine to me")
	assert.False(t, ok)
}

func TestReviewRetriesOnceThenDefaultsToPass(t *testing.T) {
	t.Parallel()

	reasoner := newFakeReasoner().answer(promptReview, "not json", "still not json")
	reflector := NewReflector(reasoner, fixedClock{monday}, fastSettings(), nil, nil)

	verdict, err := reflector.Review(context.Background(), sessionWithLog(), "Hey Sarah, all good here! 💛\n\nCaz")
	require.NoError(t, err)
	assert.True(t, verdict.Passed)
	assert.Equal(t, []string{promptReview, promptReview}, reasoner.completeKinds())
}

func TestReviewReportsTransportFailure(t *testing.T) {
	t.Parallel()

	reasoner := newFakeReasoner()
	reasoner.completeFn = func(string) (string, error) { return "", errors.New("connection refused") }
	reflector := NewReflector(reasoner, fixedClock{monday}, fastSettings(), nil, nil)

	verdict, err := reflector.Review(context.Background(), sessionWithLog(), "Hey Sarah, all good here! 💛\n\nCaz")
	require.ErrorIs(t, err, domain.ErrTransport)
	assert.True(t, verdict.Passed)
}

func TestReviseScrubsMarkers(t *testing.T) {
	t.Parallel()

	reasoner := newFakeReasoner().answer(promptRevise, "Thought: fix tone\nHey Sarah, sorted! Give it until this Friday. 💛\n\nCaz")
	reflector := NewReflector(reasoner, fixedClock{monday}, fastSettings(), nil, nil)

	revised, err := reflector.Revise(context.Background(), sessionWithLog(), "draft", domain.ReflectionVerdict{Rule: RuleWaitPromise})
	require.NoError(t, err)
	assert.Equal(t, "Hey Sarah, sorted! Give it until this Friday. 💛\n\nCaz", revised)
}
