package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/guardrail"
)

const (
	waitFriday   = "this Friday"
	waitNextWeek = "early next week"
)

type dayContext struct {
	Date    string
	Weekday time.Weekday
}

func newDayContext(now time.Time, loc *time.Location) dayContext {
	local := now.In(loc)
	return dayContext{Date: local.Format(time.DateOnly), Weekday: local.Weekday()}
}

// ShippingWaitPromise is the wait window for an order status check.
func (d dayContext) ShippingWaitPromise() string {
	switch d.Weekday {
	case time.Monday, time.Tuesday, time.Wednesday:
		return waitFriday
	default:
		return waitNextWeek
	}
}

// CancellationWaitPromise is the wait window offered before cancelling or
// refunding a delayed order.
func (d dayContext) CancellationWaitPromise() string {
	switch d.Weekday {
	case time.Monday, time.Tuesday:
		return waitFriday
	default:
		return waitNextWeek
	}
}

func classifierPrompt(message string) string {
	labels := make([]string, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		labels = append(labels, string(c))
	}

	return fmt.Sprintf(`Classify the customer message into exactly ONE category and rate your confidence (0-100).

CATEGORIES: %s
- WISMO: shipping status, tracking, "where is my order", entire order not arrived
- WRONG_MISSING: wrong, missing or damaged items from an arrived order
- NO_EFFECT: product not working, no results
- REFUND: refund or money back request, return request
- ORDER_MODIFY: cancel order, change address, modify order
- SUBSCRIPTION: cancel, pause or skip a subscription, billing issue, double charge
- DISCOUNT: promo or discount code problems
- POSITIVE: compliments and happy feedback
- GENERAL: greetings, general questions, anything else

If the message has several intents, classify by the PRIMARY request.
An order number alone does not make a message WISMO.

Response format (ONLY this, nothing else): CATEGORY|CONFIDENCE
Example: WISMO|92

Customer message: %s`, strings.Join(labels, ", "), message)
}

const idFormatBlock = `TOOL ID FORMATS:
- Lookup tools take the order NUMBER: shopify_get_order_details orderId "#43189".
- Action tools take the canonical id returned by a lookup: shopify_cancel_order, shopify_refund_order,
  shopify_create_return, shopify_update_order_shipping_address (orderId) and shopify_add_tags (id)
  need "gid://shopify/Order/...". Never invent a canonical id; look the order up first.`

const controlBlock = `HANDOFF AND ESCALATION:
If the request is outside your scope reply with exactly:
HANDOFF: [wismo_agent|issue_agent|account_agent] | REASON: [brief reason]
If a human must take over reply with exactly:
ESCALATE: [health_concern|chargeback_risk|billing_error|uncertain|customer_request] | REASON: [brief reason]
Never put THOUGHT, ACTION or OBSERVATION lines in the customer reply.`

func specialistBrief(agent domain.Specialist, day dayContext) string {
	switch agent {
	case domain.SpecialistWISMO:
		return fmt.Sprintf(`You are the order status specialist.
1. Find the order: by number with shopify_get_order_details, otherwise list recent orders with shopify_get_customer_orders and ask which one when there are several.
2. Report the status exactly as the tool returns it. Never say shipped for UNFULFILLED or delivered for in-transit orders.
3. For in-transit orders ask the customer to give it until %s and promise a fresh one on us if it still has not arrived. Never promise a specific date.
4. Tag the order you checked with shopify_add_tags.
5. If a follow-up shows the wait promise already passed, prepare a reship with shopify_create_draft_order and escalate.`, day.ShippingWaitPromise())
	case domain.SpecialistIssue:
		return `You are the order issue specialist: wrong or missing items, products with no effect, refunds and returns.
1. Ask for a description or photos before resolving wrong or missing items; ask about usage before resolving a no-effect complaint; ask the reason before any refund.
2. Resolution order: fix the issue, then a free reship, then store credit with a 10% bonus, then a cash refund only after the customer declines the alternatives.
3. Store credit goes to the customer id from the session. Refunds and returns need the canonical order id.`
	default:
		return fmt.Sprintf(`You are the account specialist: order changes, cancellations, shipping addresses, subscriptions, discounts and positive feedback.
1. Before cancelling a delayed order offer to wait until %s.
2. Address updates need every field: firstName, lastName, address1, city, provinceCode, country, zip, phone.
3. For subscriptions look up the status first, offer to pause or skip before cancelling, and pass cancellationReasons when cancelling.
4. At most one discount code per customer: 10%% off, valid 48 hours.
5. Thank customers warmly for positive feedback.`, day.CancellationWaitPromise())
	}
}

func specialistPrompt(agent domain.Specialist, session domain.Session, day dayContext, persona guardrail.Persona, aggressive bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nYou work for the customer support team. Sign every reply as %q.\n\n", specialistBrief(agent, day), persona.AgentName)
	fmt.Fprintf(&b, "CUSTOMER: %s | Email: %s | Customer id: %s\n", session.Customer.FullName(), session.Customer.Email, session.Customer.ExternalID)
	fmt.Fprintf(&b, "TODAY: %s | DAY: %s\n", day.Date, day.Weekday)
	if session.Context.OrderNumber != "" || session.Context.OrderID != "" {
		fmt.Fprintf(&b, "ACTIVE ORDER: %s %s\n", session.Context.OrderNumber, session.Context.OrderID)
	}
	if session.Context.SubscriptionID != "" {
		fmt.Fprintf(&b, "ACTIVE SUBSCRIPTION: %s\n", session.Context.SubscriptionID)
	}
	if aggressive {
		b.WriteString("NOTE: the customer used legal or chargeback language. Stay calm and empathetic; escalate a chargeback threat.\n")
	}
	b.WriteString("\n")
	b.WriteString(idFormatBlock)
	b.WriteString("\n\n")
	b.WriteString(controlBlock)

	return b.String()
}

func supervisorPrompt(session domain.Session, day dayContext, persona guardrail.Persona) string {
	return fmt.Sprintf(`You are the supervisor for customer support. The intent classifier could not route this message with confidence.

CUSTOMER: %s | Email: %s | Customer id: %s
TODAY: %s | DAY: %s
CUSTOMER TURNS SO FAR: %d

ROUTING RULES:
- wismo_agent: shipping delays, order tracking, delivery status
- issue_agent: wrong or missing items, product complaints, refunds, returns
- account_agent: order changes, subscriptions, billing, discounts, positive feedback
- respond_direct: greetings and general questions, you write the reply
- escalate: three or more unresolved turns, unclear or dangerous situations

Respond with ONLY this format:
ROUTE: [agent_name]
REASON: [brief explanation]
If ROUTE is respond_direct add a third line:
RESPONSE: [your helpful reply signed as %s]

CONVERSATION:
%s`,
		session.Customer.FullName(), session.Customer.Email, session.Customer.ExternalID,
		day.Date, day.Weekday, session.CustomerTurns(), persona.AgentName,
		transcript(session.Messages, historyExcerpt))
}

func reflectionPrompt(draft, toolResults, customerMessage string, turns int, day dayContext, persona guardrail.Persona) string {
	return fmt.Sprintf(`You are a QA reviewer for customer support. Review this draft BEFORE it is sent.

CHECK THESE 8 RULES (fail if ANY is violated):
1. RESOLUTION ORDER: fix, free reship, store credit (10%% bonus), cash refund. Jumping to a cash refund fails unless the customer declined the alternatives.
2. WAIT PROMISE: today is %s. Order status checks: Mon-Wed "this Friday", Thu-Sun "early next week". Cancellation or refund over a delay: Mon-Tue "this Friday", otherwise "early next week". Skip when not a shipping delay.
3. ESCALATION CHECK: reship needed, address errors, 3+ unresolved turns, health concerns, chargeback threats and double billing must escalate.
4. INFORMATION GATHERING: ask for photos or descriptions, usage details or the refund reason before acting, unless already given.
5. TONE & PERSONA: warm, uses the first name, signed as %q.
6. FACTUAL ACCURACY: the reply must match the tool results.
7. GID vs ORDER NUMBER: lookups use "#1234", actions use "gid://shopify/...".
8. WATERFALL COMPLETENESS: alternatives must be offered before the requested resolution on the first interaction.

DRAFT RESPONSE:
%s

TOOL CALL RESULTS:
%s

CUSTOMER MESSAGE:
%s

CONVERSATION TURN COUNT: %d

Respond with ONLY valid JSON:
{"pass": true} OR {"pass": false, "rule_violated": "RULE_NAME", "reason": "brief explanation", "suggested_fix": "what should change"}`,
		day.Weekday, persona.AgentName, draft, toolResults, customerMessage, turns)
}

const reflectionRetryPrompt = `Your previous response was not valid JSON. Respond with ONLY valid JSON, no markdown:
{"pass": true} OR {"pass": false, "rule_violated": "...", "reason": "...", "suggested_fix": "..."}`

func revisionPrompt(draft string, verdict domain.ReflectionVerdict, toolResults, firstName string, day dayContext, persona guardrail.Persona) string {
	return fmt.Sprintf(`You are correcting a customer support reply that failed quality review.

ORIGINAL RESPONSE:
%s

QUALITY ISSUE:
Rule violated: %s
Reason: %s
Suggested fix: %s

TOOL CALL RESULTS (ground truth):
%s

CUSTOMER: %s | TODAY: %s | DAY: %s

Rewrite the reply fixing ONLY the identified issue and keep everything else. Sign as %q.
Do not include internal notes, tool names, THOUGHT/ACTION/OBSERVATION markers or gid values.`,
		draft, verdict.Rule, verdict.Reason, verdict.SuggestedFix, toolResults,
		firstName, day.Date, day.Weekday, persona.AgentName)
}

func summaryPrompt(messages []domain.Message) string {
	return "Summarize this customer support interaction in 2-3 sentences for handoff to a human agent. " +
		"Include what the customer wants, what was tried, and why it is being escalated.\n\n" +
		transcript(messages, historyExcerpt)
}

func transcript(messages []domain.Message, last int) string {
	start := len(messages) - last
	if start < 0 {
		start = 0
	}

	lines := make([]string, 0, len(messages)-start)
	for _, msg := range messages[start:] {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}

	return strings.Join(lines, "\n")
}
