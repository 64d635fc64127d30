package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/guardrail"
	"github.com/bnema/helpdesk-agent/internal/ports"
	"go.uber.org/zap"
)

const summaryMaxTokens = 256

type Escalator struct {
	reasoner  ports.Reasoner
	clock     ports.Clock
	settings  Settings
	telemetry ports.Telemetry
	logger    *zap.Logger
}

func NewEscalator(reasoner ports.Reasoner, clock ports.Clock, settings Settings, telemetry ports.Telemetry, logger *zap.Logger) *Escalator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if telemetry == nil {
		telemetry = ports.NopTelemetry{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Escalator{reasoner: reasoner, clock: clock, settings: settings.withDefaults(), telemetry: telemetry, logger: logger}
}

// BuildPayload assembles the operator hand-off for session. Identifiers come
// from the session context first and the tool log second.
func (e *Escalator) BuildPayload(ctx context.Context, session domain.Session, instruction domain.EscalationInstruction) domain.EscalationPayload {
	orderID, subscriptionID := resolveIdentifiers(session)
	category := instruction.Category
	if category == "" {
		category = domain.EscalationUncertain
	}

	summary := e.summary(ctx, session, category, instruction.Reason)
	if drafts := draftOrderIDs(session.ToolLog); len(drafts) > 0 {
		summary += fmt.Sprintf(" Draft order(s) created: %s.", strings.Join(drafts, ", "))
	}

	return domain.EscalationPayload{
		CustomerName:        session.Customer.FullName(),
		CustomerEmail:       session.Customer.Email,
		OrderID:             orderID,
		SubscriptionID:      subscriptionID,
		Category:            category,
		Priority:            category.Priority(),
		Summary:             summary,
		ActionsTaken:        append([]string{}, session.ActionsTaken...),
		ConversationHistory: historyLines(session.Messages, historyExcerpt),
		EscalatedTo:         e.settings.EscalatedTo(),
		CreatedAt:           e.clock.Now(),
	}
}

func (e *Escalator) summary(ctx context.Context, session domain.Session, category domain.EscalationCategory, reason string) string {
	if e.settings.GeneratedSummary && e.reasoner != nil {
		started := time.Now()
		text, err := withRetry(ctx, e.settings.Reasoning, func(ctx context.Context) (string, error) {
			return e.reasoner.Complete(ctx, ports.CompletionRequest{
				Tier:      ports.ModelFast,
				Prompt:    summaryPrompt(session.Messages),
				MaxTokens: summaryMaxTokens,
			})
		})
		if err == nil && strings.TrimSpace(text) != "" {
			e.telemetry.ReasonerCalled("summary", "ok", time.Since(started))
			return strings.TrimSpace(text)
		}
		e.telemetry.ReasonerCalled("summary", "error", time.Since(started))
		e.logger.Warn("escalation summary generation failed, using fallback",
			zap.String("session_id", session.ID), zap.Error(err))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Escalated as %s", category)
	if reason != "" {
		fmt.Fprintf(&b, ": %s", reason)
	}
	b.WriteString(".")
	if session.Intent != "" {
		fmt.Fprintf(&b, " Detected intent %s.", session.Intent)
	}
	if last := session.LastCustomerMessage(); last != "" {
		fmt.Fprintf(&b, " Last customer message: %q.", last)
	}
	if len(session.ActionsTaken) > 0 {
		fmt.Fprintf(&b, " Actions taken: %s.", strings.Join(session.ActionsTaken, "; "))
	}

	return b.String()
}

// Reply is the fixed customer message sent when a turn escalates.
func (e *Escalator) Reply(session domain.Session, category domain.EscalationCategory) string {
	return EscalationReply(e.settings.Persona, session.Customer.Greeting(), category)
}

func EscalationReply(persona guardrail.Persona, firstName string, category domain.EscalationCategory) string {
	switch category {
	case domain.EscalationHealth:
		return persona.Sign(fmt.Sprintf(
			"Hey %s, I'm so sorry to hear this. Please stop using the product right away, your health comes first. "+
				"I'm looping in %s, our %s, who will follow up with you directly. 💛",
			firstName, persona.LeadName, persona.LeadTitle))
	case domain.EscalationTechnical:
		return persona.Sign(fmt.Sprintf(
			"Hey %s, I'm having trouble pulling up your details right now, so let me have our team follow up with you directly. "+
				"%s, our %s, will reach out shortly. 💛",
			firstName, persona.LeadName, persona.LeadTitle))
	default:
		return persona.Sign(fmt.Sprintf(
			"Hey %s, to make sure you get the best help, I'm looping in %s, who is our %s. %s'll take the conversation from here. 💛",
			firstName, persona.LeadName, persona.LeadTitle, persona.LeadPronoun))
	}
}

// LockedReply is sent, byte for byte, on every turn after escalation.
func LockedReply(persona guardrail.Persona, firstName string) string {
	return persona.Sign(fmt.Sprintf(
		"Hey %s, your issue has been escalated to %s, our %s. %s'll be following up with you directly. Please hang tight! 💛",
		firstName, persona.LeadName, persona.LeadTitle, persona.LeadPronoun))
}

func resolveIdentifiers(session domain.Session) (string, string) {
	orderID := session.Context.OrderID
	subscriptionID := session.Context.SubscriptionID

	for i := len(session.ToolLog) - 1; i >= 0 && (orderID == "" || subscriptionID == ""); i-- {
		entry := session.ToolLog[i]
		data, _ := entry.Result.DataMap()
		for _, source := range []map[string]any{entry.Args, data} {
			if source == nil {
				continue
			}
			if orderID == "" {
				for _, key := range []string{"orderId", "id"} {
					if v, ok := source[key].(string); ok && strings.HasPrefix(v, domain.OrderGIDPrefix) {
						orderID = v
						break
					}
				}
			}
			if subscriptionID == "" {
				if v, ok := source["subscriptionId"].(string); ok && v != "" {
					subscriptionID = v
				}
			}
		}
	}

	return orderID, subscriptionID
}

func draftOrderIDs(log []domain.ToolCallLogEntry) []string {
	var ids []string
	for _, entry := range log {
		if entry.Tool != domain.ToolCreateDraftOrder || !entry.Result.Success {
			continue
		}
		data, _ := entry.Result.DataMap()
		if id, ok := data["draftOrderId"].(string); ok && id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}

func historyLines(messages []domain.Message, last int) []string {
	start := max(0, len(messages)-last)
	lines := make([]string, 0, len(messages)-start)
	for _, msg := range messages[start:] {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}

	return lines
}
