package guardrail

import (
	"fmt"
	"math"
	"strings"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

const (
	RuleOutput = "OUTPUT_GUARDRAILS"

	handoffPrefix    = "HANDOFF:"
	escalationPrefix = "ESCALATE:"
	reasonPrefix     = "REASON:"
)

type OutputContext struct {
	PendingRefund *float64
	OrderTotal    *float64
	Persona       Persona
}

type OutputResult struct {
	domain.GuardrailVerdict
	Shape      domain.DraftShape
	Handoff    *domain.HandoffInstruction
	Escalation *domain.EscalationInstruction
	// Correction is pre-populated for the revision step when the check fails.
	Correction *domain.ReflectionVerdict
}

// ClassifyDraft tells a control line apart from a customer-facing reply.
func ClassifyDraft(draft string) domain.DraftShape {
	trimmed := strings.TrimSpace(draft)
	switch {
	case strings.HasPrefix(trimmed, handoffPrefix):
		return domain.DraftHandoff
	case strings.HasPrefix(trimmed, escalationPrefix):
		return domain.DraftEscalation
	default:
		return domain.DraftReply
	}
}

// IsControlLine reports whether text is a handoff or escalation instruction.
func IsControlLine(text string) bool {
	return ClassifyDraft(text) != domain.DraftReply
}

// ParseHandoff reads "HANDOFF: target | REASON: text". The target is returned
// as written; validation belongs to the handoff router.
func ParseHandoff(draft string) domain.HandoffInstruction {
	head, reason := splitControl(draft, handoffPrefix)
	return domain.HandoffInstruction{
		Target: domain.Specialist(strings.ToLower(head)),
		Reason: reason,
	}
}

// ParseEscalation reads "ESCALATE: category | REASON: text".
func ParseEscalation(draft string) domain.EscalationInstruction {
	head, reason := splitControl(draft, escalationPrefix)
	return domain.EscalationInstruction{
		Category: domain.ParseEscalationCategory(head),
		Reason:   reason,
	}
}

func splitControl(draft, prefix string) (string, string) {
	trimmed := strings.TrimSpace(draft)
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	trimmed = trimPrefixFold(trimmed, prefix)

	parts := strings.SplitN(trimmed, "|", 2)
	head := strings.TrimSpace(parts[0])
	reason := ""
	if len(parts) > 1 {
		reason = trimPrefixFold(strings.TrimSpace(parts[1]), reasonPrefix)
	}

	return head, reason
}

func trimPrefixFold(s, prefix string) string {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		s = s[len(prefix):]
	}

	return strings.TrimSpace(s)
}

// refundCeiling is the largest pending refund allowed for total, in cents
// like the marked-up store credit it is compared with.
func refundCeiling(total float64) float64 {
	return math.Round(total*refundTolerance*100) / 100
}

func CheckOutput(draft string, ctx OutputContext) OutputResult {
	switch ClassifyDraft(draft) {
	case domain.DraftHandoff:
		handoff := ParseHandoff(draft)
		return OutputResult{
			GuardrailVerdict: domain.GuardrailVerdict{Passed: true},
			Shape:            domain.DraftHandoff,
			Handoff:          &handoff,
		}
	case domain.DraftEscalation:
		escalation := ParseEscalation(draft)
		return OutputResult{
			GuardrailVerdict: domain.GuardrailVerdict{Passed: true},
			Shape:            domain.DraftEscalation,
			Escalation:       &escalation,
		}
	}

	persona := ctx.Persona
	if persona.AgentName == "" {
		persona = DefaultPersona()
	}

	lower := normalize(draft)
	violations := make([]string, 0)

	for _, fp := range forbiddenPhrases {
		if strings.Contains(lower, fp.phrase) {
			violations = append(violations, fmt.Sprintf("FORBIDDEN_PHRASE: %q (%s)", fp.phrase, fp.reason))
		}
	}

	if !strings.Contains(lower, strings.ToLower(persona.AgentName)) {
		violations = append(violations, fmt.Sprintf("PERSONA: reply is missing the %s signature", persona.AgentName))
	}

	for _, name := range competitors {
		if strings.Contains(lower, name) {
			violations = append(violations, fmt.Sprintf("COMPETITOR: mentions %q", name))
		}
	}

	if ctx.PendingRefund != nil && ctx.OrderTotal != nil && *ctx.PendingRefund > refundCeiling(*ctx.OrderTotal) {
		violations = append(violations, fmt.Sprintf("AMOUNT: pending refund %.2f exceeds order total %.2f plus 10%%", *ctx.PendingRefund, *ctx.OrderTotal))
	}

	if len([]rune(strings.TrimSpace(draft))) < minReplyChars {
		violations = append(violations, "LENGTH: reply too short for customer communication")
	}

	for _, pattern := range internalKeywords {
		if strings.Contains(lower, pattern) {
			violations = append(violations, fmt.Sprintf("INTERNAL_LEAK: contains %q", pattern))
		}
	}

	if len(violations) == 0 {
		return OutputResult{
			GuardrailVerdict: domain.GuardrailVerdict{Passed: true},
			Shape:            domain.DraftReply,
		}
	}

	return OutputResult{
		GuardrailVerdict: domain.GuardrailVerdict{Passed: false, Violations: violations},
		Shape:            domain.DraftReply,
		Correction: &domain.ReflectionVerdict{
			Passed:       false,
			Rule:         RuleOutput,
			Reason:       strings.Join(violations, "; "),
			SuggestedFix: fmt.Sprintf("Remove forbidden or internal content, keep the %s signature, and rephrase any problematic claims or mentions.", persona.AgentName),
		},
	}
}
