// Package trace renders session traces, session lists and escalation tickets
// for the terminal.
package trace

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/helpdesk-agent/internal/application"
	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// Messages includes the conversation transcript in a trace.
	Messages bool
}

const barWidth = 20

func Trace(t application.SessionTrace, opts RenderOptions) string {
	s := newStyles()

	lines := []string{
		s.title.Render("Session " + t.SessionID),
		s.header.Render(fmt.Sprintf("customer: %s <%s>  turns: %d  %s",
			customerName(t.Customer), t.Customer.Email, t.TurnCount, formatAge(t.UpdatedAt, opts.Now))),
		intentLine(t.Intent, t.IntentConfidence, s),
		s.detail.Render("agent: " + labelOr(string(t.Agent), "none")),
		flagsLine(t, s),
	}

	if opts.Messages && len(t.Messages) > 0 {
		lines = append(lines, s.section.Render(messagesBlock(t.Messages, s)))
	}

	lines = append(lines, s.section.Render(eventsBlock(t.Events, s)))

	if t.FinalResponse != "" {
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left,
			s.title.Render("Final response"),
			s.detail.Render(t.FinalResponse),
		)))
	}
	if len(t.ActionsTaken) > 0 {
		lines = append(lines, s.section.Render(bulletBlock("Actions taken", t.ActionsTaken, s)))
	}
	if t.Escalation != nil {
		lines = append(lines, s.section.Render(escalationBlock(*t.Escalation, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func Sessions(summaries []application.SessionSummary, opts RenderOptions) string {
	s := newStyles()
	lines := []string{
		s.title.Render("Sessions"),
		s.header.Render(fmt.Sprintf("sessions: %d", len(summaries))),
	}

	if len(summaries) == 0 {
		lines = append(lines, s.empty.Render("No sessions yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, summary := range summaries {
		status := s.ok.Render("open")
		if summary.Escalated {
			status = s.warning.Render("escalated")
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			s.session.Render(summary.SessionID),
			"  ",
			s.detail.Render(summary.CustomerEmail),
			"  ",
			s.header.Render(fmt.Sprintf("%s/%s  turns: %d  %s",
				labelOr(string(summary.Intent), "-"),
				labelOr(string(summary.Agent), "-"),
				summary.Turns,
				formatAge(summary.UpdatedAt, opts.Now))),
			"  ",
			status,
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func Escalations(tickets []ports.EscalationTicket, opts RenderOptions) string {
	s := newStyles()
	lines := []string{
		s.title.Render("Escalations"),
		s.header.Render(fmt.Sprintf("tickets: %d", len(tickets))),
	}

	if len(tickets) == 0 {
		lines = append(lines, s.empty.Render("No escalations queued."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, ticket := range tickets {
		p := ticket.Payload
		priority := s.detail.Render(string(p.Priority))
		if p.Priority == domain.PriorityHigh {
			priority = s.warning.Render(string(p.Priority))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top,
				s.session.Render(fmt.Sprintf("#%d %s", ticket.ID, ticket.SessionID)),
				"  ",
				priority,
				"  ",
				s.header.Render(fmt.Sprintf("%s  %s", p.Category, formatAge(p.CreatedAt, opts.Now))),
			),
			s.detail.Render(fmt.Sprintf("%s <%s>", p.CustomerName, p.CustomerEmail)),
			s.detail.Render(p.Summary),
		)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func intentLine(intent domain.Category, confidence int, s styles) string {
	if intent == "" {
		return s.detail.Render("intent: unclassified")
	}

	percent := float64(clamp(confidence, 0, 100))
	meta := lipgloss.NewStyle().Foreground(interpolateColor(percent, 0, 100)).Render(fmt.Sprintf("%3d%%", confidence))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		s.detail.Render(fmt.Sprintf("intent: %s ", intent)),
		renderConfidenceBar(percent, barWidth, s),
		" ",
		meta,
	)
}

func flagsLine(t application.SessionTrace, s styles) string {
	var flags []string
	if t.Escalated {
		flags = append(flags, s.warning.Render("[escalated]"))
	}
	if t.Revised {
		flags = append(flags, s.tool.Render("[revised]"))
	}
	if t.IntentShifted {
		flags = append(flags, s.tool.Render("[intent shifted]"))
	}
	if len(t.Handoffs) > 0 {
		flags = append(flags, s.header.Render("handoffs: "+strings.Join(t.Handoffs, ", ")))
	}
	if len(t.GuardrailBlocks) > 0 {
		flags = append(flags, s.warning.Render("guardrail: "+strings.Join(t.GuardrailBlocks, ", ")))
	}
	if len(t.ReflectionViolations) > 0 {
		flags = append(flags, s.warning.Render("reflection: "+strings.Join(t.ReflectionViolations, ", ")))
	}
	if len(flags) == 0 {
		return s.empty.Render("no flags")
	}

	return strings.Join(flags, " ")
}

func eventsBlock(events []domain.TraceEvent, s styles) string {
	lines := []string{s.title.Render(fmt.Sprintf("Last turn (%d events)", len(events)))}
	if len(events) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, append(lines, s.empty.Render("No trace events recorded."))...)
	}

	for _, event := range events {
		lines = append(lines, eventLine(event, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func eventLine(event domain.TraceEvent, s styles) string {
	parts := []string{
		s.state.Render(event.State),
		s.kind.Render(string(event.Kind)),
	}
	if event.Agent != "" {
		parts = append(parts, s.agent.Render(event.Agent), " ")
	}

	detail := event.Detail
	if event.Tool != "" {
		detail = strings.TrimSpace(fmt.Sprintf("%s %s", s.tool.Render(event.Tool+compactArgs(event.ToolArgs)), detail))
	}
	if event.Confidence != nil {
		detail += fmt.Sprintf(" (confidence %d)", *event.Confidence)
	}
	parts = append(parts, s.detail.Render(detail))

	if event.Passed != nil {
		if *event.Passed {
			parts = append(parts, " ", s.ok.Render("pass"))
		} else {
			parts = append(parts, " ", s.warning.Render("fail"))
		}
	}
	if event.ToolResult != nil && !event.ToolResult.Success {
		parts = append(parts, " ", s.warning.Render("error: "+event.ToolResult.Error))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func messagesBlock(messages []domain.Message, s styles) string {
	lines := []string{s.title.Render("Conversation")}
	for _, msg := range messages {
		label := s.agent.Render("agent:    ")
		if msg.Role == domain.RoleCustomer {
			label = s.customer.Render("customer: ")
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label, s.detail.Render(msg.Content)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func escalationBlock(p domain.EscalationPayload, s styles) string {
	return lipgloss.JoinVertical(lipgloss.Left,
		s.title.Render("Escalation"),
		s.detail.Render(fmt.Sprintf("category: %s  priority: %s  to: %s", p.Category, p.Priority, p.EscalatedTo)),
		s.detail.Render("summary: "+p.Summary),
	)
}

func bulletBlock(title string, items []string, s styles) string {
	lines := []string{s.title.Render(title)}
	for _, item := range items {
		lines = append(lines, s.detail.Render("- "+item))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderConfidenceBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := clamp(int(math.Round(float64(width)*percent/100)), 0, width)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

// compactArgs renders tool args as a short JSON suffix, truncated for display.
func compactArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	out := string(raw)
	if len(out) > 80 {
		out = out[:77] + "..."
	}

	return " " + out
}

func formatAge(at, now time.Time) string {
	if at.IsZero() {
		return "never updated"
	}
	if now.IsZero() {
		return "at " + at.UTC().Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return plural(int(math.Floor(elapsed.Hours()/24)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func customerName(c domain.Customer) string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func labelOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, 240 (faded) to 255 (bright white).
	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
