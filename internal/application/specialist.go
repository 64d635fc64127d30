package application

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/guardrail"
	"github.com/bnema/helpdesk-agent/internal/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const toolTransportError = "API timeout after retry, please try again"

var tracer = otel.Tracer("helpdesk.application")

var (
	reasoningMarkers = []string{"thought:", "action:", "observation:"}
	blankRuns        = regexp.MustCompile(`\n{3,}`)
)

// ScrubMarkers removes leaked reasoning markers from a draft. A handoff or
// escalation line anywhere in the text wins and is returned on its own.
func ScrubMarkers(text string) string {
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		switch {
		case strings.HasPrefix(lower, "handoff:"):
			return "HANDOFF:" + trimmed[len("handoff:"):]
		case strings.HasPrefix(lower, "escalate:"):
			return "ESCALATE:" + trimmed[len("escalate:"):]
		}
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		marker := false
		for _, m := range reasoningMarkers {
			if strings.HasPrefix(lower, m) {
				marker = true
				break
			}
		}
		if !marker {
			kept = append(kept, line)
		}
	}

	return blankRuns.ReplaceAllString(strings.TrimSpace(strings.Join(kept, "\n")), "\n\n")
}

type RunOptions struct {
	Aggressive bool
	Record     func(domain.TraceEvent)
}

type SpecialistRunner struct {
	reasoner  ports.Reasoner
	commerce  ports.CommerceAPI
	clock     ports.Clock
	settings  Settings
	telemetry ports.Telemetry
	logger    *zap.Logger
}

func NewSpecialistRunner(reasoner ports.Reasoner, commerce ports.CommerceAPI, clock ports.Clock, settings Settings, telemetry ports.Telemetry, logger *zap.Logger) *SpecialistRunner {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if telemetry == nil {
		telemetry = ports.NopTelemetry{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SpecialistRunner{
		reasoner:  reasoner,
		commerce:  commerce,
		clock:     clock,
		settings:  settings.withDefaults(),
		telemetry: telemetry,
		logger:    logger,
	}
}

// Run drives one bounded reason/act/observe loop for agent and returns exactly
// one candidate reply. Tool calls, their results and the context they reveal
// are written to session. Only a reasoning transport failure is returned as an
// error.
func (r *SpecialistRunner) Run(ctx context.Context, session *domain.Session, agent domain.Specialist, opts RunOptions) (string, error) {
	ctx, span := tracer.Start(ctx, "specialist.Run",
		trace.WithAttributes(
			attribute.String("session.id", session.ID),
			attribute.String("specialist", string(agent)),
		))
	defer span.End()

	record := opts.Record
	if record == nil {
		record = func(domain.TraceEvent) {}
	}

	system := specialistPrompt(agent, *session, newDayContext(r.clock.Now(), r.settings.Location), r.settings.Persona, opts.Aggressive)
	conversation := chatHistory(session.Messages)
	tools := Toolbox(agent)
	lastText := ""

	for iteration := 1; iteration <= r.settings.MaxIterations; iteration++ {
		started := time.Now()
		result, err := withRetry(ctx, r.settings.Reasoning, func(ctx context.Context) (ports.ReasonResult, error) {
			return r.reasoner.Reason(ctx, ports.ReasonRequest{System: system, Messages: conversation, Tools: tools})
		})
		if err != nil {
			r.telemetry.ReasonerCalled("specialist", "error", time.Since(started))
			span.RecordError(err)
			span.SetStatus(codes.Error, "reasoning transport failure")
			return "", fmt.Errorf("run %s iteration %d: %w", agent, iteration, err)
		}
		r.telemetry.ReasonerCalled("specialist", "ok", time.Since(started))

		if strings.TrimSpace(result.Text) != "" {
			lastText = result.Text
		}

		if len(result.ToolCalls) == 0 {
			record(domain.TraceEvent{
				Kind:   domain.TraceReactStep,
				Agent:  string(agent),
				Detail: fmt.Sprintf("iteration %d: final response generated", iteration),
			})
			if reply := ScrubMarkers(result.Text); reply != "" {
				return reply, nil
			}
			break
		}

		conversation = append(conversation, ports.ChatMessage{
			Role:      ports.ChatAssistant,
			Content:   result.Text,
			ToolCalls: result.ToolCalls,
		})

		for _, call := range result.ToolCalls {
			record(domain.TraceEvent{
				Kind:   domain.TraceReactStep,
				Agent:  string(agent),
				Detail: fmt.Sprintf("iteration %d: calling %s", iteration, call.Name),
			})

			observation := r.execute(ctx, session, agent, call, record)
			payload, err := json.Marshal(observation)
			if err != nil {
				payload = []byte(`{"success":false,"error":"unreadable tool result"}`)
			}
			conversation = append(conversation, ports.ChatMessage{
				Role:       ports.ChatTool,
				Content:    string(payload),
				ToolCallID: call.ID,
			})
		}
	}

	span.SetAttributes(attribute.Bool("specialist.exhausted", true))
	if reply := ScrubMarkers(lastText); reply != "" {
		return reply, nil
	}

	return r.settings.Persona.Sign(fmt.Sprintf(
		"Hey %s, I'm still looking into this for you. Give me just a moment and I'll follow up shortly. 💛",
		session.Customer.Greeting())), nil
}

func (r *SpecialistRunner) execute(ctx context.Context, session *domain.Session, agent domain.Specialist, call domain.ToolCall, record func(domain.TraceEvent)) domain.ToolResult {
	entry := domain.ToolCallLogEntry{
		Tool:       call.Name,
		Args:       call.Args,
		Specialist: agent,
		Turn:       session.TurnCount,
		At:         r.clock.Now(),
	}
	outcome := "success"

	switch {
	case !inToolbox(agent, call.Name):
		entry.Result = domain.Failed(fmt.Sprintf("Unknown tool: %s", call.Name))
		outcome = "unknown"

	default:
		verdict := guardrail.CheckToolCall(call.Name, call.Args, guardrail.ToolSnapshot{
			CustomerID:           session.Customer.ExternalID,
			CustomerEmail:        session.Customer.Email,
			DiscountCodesCreated: session.Context.DiscountCodesCreated,
			Log:                  session.ToolLog,
		})
		entry.Args = verdict.Args

		if !verdict.Allowed {
			entry.Result = domain.Failed("Guardrail: " + verdict.Reason)
			entry.Blocked = true
			outcome = "blocked"
			r.telemetry.GuardrailTripped("tool", call.Name)
			break
		}

		result, err := r.invoke(ctx, call.Name, verdict.Args)
		if err != nil {
			r.logger.Warn("tool transport failure",
				zap.String("session_id", session.ID),
				zap.String("tool", call.Name),
				zap.Error(err))
			entry.Result = domain.Failed(toolTransportError)
			entry.Transport = true
			outcome = "transport"
			record(domain.TraceEvent{
				Kind:   domain.TraceTransportFailure,
				Agent:  string(agent),
				Tool:   call.Name,
				Detail: toolTransportError,
			})
			break
		}

		entry.Result = result.Normalize()
		if !entry.Result.Success {
			outcome = "failed"
		}
	}

	session.ToolLog = append(session.ToolLog, entry)
	updateOrderContext(session, entry)
	if domain.IsMutatingTool(call.Name) {
		status := "failed"
		if entry.Result.Success {
			status = "success"
		}
		session.ActionsTaken = append(session.ActionsTaken, fmt.Sprintf("%s: %s", call.Name, status))
	}

	r.telemetry.ToolCalled(call.Name, outcome)
	result := entry.Result
	record(domain.TraceEvent{
		Kind:       domain.TraceToolCall,
		Agent:      string(agent),
		Tool:       call.Name,
		ToolArgs:   entry.Args,
		ToolResult: &result,
		Detail:     outcome,
	})

	return entry.Result
}

func (r *SpecialistRunner) invoke(ctx context.Context, tool string, args map[string]any) (domain.ToolResult, error) {
	ctx, span := tracer.Start(ctx, "commerce.Execute", trace.WithAttributes(attribute.String("tool", tool)))
	defer span.End()

	result, err := withRetry(ctx, r.settings.Tools, func(ctx context.Context) (domain.ToolResult, error) {
		return r.commerce.Execute(ctx, tool, args)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tool transport failure")
		return domain.ToolResult{}, err
	}

	return result, nil
}

// updateOrderContext keeps the identifiers a later escalation or guardrail
// needs live on the session.
func updateOrderContext(session *domain.Session, entry domain.ToolCallLogEntry) {
	ctx := &session.Context

	if orderID, ok := entry.Args["orderId"].(string); ok {
		switch {
		case strings.HasPrefix(orderID, domain.OrderGIDPrefix):
			ctx.OrderID = orderID
		case domain.IsDisplayOrderNumber(orderID):
			ctx.OrderNumber = orderID
		}
	}
	if subID, ok := entry.Args["subscriptionId"].(string); ok && subID != "" {
		ctx.SubscriptionID = subID
	}

	if !entry.Result.Success {
		return
	}
	data, _ := entry.Result.DataMap()

	switch entry.Tool {
	case domain.ToolGetOrderDetails:
		if id, ok := data["id"].(string); ok && strings.HasPrefix(id, domain.OrderGIDPrefix) {
			if ctx.OrderID != "" && ctx.OrderID != id {
				ctx.PendingRefundAmount = nil
			}
			ctx.OrderID = id
		}
		if name, ok := data["name"].(string); ok && domain.IsDisplayOrderNumber(name) {
			ctx.OrderNumber = name
		}
		if total, ok := amountOf(data["totalPrice"]); ok {
			ctx.OrderTotal = &total
		}
	case domain.ToolGetSubscriptionStatus:
		if subID, ok := data["subscriptionId"].(string); ok && subID != "" {
			ctx.SubscriptionID = subID
		}
	case domain.ToolCreateDiscountCode:
		ctx.DiscountCodesCreated++
	case domain.ToolCreateStoreCredit:
		if credited, ok := amountOf(data["credited"]); ok {
			ctx.PendingRefundAmount = &credited
		}
	}
}

// amountOf reads a money value given as a number, a decimal string or an
// {"amount": ...} object.
func amountOf(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil
	case map[string]any:
		return amountOf(typed["amount"])
	default:
		return 0, false
	}
}

func chatHistory(messages []domain.Message) []ports.ChatMessage {
	out := make([]ports.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		role := ports.ChatUser
		if msg.Role == domain.RoleAgent {
			role = ports.ChatAssistant
		}
		out = append(out, ports.ChatMessage{Role: role, Content: msg.Content})
	}

	return out
}
