package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
)

type SupervisorRoute string

const (
	RouteRespondDirect SupervisorRoute = "respond_direct"
	RouteEscalate      SupervisorRoute = "escalate"

	supervisorMaxTokens = 512
)

type SupervisorDecision struct {
	Route    SupervisorRoute
	Target   domain.Specialist
	Reason   string
	Response string
}

// ParseSupervisorDecision reads the ROUTE / REASON / RESPONSE block. The
// RESPONSE value runs to the end of the text. Unknown routes become a direct
// response.
func ParseSupervisorDecision(raw string) SupervisorDecision {
	decision := SupervisorDecision{Route: RouteRespondDirect}
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)
		switch {
		case strings.HasPrefix(upper, "ROUTE:"):
			route := strings.ToLower(strings.Trim(strings.TrimSpace(trimmed[len("ROUTE:"):]), `"'[]`))
			specialist := domain.Specialist(route)
			switch {
			case specialist.IsSpecialist():
				decision.Route = SupervisorRoute(route)
				decision.Target = specialist
			case route == string(RouteEscalate):
				decision.Route = RouteEscalate
			default:
				decision.Route = RouteRespondDirect
			}
		case strings.HasPrefix(upper, "REASON:"):
			decision.Reason = strings.TrimSpace(trimmed[len("REASON:"):])
		case strings.HasPrefix(upper, "RESPONSE:"):
			rest := append([]string{strings.TrimSpace(trimmed[len("RESPONSE:"):])}, lines[i+1:]...)
			decision.Response = strings.TrimSpace(strings.Join(rest, "\n"))
			return decision
		}
	}

	return decision
}

type Supervisor struct {
	reasoner  ports.Reasoner
	clock     ports.Clock
	settings  Settings
	telemetry ports.Telemetry
}

func NewSupervisor(reasoner ports.Reasoner, clock ports.Clock, settings Settings, telemetry ports.Telemetry) *Supervisor {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if telemetry == nil {
		telemetry = ports.NopTelemetry{}
	}

	return &Supervisor{reasoner: reasoner, clock: clock, settings: settings.withDefaults(), telemetry: telemetry}
}

func (s *Supervisor) Decide(ctx context.Context, session domain.Session) (SupervisorDecision, error) {
	day := newDayContext(s.clock.Now(), s.settings.Location)
	started := time.Now()

	raw, err := withRetry(ctx, s.settings.Reasoning, func(ctx context.Context) (string, error) {
		return s.reasoner.Complete(ctx, ports.CompletionRequest{
			Tier:      ports.ModelSmart,
			Prompt:    supervisorPrompt(session, day, s.settings.Persona),
			MaxTokens: supervisorMaxTokens,
		})
	})
	if err != nil {
		s.telemetry.ReasonerCalled("supervisor", "error", time.Since(started))
		return SupervisorDecision{}, fmt.Errorf("supervisor decide: %w", err)
	}
	s.telemetry.ReasonerCalled("supervisor", "ok", time.Since(started))

	decision := ParseSupervisorDecision(raw)
	if decision.Route == RouteRespondDirect && decision.Response == "" {
		decision.Response = s.settings.Persona.Sign(fmt.Sprintf(
			"Hey %s! 😊 Could you tell me a little more about what you need help with? I'm happy to look into your orders, shipping, subscriptions or products.",
			session.Customer.Greeting()))
	}

	return decision, nil
}
