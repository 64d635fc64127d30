package application

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/guardrail"
	"github.com/bnema/helpdesk-agent/internal/ports"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Deps struct {
	Store     ports.SessionStore
	Reasoner  ports.Reasoner
	Commerce  ports.CommerceAPI
	Sink      ports.EscalationSink
	Clock     ports.Clock
	Telemetry ports.Telemetry
	Logger    *zap.Logger
}

type Orchestrator struct {
	store     ports.SessionStore
	sink      ports.EscalationSink
	clock     ports.Clock
	telemetry ports.Telemetry
	logger    *zap.Logger
	settings  Settings
	validate  *validator.Validate
	locks     *sessionLocks

	classifier *IntentClassifier
	runner     *SpecialistRunner
	supervisor *Supervisor
	reflector  *Reflector
	escalator  *Escalator

	handlers map[State]func(context.Context, *turn) Event
}

func NewOrchestrator(deps Deps, settings Settings) *Orchestrator {
	settings = settings.withDefaults()
	clock := deps.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	telemetry := deps.Telemetry
	if telemetry == nil {
		telemetry = ports.NopTelemetry{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		store:      deps.Store,
		sink:       deps.Sink,
		clock:      clock,
		telemetry:  telemetry,
		logger:     logger,
		settings:   settings,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		locks:      newSessionLocks(),
		classifier: NewIntentClassifier(deps.Reasoner, settings.Reasoning, telemetry, logger),
		runner:     NewSpecialistRunner(deps.Reasoner, deps.Commerce, clock, settings, telemetry, logger),
		supervisor: NewSupervisor(deps.Reasoner, clock, settings, telemetry),
		reflector:  NewReflector(deps.Reasoner, clock, settings, telemetry, logger),
		escalator:  NewEscalator(deps.Reasoner, clock, settings, telemetry, logger),
	}
	o.handlers = map[State]func(context.Context, *turn) Event{
		StateLockCheck:       o.lockCheck,
		StateInputGuardrail:  o.inputGuardrail,
		StateAutoEscalate:    o.autoEscalate,
		StateClassify:        o.classify,
		StateShiftCheck:      o.shiftCheck,
		StateSupervisor:      o.runSupervisor,
		StateSpecialist:      o.runSpecialist,
		StateOutputGuardrail: o.outputGuardrail,
		StateHandoff:         o.handoff,
		StateReflection:      o.reflect,
		StateRevision:        o.revise,
		StateFinalGuardrail:  o.finalGuardrail,
		StateEscalate:        o.escalate,
		StateLocked:          o.locked,
	}

	return o
}

// turn is the working state of one customer message. Only session survives
// the turn.
type turn struct {
	session     *domain.Session
	raw         string
	state       State
	input       guardrail.InputResult
	agent       domain.Specialist
	draft       string
	preRevision string
	verdict     domain.ReflectionVerdict
	handoff     domain.HandoffInstruction
	escalation  domain.EscalationInstruction
}

func (o *Orchestrator) StartSession(ctx context.Context, cmd StartSessionCommand) (string, error) {
	if err := o.validate.Struct(cmd); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidCustomer, err)
	}

	customer := domain.Customer{
		Email:      strings.TrimSpace(cmd.Email),
		FirstName:  strings.TrimSpace(cmd.FirstName),
		LastName:   strings.TrimSpace(cmd.LastName),
		ExternalID: strings.TrimSpace(cmd.CustomerID),
	}
	if err := customer.Validate(); err != nil {
		return "", err
	}

	session := domain.NewSession(newSessionID(), customer, o.clock.Now())
	if err := o.store.Create(ctx, session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	o.logger.Info("session started", zap.String("session_id", session.ID))
	return session.ID, nil
}

func newSessionID() string {
	return "session_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// SendMessage runs one full turn for the session. Turns on the same session
// are serialised; once the lock is held the turn runs to completion even if
// ctx is cancelled.
func (o *Orchestrator) SendMessage(ctx context.Context, cmd SendMessageCommand) (TurnResult, error) {
	if err := o.validate.Struct(cmd); err != nil {
		return TurnResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	release, err := o.locks.acquire(ctx, cmd.SessionID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("acquire session lock: %w", err)
	}
	defer release()

	stored, err := o.store.Get(ctx, cmd.SessionID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("get session: %w", err)
	}

	turnCtx := context.WithoutCancel(ctx)
	working := stored.Clone()
	o.runTurn(turnCtx, &working, cmd.Message)
	working.UpdatedAt = o.clock.Now()
	working.Version = stored.Version + 1

	err = o.store.Update(turnCtx, cmd.SessionID, func(current *domain.Session) error {
		if current.Version != stored.Version {
			return domain.ErrConcurrentTurn
		}
		*current = working
		return nil
	})
	if err != nil {
		return TurnResult{}, fmt.Errorf("commit turn: %w", err)
	}

	if working.Turn.Escalation != nil && working.Escalation != nil {
		o.publish(turnCtx, working)
	}

	return newTurnResult(working), nil
}

func (o *Orchestrator) publish(ctx context.Context, session domain.Session) {
	if o.sink == nil {
		return
	}
	if err := o.sink.Publish(ctx, session.ID, *session.Escalation); err != nil {
		o.logger.Error("publish escalation",
			zap.String("session_id", session.ID),
			zap.String("category", string(session.Escalation.Category)),
			zap.Error(err))
	}
}

func (o *Orchestrator) GetTrace(ctx context.Context, id string) (SessionTrace, error) {
	session, err := o.store.Get(ctx, id)
	if err != nil {
		return SessionTrace{}, fmt.Errorf("get session: %w", err)
	}

	return newSessionTrace(session), nil
}

func (o *Orchestrator) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	sessions, err := o.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, newSessionSummary(session))
	}
	slices.SortFunc(summaries, func(a, b SessionSummary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})

	return summaries, nil
}

func (o *Orchestrator) runTurn(ctx context.Context, session *domain.Session, raw string) {
	ctx, span := tracer.Start(ctx, "orchestrator.Turn", trace.WithAttributes(attribute.String("session.id", session.ID)))
	defer span.End()

	started := time.Now()
	session.BeginTurn()
	t := &turn{session: session, raw: raw, state: StateLockCheck}
	logger := o.logger.With(zap.String("session_id", session.ID), zap.Int("turn", session.TurnCount))

	for steps := 0; t.state != StateDone; steps++ {
		if steps >= maxStepsPerTurn {
			o.abort(ctx, t, fmt.Errorf("turn exceeded %d steps", maxStepsPerTurn))
			break
		}

		event := o.handlers[t.state](ctx, t)
		next, err := Next(t.state, event)
		if err != nil {
			o.abort(ctx, t, err)
			break
		}

		logger.Debug("transition",
			zap.String("state", string(t.state)),
			zap.String("event", string(event)),
			zap.String("next", string(next)))
		o.telemetry.Transition(string(t.state), string(next))
		t.state = next
	}

	if session.Turn.Reply != "" {
		session.AppendMessage(domain.RoleAgent, session.Turn.Reply, o.clock.Now())
	}

	outcome := turnOutcome(session)
	span.SetAttributes(attribute.String("turn.outcome", outcome))
	o.telemetry.TurnCompleted(string(session.ActiveSpecialist), outcome, time.Since(started))
	logger.Info("turn completed",
		zap.String("specialist", string(session.ActiveSpecialist)),
		zap.String("outcome", outcome))
}

func turnOutcome(session *domain.Session) string {
	switch {
	case session.Turn.Escalation != nil:
		return "escalated"
	case session.Escalated:
		return "locked"
	case session.Turn.InputBlocked:
		return "blocked"
	case session.Turn.Revised:
		return "revised"
	default:
		return "replied"
	}
}

// abort ends a turn that hit a step ceiling or an impossible transition by
// escalating it as a technical failure.
func (o *Orchestrator) abort(ctx context.Context, t *turn, err error) {
	o.logger.Error("turn aborted",
		zap.String("session_id", t.session.ID),
		zap.String("state", string(t.state)),
		zap.Error(err))

	if t.session.Escalated && t.session.Turn.Escalation == nil {
		t.session.Turn.Reply = LockedReply(o.settings.Persona, t.session.Customer.Greeting())
		return
	}

	t.escalation = domain.EscalationInstruction{Category: domain.EscalationTechnical, Reason: err.Error()}
	t.state = StateEscalate
	o.escalate(ctx, t)
	t.state = StateDone
}

func (o *Orchestrator) record(t *turn, event domain.TraceEvent) {
	event.At = o.clock.Now()
	event.State = string(t.state)
	t.session.Record(event)
}

func (o *Orchestrator) recorder(t *turn) func(domain.TraceEvent) {
	return func(event domain.TraceEvent) {
		o.record(t, event)
	}
}

func (o *Orchestrator) transportFailure(t *turn, component string, err error) Event {
	o.logger.Warn("reasoning transport failure",
		zap.String("session_id", t.session.ID),
		zap.String("state", string(t.state)),
		zap.Error(err))
	o.record(t, domain.TraceEvent{
		Kind:   domain.TraceTransportFailure,
		Agent:  component,
		Detail: "reasoning service unavailable after retry",
	})
	t.escalation = domain.EscalationInstruction{
		Category: domain.EscalationTechnical,
		Reason:   fmt.Sprintf("%s could not reach the reasoning service", component),
	}

	return EventTransportFailure
}

func (o *Orchestrator) outputContext(session *domain.Session) guardrail.OutputContext {
	return guardrail.OutputContext{
		PendingRefund: session.Context.PendingRefundAmount,
		OrderTotal:    session.Context.OrderTotal,
		Persona:       o.settings.Persona,
	}
}

func (o *Orchestrator) lockCheck(_ context.Context, t *turn) Event {
	if t.session.Escalated {
		o.record(t, domain.TraceEvent{Kind: domain.TraceLock, Detail: "session is escalated, returning lock message"})
		return EventLocked
	}

	return EventActive
}

func (o *Orchestrator) locked(_ context.Context, t *turn) Event {
	stored, _ := guardrail.RedactPII(t.raw)
	t.session.AppendMessage(domain.RoleCustomer, stored, o.clock.Now())
	t.session.Turn.Reply = LockedReply(o.settings.Persona, t.session.Customer.Greeting())

	return EventShipped
}

func (o *Orchestrator) inputGuardrail(_ context.Context, t *turn) Event {
	session := t.session
	t.input = guardrail.CheckInput(t.raw, guardrail.InputOptions{
		FirstName: session.Customer.Greeting(),
		MaxChars:  o.settings.MaxInputChars,
		Persona:   o.settings.Persona,
	})

	stored := t.input.Text
	if !t.input.Passed {
		stored, _ = guardrail.RedactPII(t.raw)
	}
	session.AppendMessage(domain.RoleCustomer, stored, o.clock.Now())

	session.Turn.PIIRedacted = t.input.PIIRedacted
	session.Turn.Truncated = t.input.Truncated
	session.Turn.AggressiveLanguage = t.input.Aggressive
	session.Turn.HealthRisk = t.input.HealthRisk

	passed := t.input.Passed
	if !passed {
		session.Turn.InputBlocked = true
		session.Turn.GuardrailBlocks = append(session.Turn.GuardrailBlocks, t.input.Violations...)
		session.Turn.Reply = t.input.Override
		for _, rule := range t.input.Violations {
			o.telemetry.GuardrailTripped("input", rule)
		}
		o.record(t, domain.TraceEvent{
			Kind:   domain.TraceGuardrail,
			Detail: "input blocked: " + strings.Join(t.input.Violations, ", "),
			Passed: &passed,
		})
		return EventBlocked
	}

	detail := "input passed"
	if notes := t.input.Notes(); len(notes) > 0 {
		detail += ": " + strings.Join(notes, ", ")
	}
	o.record(t, domain.TraceEvent{Kind: domain.TraceGuardrail, Detail: detail, Passed: &passed})

	switch {
	case t.input.HealthRisk:
		o.telemetry.GuardrailTripped("input", "HEALTH_CONCERN")
		return EventHealthRisk
	case session.CustomerTurns() <= 1:
		return EventFirstTurn
	default:
		return EventLaterTurn
	}
}

func (o *Orchestrator) autoEscalate(_ context.Context, t *turn) Event {
	t.escalation = domain.EscalationInstruction{
		Category: domain.EscalationHealth,
		Reason:   "Health/safety concern detected in input",
	}

	return EventEscalate
}

func (o *Orchestrator) classify(ctx context.Context, t *turn) Event {
	session := t.session
	result, err := o.classifier.Classify(ctx, t.input.Text)
	if err != nil {
		return o.transportFailure(t, "classifier", err)
	}

	session.Intent = result.Category
	session.IntentConfidence = result.Confidence
	confidence := result.Confidence
	o.record(t, domain.TraceEvent{
		Kind:       domain.TraceClassification,
		Detail:     fmt.Sprintf("classified as %s", result.Category),
		Confidence: &confidence,
	})

	target := result.Category.Specialist()
	if result.Confidence >= o.settings.ConfidenceThreshold && target.IsSpecialist() {
		session.ActiveSpecialist = target
		o.record(t, domain.TraceEvent{Kind: domain.TraceRouting, Agent: string(target), Detail: fmt.Sprintf("routing to %s", target)})
		return EventRouteSpecialist
	}

	session.ActiveSpecialist = domain.SpecialistSupervisor
	o.record(t, domain.TraceEvent{
		Kind:   domain.TraceRouting,
		Agent:  string(domain.SpecialistSupervisor),
		Detail: fmt.Sprintf("routing to supervisor (%s @ %d%%)", result.Category, result.Confidence),
	})

	return EventRouteSupervisor
}

func (o *Orchestrator) shiftCheck(ctx context.Context, t *turn) Event {
	session := t.session
	current := session.ActiveSpecialist
	if current == "" {
		current = domain.SpecialistSupervisor
	}

	decision, err := o.classifier.DetectShift(ctx, t.input.Text, current, o.settings.ShiftThreshold)
	if err != nil {
		return o.transportFailure(t, "shift detector", err)
	}

	if decision.Checked {
		confidence := decision.Confidence
		o.record(t, domain.TraceEvent{
			Kind:       domain.TraceClassification,
			Detail:     decision.Reason,
			Confidence: &confidence,
		})
	}

	session.ActiveSpecialist = decision.Target
	if decision.Shifted {
		session.Intent = decision.Category
		session.IntentConfidence = decision.Confidence
		session.Turn.IntentShifted = true
		o.record(t, domain.TraceEvent{Kind: domain.TraceIntentShift, Agent: string(decision.Target), Detail: decision.Reason})
	} else {
		o.record(t, domain.TraceEvent{Kind: domain.TraceRouting, Agent: string(decision.Target), Detail: decision.Reason})
	}

	if session.ActiveSpecialist.IsSpecialist() {
		return EventRouteSpecialist
	}

	return EventRouteSupervisor
}

func (o *Orchestrator) runSupervisor(ctx context.Context, t *turn) Event {
	session := t.session
	session.ActiveSpecialist = domain.SpecialistSupervisor
	session.Turn.SupervisorRuns++

	if session.Turn.SupervisorRuns > o.settings.MaxSupervisorRuns {
		t.escalation = domain.EscalationInstruction{
			Category: domain.EscalationUncertain,
			Reason:   fmt.Sprintf("supervisor reached %d times in one turn without a resolution", session.Turn.SupervisorRuns),
		}
		o.record(t, domain.TraceEvent{Kind: domain.TraceRouting, Agent: string(domain.SpecialistSupervisor), Detail: t.escalation.Reason})
		return EventEscalate
	}

	decision, err := o.supervisor.Decide(ctx, *session)
	if err != nil {
		return o.transportFailure(t, "supervisor", err)
	}

	switch {
	case decision.Target.IsSpecialist():
		session.ActiveSpecialist = decision.Target
		o.record(t, domain.TraceEvent{
			Kind:   domain.TraceRouting,
			Agent:  string(domain.SpecialistSupervisor),
			Detail: fmt.Sprintf("supervisor routed to %s: %s", decision.Target, decision.Reason),
		})
		return EventRouteSpecialist
	case decision.Route == RouteEscalate:
		t.escalation = domain.EscalationInstruction{Category: domain.EscalationUncertain, Reason: decision.Reason}
		o.record(t, domain.TraceEvent{Kind: domain.TraceRouting, Agent: string(domain.SpecialistSupervisor), Detail: "supervisor escalated: " + decision.Reason})
		return EventEscalate
	default:
		t.agent = domain.SpecialistSupervisor
		t.draft = ScrubMarkers(decision.Response)
		o.record(t, domain.TraceEvent{Kind: domain.TraceResponse, Agent: string(domain.SpecialistSupervisor), Detail: "supervisor responded directly"})
		return EventRespondDirect
	}
}

func (o *Orchestrator) runSpecialist(ctx context.Context, t *turn) Event {
	session := t.session
	agent := session.ActiveSpecialist
	session.Turn.SpecialistRuns++

	draft, err := o.runner.Run(ctx, session, agent, RunOptions{
		Aggressive: session.Turn.AggressiveLanguage,
		Record:     o.recorder(t),
	})
	if err != nil {
		return o.transportFailure(t, string(agent), err)
	}

	t.agent = agent
	t.draft = draft
	o.record(t, domain.TraceEvent{Kind: domain.TraceResponse, Agent: string(agent), Detail: "draft produced"})

	return EventDrafted
}

func (o *Orchestrator) outputGuardrail(_ context.Context, t *turn) Event {
	session := t.session
	result := guardrail.CheckOutput(t.draft, o.outputContext(session))

	switch result.Shape {
	case domain.DraftHandoff:
		t.handoff = *result.Handoff
		return EventHandoff
	case domain.DraftEscalation:
		t.escalation = *result.Escalation
		return EventEscalation
	}

	passed := result.Passed
	if !passed {
		session.Turn.GuardrailBlocks = append(session.Turn.GuardrailBlocks, result.Violations...)
		for _, violation := range result.Violations {
			o.telemetry.GuardrailTripped("output", violation)
		}
		t.verdict = domain.ReflectionVerdict{Rule: guardrail.RuleOutput, Reason: strings.Join(result.Violations, "; ")}
		if result.Correction != nil {
			t.verdict = *result.Correction
		}
		o.record(t, domain.TraceEvent{
			Kind:   domain.TraceGuardrail,
			Agent:  string(t.agent),
			Detail: "output blocked: " + strings.Join(result.Violations, "; "),
			Passed: &passed,
		})
		return EventGuardFailed
	}

	o.record(t, domain.TraceEvent{Kind: domain.TraceGuardrail, Agent: string(t.agent), Detail: "output passed", Passed: &passed})

	return EventGuardPassed
}

func (o *Orchestrator) handoff(_ context.Context, t *turn) Event {
	session := t.session
	decision := RouteHandoff(t.agent, t.handoff, session.Turn.HandoffCount)
	session.Turn.HandoffCount = decision.Count
	session.Turn.Handoffs = append(session.Turn.Handoffs, decision.Detail)
	session.ActiveSpecialist = decision.Target
	o.record(t, domain.TraceEvent{Kind: domain.TraceHandoff, Agent: string(t.agent), Detail: decision.Detail})

	if decision.Target == domain.SpecialistSupervisor {
		return EventRouteSupervisor
	}

	return EventRouteSpecialist
}

func (o *Orchestrator) reflect(ctx context.Context, t *turn) Event {
	session := t.session
	verdict := o.reflector.CheckRules(*session, t.draft, t.agent)

	if verdict.Passed && o.settings.ReflectionReviewer {
		reviewed, err := o.reflector.Review(ctx, *session, t.draft)
		if err != nil {
			o.logger.Warn("reflection reviewer unavailable, passing draft",
				zap.String("session_id", session.ID), zap.Error(err))
			o.record(t, domain.TraceEvent{Kind: domain.TraceTransportFailure, Agent: "reflection", Detail: "reviewer unavailable, draft passed"})
			reviewed = domain.ReflectionVerdict{Passed: true}
		}
		verdict = reviewed
	}

	passed := verdict.Passed
	detail := "reflection passed"
	if !passed {
		detail = fmt.Sprintf("%s: %s", verdict.Rule, verdict.Reason)
	}
	o.record(t, domain.TraceEvent{Kind: domain.TraceReflection, Agent: string(t.agent), Detail: detail, Passed: &passed})

	if passed || session.Turn.Revised {
		session.Turn.Reply = t.draft
		return EventReflectionPassed
	}

	session.Turn.ReflectionFailures = append(session.Turn.ReflectionFailures, detail)
	t.verdict = verdict

	return EventReflectionFailed
}

func (o *Orchestrator) revise(ctx context.Context, t *turn) Event {
	session := t.session
	session.Turn.Revised = true
	t.preRevision = t.draft

	revised, err := o.reflector.Revise(ctx, *session, t.draft, t.verdict)
	if err != nil {
		return o.transportFailure(t, "revision", err)
	}

	t.draft = revised
	o.record(t, domain.TraceEvent{Kind: domain.TraceRevision, Agent: string(t.agent), Detail: "revised for " + t.verdict.Rule})

	return EventRevised
}

func (o *Orchestrator) finalGuardrail(_ context.Context, t *turn) Event {
	session := t.session
	if strings.TrimSpace(t.draft) == "" || guardrail.IsControlLine(t.draft) {
		o.record(t, domain.TraceEvent{Kind: domain.TraceRevision, Agent: string(t.agent), Detail: "revision unusable, shipping original draft"})
		t.draft = t.preRevision
	}

	result := guardrail.CheckOutput(t.draft, o.outputContext(session))
	passed := result.Passed
	detail := "final check passed"
	if !passed {
		detail = "final check flagged: " + strings.Join(result.Violations, "; ")
		for _, violation := range result.Violations {
			session.Turn.GuardrailBlocks = append(session.Turn.GuardrailBlocks, "final: "+violation)
			o.telemetry.GuardrailTripped("final", violation)
		}
	}
	o.record(t, domain.TraceEvent{Kind: domain.TraceGuardrail, Agent: string(t.agent), Detail: detail, Passed: &passed})
	session.Turn.Reply = t.draft

	return EventShipped
}

func (o *Orchestrator) escalate(ctx context.Context, t *turn) Event {
	session := t.session
	instruction := t.escalation
	if instruction.Category == "" {
		instruction.Category = domain.EscalationUncertain
	}

	if instruction.Category == domain.EscalationChargeback && session.Intent == "" {
		session.Intent = domain.CategoryRefund
		session.IntentConfidence = 100
		session.ActiveSpecialist = domain.SpecialistIssue
	}

	payload := o.escalator.BuildPayload(ctx, *session, instruction)
	session.Escalate(payload)
	session.Turn.Escalation = &instruction
	session.Turn.Reply = o.escalator.Reply(*session, instruction.Category)

	o.record(t, domain.TraceEvent{
		Kind:   domain.TraceEscalation,
		Agent:  string(session.ActiveSpecialist),
		Detail: fmt.Sprintf("escalated as %s (%s priority): %s", instruction.Category, payload.Priority, instruction.Reason),
	})
	o.logger.Info("session escalated",
		zap.String("session_id", session.ID),
		zap.String("category", string(instruction.Category)),
		zap.String("priority", string(payload.Priority)))

	return EventShipped
}
