package application

import (
	"fmt"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

type State string

const (
	StateLockCheck       State = "lock_check"
	StateInputGuardrail  State = "input_guardrail"
	StateAutoEscalate    State = "auto_escalate"
	StateClassify        State = "classify"
	StateShiftCheck      State = "shift_check"
	StateSupervisor      State = "supervisor"
	StateSpecialist      State = "specialist"
	StateOutputGuardrail State = "output_guardrail"
	StateHandoff         State = "handoff"
	StateReflection      State = "reflection"
	StateRevision        State = "revision"
	StateFinalGuardrail  State = "final_guardrail"
	StateEscalate        State = "escalate"
	StateLocked          State = "locked"
	StateDone            State = "done"
)

type Event string

const (
	EventLocked           Event = "locked"
	EventActive           Event = "active"
	EventBlocked          Event = "blocked"
	EventHealthRisk       Event = "health_risk"
	EventFirstTurn        Event = "first_turn"
	EventLaterTurn        Event = "later_turn"
	EventRouteSpecialist  Event = "route_specialist"
	EventRouteSupervisor  Event = "route_supervisor"
	EventRespondDirect    Event = "respond_direct"
	EventEscalate         Event = "escalate"
	EventDrafted          Event = "drafted"
	EventHandoff          Event = "handoff"
	EventEscalation       Event = "escalation"
	EventGuardFailed      Event = "guard_failed"
	EventGuardPassed      Event = "guard_passed"
	EventReflectionPassed Event = "reflection_passed"
	EventReflectionFailed Event = "reflection_failed"
	EventRevised          Event = "revised"
	EventTransportFailure Event = "transport_failure"
	EventShipped          Event = "shipped"
)

var transitions = map[State]map[Event]State{
	StateLockCheck: {
		EventLocked: StateLocked,
		EventActive: StateInputGuardrail,
	},
	StateInputGuardrail: {
		EventBlocked:    StateDone,
		EventHealthRisk: StateAutoEscalate,
		EventFirstTurn:  StateClassify,
		EventLaterTurn:  StateShiftCheck,
	},
	StateAutoEscalate: {
		EventEscalate: StateEscalate,
	},
	StateClassify: {
		EventRouteSpecialist:  StateSpecialist,
		EventRouteSupervisor:  StateSupervisor,
		EventTransportFailure: StateEscalate,
	},
	StateShiftCheck: {
		EventRouteSpecialist:  StateSpecialist,
		EventRouteSupervisor:  StateSupervisor,
		EventTransportFailure: StateEscalate,
	},
	StateSupervisor: {
		EventRouteSpecialist:  StateSpecialist,
		EventRespondDirect:    StateOutputGuardrail,
		EventEscalate:         StateEscalate,
		EventTransportFailure: StateEscalate,
	},
	StateSpecialist: {
		EventDrafted:          StateOutputGuardrail,
		EventTransportFailure: StateEscalate,
	},
	StateOutputGuardrail: {
		EventHandoff:     StateHandoff,
		EventEscalation:  StateEscalate,
		EventGuardFailed: StateRevision,
		EventGuardPassed: StateReflection,
	},
	StateHandoff: {
		EventRouteSpecialist: StateSpecialist,
		EventRouteSupervisor: StateSupervisor,
	},
	StateReflection: {
		EventReflectionPassed: StateDone,
		EventReflectionFailed: StateRevision,
	},
	StateRevision: {
		EventRevised:          StateFinalGuardrail,
		EventTransportFailure: StateEscalate,
	},
	StateFinalGuardrail: {
		EventShipped: StateDone,
	},
	StateEscalate: {
		EventShipped: StateDone,
	},
	StateLocked: {
		EventShipped: StateDone,
	},
}

// Next resolves the state reached from `from` on `event`. Pairs missing from
// the table are programming errors.
func Next(from State, event Event) (State, error) {
	to, ok := transitions[from][event]
	if !ok {
		return "", fmt.Errorf("%w: %s on %s", domain.ErrInvalidTransition, from, event)
	}

	return to, nil
}
