package application

import (
	"testing"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFollowsTransitionTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from  State
		event Event
		want  State
	}{
		{StateLockCheck, EventLocked, StateLocked},
		{StateLockCheck, EventActive, StateInputGuardrail},
		{StateInputGuardrail, EventBlocked, StateDone},
		{StateInputGuardrail, EventHealthRisk, StateAutoEscalate},
		{StateInputGuardrail, EventFirstTurn, StateClassify},
		{StateInputGuardrail, EventLaterTurn, StateShiftCheck},
		{StateAutoEscalate, EventEscalate, StateEscalate},
		{StateClassify, EventRouteSpecialist, StateSpecialist},
		{StateClassify, EventRouteSupervisor, StateSupervisor},
		{StateClassify, EventTransportFailure, StateEscalate},
		{StateShiftCheck, EventRouteSpecialist, StateSpecialist},
		{StateShiftCheck, EventRouteSupervisor, StateSupervisor},
		{StateSupervisor, EventRouteSpecialist, StateSpecialist},
		{StateSupervisor, EventRespondDirect, StateOutputGuardrail},
		{StateSupervisor, EventEscalate, StateEscalate},
		{StateSpecialist, EventDrafted, StateOutputGuardrail},
		{StateSpecialist, EventTransportFailure, StateEscalate},
		{StateOutputGuardrail, EventHandoff, StateHandoff},
		{StateOutputGuardrail, EventEscalation, StateEscalate},
		{StateOutputGuardrail, EventGuardFailed, StateRevision},
		{StateOutputGuardrail, EventGuardPassed, StateReflection},
		{StateHandoff, EventRouteSpecialist, StateSpecialist},
		{StateHandoff, EventRouteSupervisor, StateSupervisor},
		{StateReflection, EventReflectionPassed, StateDone},
		{StateReflection, EventReflectionFailed, StateRevision},
		{StateRevision, EventRevised, StateFinalGuardrail},
		{StateRevision, EventTransportFailure, StateEscalate},
		{StateFinalGuardrail, EventShipped, StateDone},
		{StateEscalate, EventShipped, StateDone},
		{StateLocked, EventShipped, StateDone},
	}

	for _, tc := range cases {
		got, err := Next(tc.from, tc.event)
		require.NoError(t, err, "%s on %s", tc.from, tc.event)
		assert.Equal(t, tc.want, got, "%s on %s", tc.from, tc.event)
	}
}

func TestNextRejectsUnknownPairs(t *testing.T) {
	t.Parallel()

	_, err := Next(StateReflection, EventHandoff)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = Next(StateDone, EventShipped)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestEveryStateExceptDoneHasAHandler(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(Deps{}, DefaultSettings())
	for state := range transitions {
		_, ok := o.handlers[state]
		assert.True(t, ok, "missing handler for %s", state)
	}
	assert.NotContains(t, transitions, StateDone)
}
