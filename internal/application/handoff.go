package application

import (
	"fmt"

	"github.com/bnema/helpdesk-agent/internal/domain"
)

type HandoffDecision struct {
	Target domain.Specialist
	// Count is the per-turn handoff count after this decision.
	Count  int
	Forced bool
	Detail string
}

// RouteHandoff applies the per-turn cap: once a turn has used its handoff,
// any further request goes to the supervisor whatever its stated target.
func RouteHandoff(from domain.Specialist, instruction domain.HandoffInstruction, count int) HandoffDecision {
	if count >= maxHandoffsPerTurn {
		return HandoffDecision{
			Target: domain.SpecialistSupervisor,
			Count:  count,
			Forced: true,
			Detail: fmt.Sprintf("max handoffs per turn reached, %s -> supervisor (requested %s)", from, instruction.Target),
		}
	}

	target := instruction.Target
	if !target.IsSpecialist() {
		target = domain.SpecialistSupervisor
	}

	return HandoffDecision{
		Target: target,
		Count:  count + 1,
		Forced: target != instruction.Target,
		Detail: fmt.Sprintf("%s -> %s (%s)", from, target, instruction.Reason),
	}
}
