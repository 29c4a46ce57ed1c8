package workflow

import (
	"context"
	"fmt"
)

// StateMachine tracks a case status and validates transitions out of it
type StateMachine interface {
	// State returns the current status
	State() State

	// CanFire returns true if the trigger is configured for the current status
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, moving to the target status if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers configured for the current status
	PermittedTriggers() []Trigger
}

var caseLifecycle = buildCaseLifecycle()

func buildCaseLifecycle() StateMachineBuilder {
	builder := NewBuilder()

	builder.Configure(StateActive).
		Permit(TriggerAdvance, StatePending).
		Permit(TriggerComplete, StateCompleted).
		Permit(TriggerAbandon, StateAbandoned)

	builder.Configure(StatePending).
		Permit(TriggerAdvance, StatePending).
		Permit(TriggerComplete, StateCompleted).
		Permit(TriggerAbandon, StateAbandoned)

	// completed and abandoned have no outgoing transitions

	return builder
}

// NewCaseMachine returns a lifecycle machine positioned at the given stored status
func NewCaseMachine(status string) (StateMachine, error) {
	state := State(status)
	if !state.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, status)
	}
	return caseLifecycle.Build(state), nil
}
