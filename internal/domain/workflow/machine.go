package workflow

import "context"

// StateMachine tracks the current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is configured for the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers configured for the current state, sorted
	PermittedTriggers() []Trigger

	// AvailableTriggers returns the configured triggers whose guards pass right now
	AvailableTriggers(ctx context.Context) []Trigger
}
