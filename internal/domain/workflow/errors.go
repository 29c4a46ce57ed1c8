package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not allowed from the current status
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a status is not recognized
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when every guard on a trigger rejects the transition
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrEmptySequence is returned when a template declares no roles or no stages
	ErrEmptySequence = errors.New("sequence must not be empty")

	// ErrDuplicateEntry is returned when a sequence repeats a role or a stage order
	ErrDuplicateEntry = errors.New("duplicate sequence entry")

	// ErrNoFirstStage is returned when no stage or more than one stage is flagged first
	ErrNoFirstStage = errors.New("template must have exactly one first stage")

	// ErrNoLastStage is returned when no stage is flagged last
	ErrNoLastStage = errors.New("template must have at least one last stage")

	// ErrUnknownRole is returned when a role is not part of the template's role sequence
	ErrUnknownRole = errors.New("role is not part of the template")

	// ErrUnknownStage is returned when a stage does not belong to the template
	ErrUnknownStage = errors.New("stage is not part of the template")
)
