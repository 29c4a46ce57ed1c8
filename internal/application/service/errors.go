package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/workflow"
)

var (
	// ErrNotFound is wrapped by NotFoundError for unknown template, case, stage or message ids
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a user acts on a record they do not own
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a case changed between load and update
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput is returned for malformed definitions and requests
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersistence wraps storage failures. Nothing from the failed operation is committed.
	ErrPersistence = errors.New("persistence failure")
)

// NotFoundError names the kind and id of the missing record
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ValidationError reports one answer that failed its question's rules
type ValidationError struct {
	QuestionID      string `json:"question_id"`
	FieldKey        string `json:"field_key"`
	Label           string `json:"label,omitempty"`
	Message         string `json:"message"`
	ExpectedPattern string `json:"expected_pattern,omitempty"`
}

// ValidationErrors is returned when a submission is rejected before anything is written
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", ve.FieldKey, ve.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// AsValidationErrors extracts field errors from err
func AsValidationErrors(err error) (*ValidationErrors, bool) {
	var ve *ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Classify keeps caller-facing errors as they are, turns a stale case
// update into ErrConflict and wraps everything else as ErrPersistence.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, port.ErrStaleCase) {
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	if _, ok := AsValidationErrors(err); ok {
		return err
	}
	for _, known := range []error{
		ErrNotFound, ErrForbidden, ErrConflict, ErrInvalidInput, ErrPersistence,
		workflow.ErrInvalidTransition, workflow.ErrInvalidState,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
