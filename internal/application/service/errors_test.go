package service

import (
	"errors"
	"fmt"
	"testing"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify("op", nil))

	stale := fmt.Errorf("update: %w", port.ErrStaleCase)
	err := Classify("submit", stale)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, port.ErrStaleCase)

	nf := notFound("case", "c1")
	assert.Same(t, nf, Classify("get", nf))
	assert.EqualError(t, nf, `case "c1" not found`)

	trans := fmt.Errorf("%w: done", workflow.ErrInvalidTransition)
	assert.Equal(t, trans, Classify("abandon", trans))

	verr := &ValidationErrors{Errors: []ValidationError{{QuestionID: "q1", Message: "bad"}}}
	assert.Same(t, verr, Classify("submit", verr))

	raw := errors.New("database is locked")
	err = Classify("submit", raw)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, raw)
}

func TestAsValidationErrors(t *testing.T) {
	verr := &ValidationErrors{Errors: []ValidationError{{QuestionID: "q1", FieldKey: "question_q1", Message: "bad"}}}

	got, ok := AsValidationErrors(fmt.Errorf("wrapped: %w", verr))
	require.True(t, ok)
	assert.Same(t, verr, got)

	_, ok = AsValidationErrors(errors.New("other"))
	assert.False(t, ok)
	assert.Equal(t, "validation failed: question_q1: bad", verr.Error())
}
