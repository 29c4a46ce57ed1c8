package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/garyjia/case-tracker/internal/idgen"
	"github.com/garyjia/case-tracker/pkg/utils"
)

// AnswerCollector validates submitted field values and stores one answer per question
type AnswerCollector struct {
	answerRepo port.AnswerRepository
	logger     Logger
}

// NewAnswerCollector creates a new AnswerCollector
func NewAnswerCollector(answerRepo port.AnswerRepository, logger Logger) *AnswerCollector {
	return &AnswerCollector{answerRepo: answerRepo, logger: logger}
}

// Collect validates every template question in order and stops at the first
// failure without writing anything. Otherwise it upserts all answers.
// Run it inside the caller's transaction.
func (c *AnswerCollector) Collect(ctx context.Context, kase *entity.Case, tmpl *entity.WorkflowTemplate, fields map[string]interface{}) error {
	answers, verr := c.Prepare(kase, tmpl, fields)
	if verr != nil {
		c.logger.Info("Answer validation failed",
			"case_id", kase.ID,
			"question_id", verr.Errors[0].QuestionID,
		)
		return verr
	}

	for _, a := range answers {
		if err := c.answerRepo.Upsert(ctx, a); err != nil {
			return fmt.Errorf("store answer for question %s: %w", a.QuestionID, err)
		}
	}
	return nil
}

// Prepare builds the answers for a submission without storing them
func (c *AnswerCollector) Prepare(kase *entity.Case, tmpl *entity.WorkflowTemplate, fields map[string]interface{}) ([]*entity.Answer, *ValidationErrors) {
	answers := make([]*entity.Answer, 0, len(tmpl.Questions))
	for _, q := range tmpl.Questions {
		text := NormalizeAnswer(fields[q.FieldKey()])

		if ve := validateAnswer(q, text); ve != nil {
			return nil, &ValidationErrors{Errors: []ValidationError{*ve}}
		}

		answers = append(answers, &entity.Answer{
			ID:         idgen.NewRecord(),
			CaseID:     kase.ID,
			CaseNumber: kase.CaseNumber,
			WorkflowID: tmpl.ID,
			QuestionID: q.ID,
			AnswerText: text,
		})
	}
	return answers, nil
}

func validateAnswer(q *entity.Question, text string) *ValidationError {
	if q.IsRequired && utils.IsBlank(text) {
		return &ValidationError{
			QuestionID: q.ID,
			FieldKey:   q.FieldKey(),
			Label:      q.Text,
			Message:    "an answer is required",
		}
	}

	pattern := q.Type.Pattern()
	if pattern == "" {
		return nil
	}

	ok, err := utils.MatchPrefix(text, pattern)
	if err != nil {
		return &ValidationError{
			QuestionID:      q.ID,
			FieldKey:        q.FieldKey(),
			Label:           q.Text,
			Message:         "question type has an unusable pattern",
			ExpectedPattern: pattern,
		}
	}
	if !ok {
		return &ValidationError{
			QuestionID:      q.ID,
			FieldKey:        q.FieldKey(),
			Label:           q.Text,
			Message:         fmt.Sprintf("invalid format for %q", q.Text),
			ExpectedPattern: pattern,
		}
	}
	return nil
}

// NormalizeAnswer converts a submitted value into its stored text.
// Booleans become "true" or "false" and a missing value becomes "".
func NormalizeAnswer(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
