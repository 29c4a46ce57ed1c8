package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectorTemplate() *entity.WorkflowTemplate {
	text := &entity.QuestionType{ID: "text", Type: entity.QuestionTypeText}
	digits := &entity.QuestionType{ID: "digits", Type: entity.QuestionTypeText, HasRegex: true, RegexStr: `\d{3}`}
	check := &entity.QuestionType{ID: "check", Type: entity.QuestionTypeCheckbox}
	choice := &entity.QuestionType{ID: "choice", Type: entity.QuestionTypeSelect, HasOptions: true, OptionsStr: "low, high,"}

	return &entity.WorkflowTemplate{
		ID:    "t1",
		Title: "Purchase",
		Questions: []*entity.Question{
			{ID: "name", Text: "Name", TypeID: "text", IsRequired: true, Type: text},
			{ID: "code", Text: "Code", TypeID: "digits", Type: digits},
			{ID: "urgent", Text: "Urgent", TypeID: "check", Type: check},
			{ID: "level", Text: "Level", Help: "Pick one", TypeID: "choice", Type: choice},
		},
	}
}

func TestAnswerCollector_Prepare(t *testing.T) {
	kase := &entity.Case{ID: "c1", CaseNumber: "CASE-0001"}
	collector := NewAnswerCollector(&mockAnswerRepo{}, NopLogger{})

	tests := []struct {
		name         string
		fields       map[string]interface{}
		wantQuestion string
		wantPattern  string
	}{
		{
			name:         "required answer missing",
			fields:       map[string]interface{}{"question_code": "123"},
			wantQuestion: "name",
		},
		{
			name:         "required answer blank",
			fields:       map[string]interface{}{"question_name": "  ", "question_code": "123"},
			wantQuestion: "name",
		},
		{
			name:         "pattern mismatch",
			fields:       map[string]interface{}{"question_name": "Ann", "question_code": "12"},
			wantQuestion: "code",
			wantPattern:  `\d{3}`,
		},
		{
			name:         "missing value still checked against pattern",
			fields:       map[string]interface{}{"question_name": "Ann"},
			wantQuestion: "code",
			wantPattern:  `\d{3}`,
		},
		{
			name:   "pattern matches at start",
			fields: map[string]interface{}{"question_name": "Ann", "question_code": "123abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers, verr := collector.Prepare(kase, collectorTemplate(), tt.fields)
			if tt.wantQuestion == "" {
				require.Nil(t, verr)
				assert.Len(t, answers, 4)
				return
			}
			require.NotNil(t, verr)
			assert.Nil(t, answers)
			require.Len(t, verr.Errors, 1)
			assert.Equal(t, tt.wantQuestion, verr.Errors[0].QuestionID)
			assert.Equal(t, "question_"+tt.wantQuestion, verr.Errors[0].FieldKey)
			assert.Equal(t, tt.wantPattern, verr.Errors[0].ExpectedPattern)
		})
	}
}

func TestAnswerCollector_Collect(t *testing.T) {
	kase := &entity.Case{ID: "c1", CaseNumber: "CASE-0001"}
	ctx := context.Background()

	t.Run("stores normalised answers in question order", func(t *testing.T) {
		repo := &mockAnswerRepo{}
		collector := NewAnswerCollector(repo, NopLogger{})

		err := collector.Collect(ctx, kase, collectorTemplate(), map[string]interface{}{
			"question_name":   "Ann",
			"question_code":   "555",
			"question_urgent": false,
			"question_level":  "high",
		})
		require.NoError(t, err)
		require.Len(t, repo.upserted, 4)
		assert.Equal(t, "name", repo.upserted[0].QuestionID)
		assert.Equal(t, "false", repo.upserted[2].AnswerText)
		assert.Equal(t, "CASE-0001", repo.upserted[0].CaseNumber)
		assert.Equal(t, "t1", repo.upserted[0].WorkflowID)
	})

	t.Run("validation failure writes nothing", func(t *testing.T) {
		repo := &mockAnswerRepo{}
		collector := NewAnswerCollector(repo, NopLogger{})

		err := collector.Collect(ctx, kase, collectorTemplate(), map[string]interface{}{"question_name": "Ann", "question_code": "x"})
		verrs, ok := AsValidationErrors(err)
		require.True(t, ok)
		assert.Equal(t, "code", verrs.Errors[0].QuestionID)
		assert.Empty(t, repo.upserted)
	})

	t.Run("storage failure is returned", func(t *testing.T) {
		repo := &mockAnswerRepo{upsertErr: errors.New("locked")}
		collector := NewAnswerCollector(repo, NopLogger{})

		err := collector.Collect(ctx, kase, collectorTemplate(), map[string]interface{}{"question_name": "Ann", "question_code": "321"})
		require.Error(t, err)
		_, ok := AsValidationErrors(err)
		assert.False(t, ok)
	})
}

func TestNormalizeAnswer(t *testing.T) {
	assert.Equal(t, "", NormalizeAnswer(nil))
	assert.Equal(t, "true", NormalizeAnswer(true))
	assert.Equal(t, "false", NormalizeAnswer(false))
	assert.Equal(t, "abc", NormalizeAnswer("abc"))
	assert.Equal(t, "12.5", NormalizeAnswer(12.5))
	assert.Equal(t, "7", NormalizeAnswer(7))
}

func TestSchema(t *testing.T) {
	fields := Schema(collectorTemplate())
	require.Len(t, fields, 4)

	assert.Equal(t, FieldSpec{QuestionID: "name", FieldKey: "question_name", Label: "Name", Kind: FieldText, Required: true}, fields[0])
	assert.Equal(t, `\d{3}`, fields[1].Pattern)
	assert.Equal(t, FieldCheckbox, fields[2].Kind)
	assert.Equal(t, FieldSelect, fields[3].Kind)
	assert.Equal(t, "Pick one", fields[3].Help)
	assert.Equal(t, []string{"low", "high"}, fields[3].Options)

	untype := Schema(&entity.WorkflowTemplate{Questions: []*entity.Question{{ID: "q"}}})
	assert.Equal(t, FieldString, untype[0].Kind)
}
