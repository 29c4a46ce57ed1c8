package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"go.uber.org/zap"
)

// AnswerRepository implements port.AnswerRepository
type AnswerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAnswerRepository creates a new answer repository
func NewAnswerRepository(db *sql.DB, logger *zap.Logger) port.AnswerRepository {
	return &AnswerRepository{db: db, logger: logger}
}

// Upsert keeps the id of an existing answer for the same question and replaces its text
func (r *AnswerRepository) Upsert(ctx context.Context, a *entity.Answer) error {
	ts := now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = ts
	}
	a.UpdatedAt = ts

	err := getExecutor(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO answers (id, case_id, case_number, workflow_id, question_id, answer_text, created_on, updated_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (case_id, question_id) DO UPDATE SET
			answer_text = excluded.answer_text,
			updated_on = excluded.updated_on
		RETURNING id`,
		a.ID, a.CaseID, a.CaseNumber, a.WorkflowID, a.QuestionID, a.AnswerText, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		r.logger.Error("Failed to upsert answer",
			zap.String("case_id", a.CaseID), zap.String("question_id", a.QuestionID), zap.Error(err))
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

func (r *AnswerRepository) ListByCase(ctx context.Context, caseID string) ([]*entity.Answer, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, case_id, case_number, workflow_id, question_id, answer_text, created_on, updated_on
		FROM answers WHERE case_id = ? ORDER BY created_on, rowid`, caseID)
	if err != nil {
		r.logger.Error("Failed to list answers", zap.String("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []*entity.Answer
	for rows.Next() {
		var a entity.Answer
		if err := rows.Scan(&a.ID, &a.CaseID, &a.CaseNumber, &a.WorkflowID, &a.QuestionID,
			&a.AnswerText, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}

var _ port.AnswerRepository = (*AnswerRepository)(nil)
