package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/garyjia/case-tracker/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// TemplateRepository implements port.TemplateRepository.
// Create writes several rows and should run inside a transaction.
type TemplateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB, logger *zap.Logger) port.TemplateRepository {
	return &TemplateRepository{db: db, logger: logger}
}

func (r *TemplateRepository) Create(ctx context.Context, tmpl *entity.WorkflowTemplate) error {
	exec := getExecutor(ctx, r.db)
	ts := now()
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = ts
	}
	tmpl.UpdatedAt = ts

	if _, err := exec.ExecContext(ctx,
		`INSERT INTO workflow_templates (id, title, author, created_on, updated_on) VALUES (?, ?, ?, ?, ?)`,
		tmpl.ID, tmpl.Title, tmpl.Author, tmpl.CreatedAt, tmpl.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to create template", zap.String("template_id", tmpl.ID), zap.Error(err))
		return fmt.Errorf("failed to create template: %w", err)
	}

	for i, roleID := range tmpl.RoleIDs {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO template_roles (template_id, role_id, position) VALUES (?, ?, ?)`,
			tmpl.ID, roleID, i,
		); err != nil {
			r.logger.Error("Failed to attach role to template",
				zap.String("template_id", tmpl.ID), zap.String("role_id", roleID), zap.Error(err))
			return fmt.Errorf("failed to attach role %s: %w", roleID, err)
		}
	}

	for i, questionID := range tmpl.QuestionIDs {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO template_questions (template_id, question_id, position) VALUES (?, ?, ?)`,
			tmpl.ID, questionID, i,
		); err != nil {
			r.logger.Error("Failed to attach question to template",
				zap.String("template_id", tmpl.ID), zap.String("question_id", questionID), zap.Error(err))
			return fmt.Errorf("failed to attach question %s: %w", questionID, err)
		}
	}

	return nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*entity.WorkflowTemplate, error) {
	exec := getExecutor(ctx, r.db)

	var tmpl entity.WorkflowTemplate
	err := exec.QueryRowContext(ctx,
		`SELECT id, title, author, created_on, updated_on FROM workflow_templates WHERE id = ?`, id,
	).Scan(&tmpl.ID, &tmpl.Title, &tmpl.Author, &tmpl.CreatedAt, &tmpl.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get template", zap.String("template_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	if tmpl.RoleIDs, err = r.orderedIDs(ctx, exec,
		`SELECT role_id FROM template_roles WHERE template_id = ? ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("failed to load template roles: %w", err)
	}
	if tmpl.QuestionIDs, err = r.orderedIDs(ctx, exec,
		`SELECT question_id FROM template_questions WHERE template_id = ? ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("failed to load template questions: %w", err)
	}

	return &tmpl, nil
}

// List returns templates without their role and question lists
func (r *TemplateRepository) List(ctx context.Context) ([]*entity.WorkflowTemplate, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT id, title, author, created_on, updated_on FROM workflow_templates ORDER BY created_on DESC, rowid DESC`)
	if err != nil {
		r.logger.Error("Failed to list templates", zap.Error(err))
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*entity.WorkflowTemplate
	for rows.Next() {
		var tmpl entity.WorkflowTemplate
		if err := rows.Scan(&tmpl.ID, &tmpl.Title, &tmpl.Author, &tmpl.CreatedAt, &tmpl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, &tmpl)
	}
	return templates, rows.Err()
}

// Delete fails while cases still reference the template
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM workflow_templates WHERE id = ?`, id); err != nil {
		r.logger.Error("Failed to delete template", zap.String("template_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) orderedIDs(ctx context.Context, exec sqlite.Executor, query, templateID string) ([]string, error) {
	rows, err := exec.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// StageRepository implements port.StageRepository
type StageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStageRepository creates a new stage repository
func NewStageRepository(db *sql.DB, logger *zap.Logger) port.StageRepository {
	return &StageRepository{db: db, logger: logger}
}

const stageColumns = `stage_id, workflow_template_id, stage_name, stage_order, is_first, is_last,
	approve_role_id, deny_role_id, conditions, author, created_on`

func scanStage(s scanner) (*entity.ApprovalStage, error) {
	var st entity.ApprovalStage
	err := s.Scan(&st.ID, &st.TemplateID, &st.Name, &st.Order, &st.IsFirst, &st.IsLast,
		&st.ApproveRoleID, &st.DenyRoleID, &st.Conditions, &st.Author, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *StageRepository) Create(ctx context.Context, st *entity.ApprovalStage) error {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now()
	}
	_, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO approval_stages (`+stageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.TemplateID, st.Name, st.Order, st.IsFirst, st.IsLast,
		st.ApproveRoleID, st.DenyRoleID, st.Conditions, st.Author, st.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create stage",
			zap.String("template_id", st.TemplateID), zap.String("stage_name", st.Name), zap.Error(err))
		return fmt.Errorf("failed to create stage: %w", err)
	}
	return nil
}

func (r *StageRepository) GetByID(ctx context.Context, id string) (*entity.ApprovalStage, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+stageColumns+` FROM approval_stages WHERE stage_id = ?`, id)
	st, err := scanStage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get stage", zap.String("stage_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get stage: %w", err)
	}
	return st, nil
}

// ListByTemplate returns stages ordered by stage_order
func (r *StageRepository) ListByTemplate(ctx context.Context, templateID string) ([]*entity.ApprovalStage, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT `+stageColumns+` FROM approval_stages WHERE workflow_template_id = ? ORDER BY stage_order`,
		templateID)
	if err != nil {
		r.logger.Error("Failed to list stages", zap.String("template_id", templateID), zap.Error(err))
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer rows.Close()

	var stages []*entity.ApprovalStage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

func (r *StageRepository) GetFirst(ctx context.Context, templateID string) (*entity.ApprovalStage, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+stageColumns+` FROM approval_stages
		WHERE workflow_template_id = ? AND is_first = 1
		ORDER BY stage_order LIMIT 1`, templateID)
	st, err := scanStage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get first stage", zap.String("template_id", templateID), zap.Error(err))
		return nil, fmt.Errorf("failed to get first stage: %w", err)
	}
	return st, nil
}

var (
	_ port.TemplateRepository = (*TemplateRepository)(nil)
	_ port.StageRepository    = (*StageRepository)(nil)
)
