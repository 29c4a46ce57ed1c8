package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"go.uber.org/zap"
)

// CaseRepository implements port.CaseRepository
type CaseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *sql.DB, logger *zap.Logger) port.CaseRepository {
	return &CaseRepository{db: db, logger: logger}
}

const caseColumns = `id, case_number, workflow_id, current_role_id, current_stage_id, status,
	assigned_user_id, author_username, modified_by, version, created_on, updated_on`

func scanCase(s scanner) (*entity.Case, error) {
	var c entity.Case
	var stageID sql.NullString
	err := s.Scan(&c.ID, &c.CaseNumber, &c.WorkflowID, &c.CurrentRoleID, &stageID, &c.Status,
		&c.AssignedUserID, &c.AuthorUsername, &c.ModifiedBy, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.CurrentStageID = stageID.String
	return &c, nil
}

func (r *CaseRepository) Create(ctx context.Context, c *entity.Case) error {
	ts := now()
	c.CreatedAt, c.UpdatedAt = ts, ts
	if c.Version == 0 {
		c.Version = 1
	}

	_, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO cases (`+caseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CaseNumber, c.WorkflowID, c.CurrentRoleID, nullIfEmpty(c.CurrentStageID), c.Status,
		c.AssignedUserID, c.AuthorUsername, c.ModifiedBy, c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create case", zap.String("case_id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to create case: %w", err)
	}
	return nil
}

func (r *CaseRepository) GetByID(ctx context.Context, id string) (*entity.Case, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, id)
	c, err := scanCase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get case", zap.String("case_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get case: %w", err)
	}
	return c, nil
}

func (r *CaseRepository) Update(ctx context.Context, c *entity.Case) error {
	updatedAt := now()
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		UPDATE cases SET
			current_role_id = ?, current_stage_id = ?, status = ?, assigned_user_id = ?,
			modified_by = ?, version = version + 1, updated_on = ?
		WHERE id = ? AND version = ?`,
		c.CurrentRoleID, nullIfEmpty(c.CurrentStageID), c.Status, c.AssignedUserID,
		c.ModifiedBy, updatedAt, c.ID, c.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update case", zap.String("case_id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to update case: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		r.logger.Warn("Case version mismatch",
			zap.String("case_id", c.ID), zap.Int64("version", c.Version))
		return fmt.Errorf("case %s at version %d: %w", c.ID, c.Version, port.ErrStaleCase)
	}

	c.Version++
	c.UpdatedAt = updatedAt
	return nil
}

// List returns cases newest first
func (r *CaseRepository) List(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error) {
	var where []string
	var args []interface{}
	if filter.AssignedUserID != "" {
		where = append(where, "assigned_user_id = ?")
		args = append(args, filter.AssignedUserID)
	}
	if filter.WorkflowID != "" {
		where = append(where, "workflow_id = ?")
		args = append(args, filter.WorkflowID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + caseColumns + ` FROM cases`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_on DESC, rowid DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list cases", zap.Error(err))
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	defer rows.Close()

	var cases []*entity.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (r *CaseRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `SELECT status, COUNT(*) FROM cases GROUP BY status`)
	if err != nil {
		r.logger.Error("Failed to count cases", zap.Error(err))
		return nil, fmt.Errorf("failed to count cases: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan case count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Delete removes dependents explicitly so the result does not depend on
// the connection's foreign key setting. Run it inside a transaction.
func (r *CaseRepository) Delete(ctx context.Context, id string) error {
	exec := getExecutor(ctx, r.db)
	for _, stmt := range []string{
		`DELETE FROM answers WHERE case_id = ?`,
		`DELETE FROM comments WHERE case_id = ?`,
		`DELETE FROM events WHERE case_id = ?`,
		`DELETE FROM cases WHERE id = ?`,
	} {
		if _, err := exec.ExecContext(ctx, stmt, id); err != nil {
			r.logger.Error("Failed to delete case", zap.String("case_id", id), zap.Error(err))
			return fmt.Errorf("failed to delete case: %w", err)
		}
	}
	return nil
}

var _ port.CaseRepository = (*CaseRepository)(nil)
