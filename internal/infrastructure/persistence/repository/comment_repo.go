package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"go.uber.org/zap"
)

// CommentRepository implements port.CommentRepository
type CommentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sql.DB, logger *zap.Logger) port.CommentRepository {
	return &CommentRepository{db: db, logger: logger}
}

const commentColumns = `comment_id, case_id, user_id, content, replying_to_id, question_id, created_on`

func scanComment(s scanner) (*entity.Comment, error) {
	var c entity.Comment
	var parentID sql.NullString
	if err := s.Scan(&c.ID, &c.CaseID, &c.UserID, &c.Content, &parentID, &c.QuestionID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.ParentID = parentID.String
	return &c, nil
}

func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now()
	}
	_, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CaseID, c.UserID, c.Content, nullIfEmpty(c.ParentID), c.QuestionID, c.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create comment", zap.String("case_id", c.CaseID), zap.Error(err))
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE comment_id = ?`, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get comment", zap.String("comment_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return c, nil
}

// ListByCase returns a flat list in posting order
func (r *CommentRepository) ListByCase(ctx context.Context, caseID string) ([]*entity.Comment, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE case_id = ? ORDER BY created_on, rowid`, caseID)
	if err != nil {
		r.logger.Error("Failed to list comments", zap.String("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*entity.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

var _ port.CommentRepository = (*CommentRepository)(nil)
