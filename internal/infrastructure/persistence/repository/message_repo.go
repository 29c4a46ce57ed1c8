package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"go.uber.org/zap"
)

// MessageRepository implements port.MessageRepository
type MessageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMessageRepository creates a new internal message repository
func NewMessageRepository(db *sql.DB, logger *zap.Logger) port.MessageRepository {
	return &MessageRepository{db: db, logger: logger}
}

const messageColumns = `id, to_user_id, subject, content, case_id, is_read, created_on`

func scanMessage(s scanner) (*entity.InternalMessage, error) {
	var m entity.InternalMessage
	if err := s.Scan(&m.ID, &m.ToUserID, &m.Subject, &m.Content, &m.CaseID, &m.IsRead, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepository) Create(ctx context.Context, m *entity.InternalMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}
	_, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO internal_messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ToUserID, m.Subject, m.Content, m.CaseID, m.IsRead, m.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create message", zap.String("to_user_id", m.ToUserID), zap.Error(err))
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*entity.InternalMessage, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM internal_messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get message", zap.String("message_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*entity.InternalMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM internal_messages WHERE to_user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_on DESC, rowid DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list messages", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*entity.InternalMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) MarkRead(ctx context.Context, id string) error {
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE internal_messages SET is_read = 1 WHERE id = ?`, id); err != nil {
		r.logger.Error("Failed to mark message read", zap.String("message_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

func (r *MessageRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE internal_messages SET is_read = 1 WHERE to_user_id = ? AND is_read = 0`, userID)
	if err != nil {
		r.logger.Error("Failed to mark messages read", zap.String("user_id", userID), zap.Error(err))
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.RowsAffected()
}

var _ port.MessageRepository = (*MessageRepository)(nil)
