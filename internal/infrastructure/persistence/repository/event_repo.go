package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/event"
	"go.uber.org/zap"
)

// EventRepository implements port.EventRepository. Events are never updated.
type EventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB, logger *zap.Logger) port.EventRepository {
	return &EventRepository{db: db, logger: logger}
}

func (r *EventRepository) Append(ctx context.Context, evt *event.Event) error {
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = now()
	}
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO events (id, case_id, event_type, old_value, new_value, created_on)
		VALUES (?, ?, ?, ?, ?, ?)`,
		evt.ID, evt.CaseID, string(evt.Type), evt.OldValue, evt.NewValue, evt.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append event",
			zap.String("case_id", evt.CaseID), zap.String("event_type", evt.Type.String()), zap.Error(err))
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// ListByCase orders by insertion so events written in the same instant keep their order
func (r *EventRepository) ListByCase(ctx context.Context, caseID string) ([]*event.Event, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, `
		SELECT id, case_id, event_type, old_value, new_value, created_on
		FROM events WHERE case_id = ? ORDER BY created_on, rowid`, caseID)
	if err != nil {
		r.logger.Error("Failed to list events", zap.String("case_id", caseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		var evt event.Event
		var typ string
		if err := rows.Scan(&evt.ID, &evt.CaseID, &typ, &evt.OldValue, &evt.NewValue, &evt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		evt.Type = event.Type(typ)
		events = append(events, &evt)
	}
	return events, rows.Err()
}

var _ port.EventRepository = (*EventRepository)(nil)
