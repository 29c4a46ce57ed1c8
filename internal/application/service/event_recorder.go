package service

import (
	"context"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/event"
)

// EventRecorder appends case history entries
type EventRecorder struct {
	eventRepo port.EventRepository
	logger    Logger
}

// NewEventRecorder creates a new EventRecorder
func NewEventRecorder(eventRepo port.EventRepository, logger Logger) *EventRecorder {
	return &EventRecorder{eventRepo: eventRepo, logger: logger}
}

// Record inserts a new event. It never updates an existing one.
func (r *EventRecorder) Record(ctx context.Context, caseID string, eventType event.Type, oldValue, newValue string) (*event.Event, error) {
	evt := event.NewEvent(eventType, caseID, oldValue, newValue)
	if err := r.eventRepo.Append(ctx, evt); err != nil {
		return nil, err
	}

	r.logger.Info("Case event recorded",
		"case_id", caseID,
		"event_type", eventType.String(),
		"old_value", oldValue,
		"new_value", newValue,
	)
	return evt, nil
}

// History returns every event of the case, oldest first
func (r *EventRecorder) History(ctx context.Context, caseID string) ([]*event.Event, error) {
	events, err := r.eventRepo.ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []*event.Event{}
	}
	return events, nil
}
