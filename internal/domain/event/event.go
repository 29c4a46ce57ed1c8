package event

import (
	"time"

	"github.com/garyjia/case-tracker/internal/idgen"
)

// Payload keys attached to events before they are dispatched
const (
	PayloadCaseNumber     = "case_number"
	PayloadAssignedUserID = "assigned_user_id"
	PayloadActor          = "actor"
	PayloadTemplateTitle  = "template_title"
)

// Event is an append-only history record of a case. Payload carries
// dispatch context only and is not persisted.
type Event struct {
	ID        string                 `json:"id"`
	CaseID    string                 `json:"case_id"`
	Type      Type                   `json:"event_type"`
	OldValue  string                 `json:"old_value"`
	NewValue  string                 `json:"new_value"`
	CreatedAt time.Time              `json:"created_on"`
	Payload   map[string]interface{} `json:"-"`
}

// NewEvent creates an event with a generated id and the current time
func NewEvent(eventType Type, caseID, oldValue, newValue string) *Event {
	return &Event{
		ID:        idgen.NewRecord(),
		CaseID:    caseID,
		Type:      eventType,
		OldValue:  oldValue,
		NewValue:  newValue,
		CreatedAt: time.Now().UTC(),
		Payload:   map[string]interface{}{},
	}
}

// WithPayload returns a copy of the event with key set in its payload
func (e *Event) WithPayload(key string, value interface{}) *Event {
	payload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	cp := *e
	cp.Payload = payload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
