package event

import (
	"testing"
	"time"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"status change", TypeStatusChange, true},
		{"stage change", TypeStageChange, true},
		{"completed", TypeCompleted, true},
		{"unknown", Type("instance.created"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	evt := NewEvent(TypeStageChange, "c1", "Intake", "Review")

	if evt.ID == "" {
		t.Error("NewEvent() ID should not be empty")
	}
	if evt.CaseID != "c1" || evt.OldValue != "Intake" || evt.NewValue != "Review" {
		t.Errorf("NewEvent() = %+v, fields not copied", evt)
	}
	if evt.CreatedAt.Before(before) {
		t.Error("NewEvent() CreatedAt is earlier than call time")
	}
	if evt.Payload == nil {
		t.Error("NewEvent() Payload should be initialised")
	}
}

func TestEvent_WithPayloadDoesNotMutateOriginal(t *testing.T) {
	evt := NewEvent(TypeStatusChange, "c1", "pending", "completed")
	withUser := evt.WithPayload(PayloadAssignedUserID, "u7")

	if evt.GetPayloadString(PayloadAssignedUserID) != "" {
		t.Error("WithPayload() modified the original event")
	}
	if got := withUser.GetPayloadString(PayloadAssignedUserID); got != "u7" {
		t.Errorf("GetPayloadString() = %q, want u7", got)
	}
	if withUser.ID != evt.ID {
		t.Error("WithPayload() should keep the event id")
	}
}

func TestEvent_GetPayloadStringWrongType(t *testing.T) {
	evt := NewEvent(TypeStatusChange, "c1", "", "").WithPayload("n", 3)
	if got := evt.GetPayloadString("n"); got != "" {
		t.Errorf("GetPayloadString() = %q for non-string value, want empty", got)
	}
}
