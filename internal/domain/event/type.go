package event

// Type is the kind of change recorded in a case history
type Type string

const (
	// TypeStatusChange records a case moving between lifecycle statuses
	TypeStatusChange Type = "status_change"
	// TypeStageChange records a case moving between approval stages
	TypeStageChange Type = "stage_change"
	// TypeCompleted records a forced completion when no next stage exists
	TypeCompleted Type = "completed"
)

var validTypes = map[Type]bool{
	TypeStatusChange: true,
	TypeStageChange:  true,
	TypeCompleted:    true,
}

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t is a known event type
func (t Type) IsValid() bool {
	return validTypes[t]
}
