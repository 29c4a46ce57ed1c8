package workflow

// State is the lifecycle status of a case
type State string

const (
	StateActive    State = "active"
	StatePending   State = "pending"
	StateCompleted State = "completed"
	StateAbandoned State = "abandoned"
)

// IsTerminal reports whether the case can no longer be submitted or abandoned
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateAbandoned:
		return true
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// IsValid returns true if s is one of the known case statuses
func (s State) IsValid() bool {
	switch s {
	case StateActive, StatePending, StateCompleted, StateAbandoned:
		return true
	}
	return false
}
