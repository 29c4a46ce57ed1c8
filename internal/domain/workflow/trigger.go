package workflow

// Trigger is an engine action that moves a case between statuses
type Trigger string

const (
	// TriggerAdvance moves the case to the next stage and leaves it pending review
	TriggerAdvance Trigger = "advance"
	// TriggerComplete finishes the case after its last stage
	TriggerComplete Trigger = "complete"
	// TriggerAbandon closes the case without completing it
	TriggerAbandon Trigger = "abandon"
)

func (t Trigger) String() string {
	return string(t)
}
