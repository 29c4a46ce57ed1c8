package entity

// Case status values. They mirror workflow.State and are stored as-is.
const (
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

// Question type names with special answer handling
const (
	QuestionTypeCheckbox = "checkbox"
	QuestionTypeSelect   = "select"
	QuestionTypeText     = "text"
	QuestionTypeTextarea = "textarea"
)

// FieldKeyPrefix prefixes a question id to form the form field key of its answer
const FieldKeyPrefix = "question_"

// NoStage is recorded as an event value when a case has no stage to name
const NoStage = "none"
