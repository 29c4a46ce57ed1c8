package service

import "github.com/garyjia/case-tracker/internal/domain/entity"

// DefaultAnonymousUser attributes actions taken without a username
const DefaultAnonymousUser = "Anonymous"

// WarningMisconfiguredTemplate is reported when a case was force-completed
// because its stage had no successor and was not flagged last
const WarningMisconfiguredTemplate = "misconfigured_template"

// Warning is a non-fatal condition reported alongside a result
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnsweredQuestion pairs a template question with the case's answer
type AnsweredQuestion struct {
	QuestionID string `json:"question_id"`
	FieldKey   string `json:"field_key"`
	Label      string `json:"label"`
	Answer     string `json:"answer"`
	Answered   bool   `json:"answered"`
}

// CaseView is the read model returned by case operations
type CaseView struct {
	Case          *entity.Case       `json:"case"`
	TemplateTitle string             `json:"template_title"`
	CurrentStage  string             `json:"current_stage,omitempty"`
	CurrentRole   string             `json:"current_role,omitempty"`
	Answers       []AnsweredQuestion `json:"answers"`
	Comments      []*entity.Comment  `json:"comments"`
	Warnings      []Warning          `json:"warnings,omitempty"`
}
