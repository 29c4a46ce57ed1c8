package entity

import (
	"strings"
	"time"
)

// Role is a named responsibility that can hold a case
type Role struct {
	ID        string    `json:"role_id" yaml:"id"`
	Name      string    `json:"role_name" yaml:"name"`
	Author    string    `json:"author" yaml:"author"`
	CreatedAt time.Time `json:"created_on" yaml:"-"`
}

// QuestionType describes how answers to a question are rendered and checked
type QuestionType struct {
	ID         string    `json:"question_type_id" yaml:"id"`
	Type       string    `json:"type" yaml:"type"`
	IsActive   bool      `json:"is_active" yaml:"is_active"`
	HasRegex   bool      `json:"has_regex" yaml:"has_regex"`
	RegexStr   string    `json:"regex_str,omitempty" yaml:"regex_str"`
	HasOptions bool      `json:"has_options" yaml:"has_options"`
	OptionsStr string    `json:"options_str,omitempty" yaml:"options_str"`
	Author     string    `json:"author" yaml:"author"`
	CreatedAt  time.Time `json:"created_on" yaml:"-"`
}

// Pattern returns the regex answers must match, or "" when unconstrained
func (qt *QuestionType) Pattern() string {
	if qt == nil || !qt.HasRegex {
		return ""
	}
	return qt.RegexStr
}

// Options splits the comma separated option list
func (qt *QuestionType) Options() []string {
	if qt == nil || !qt.HasOptions || strings.TrimSpace(qt.OptionsStr) == "" {
		return nil
	}
	parts := strings.Split(qt.OptionsStr, ",")
	opts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			opts = append(opts, p)
		}
	}
	return opts
}

// Question is a single form field asked by a workflow template
type Question struct {
	ID         string        `json:"question_id" yaml:"id"`
	Text       string        `json:"question_text" yaml:"text"`
	Help       string        `json:"question_help,omitempty" yaml:"help"`
	TypeID     string        `json:"question_type_id" yaml:"type_id"`
	IsRequired bool          `json:"is_required" yaml:"required"`
	IsActive   bool          `json:"is_active" yaml:"is_active"`
	Author     string        `json:"author" yaml:"author"`
	CreatedAt  time.Time     `json:"created_on" yaml:"-"`
	Type       *QuestionType `json:"question_type,omitempty" yaml:"-"`
}

// FieldKey is the form field that carries this question's answer
func (q *Question) FieldKey() string {
	return FieldKeyPrefix + q.ID
}

// ApprovalStage is one step of a template's review pipeline
type ApprovalStage struct {
	ID            string    `json:"stage_id"`
	TemplateID    string    `json:"workflow_template_id"`
	Name          string    `json:"stage_name"`
	Order         int       `json:"stage_order"`
	IsFirst       bool      `json:"is_first"`
	IsLast        bool      `json:"is_last"`
	ApproveRoleID string    `json:"approve_role_id,omitempty"`
	DenyRoleID    string    `json:"deny_role_id,omitempty"`
	Conditions    string    `json:"conditions,omitempty"`
	Author        string    `json:"author"`
	CreatedAt     time.Time `json:"created_on"`
}

// WorkflowTemplate is a reusable form plus its approval pipeline.
// RoleIDs and QuestionIDs are ordered; Roles, Questions and Stages are
// populated when the template is loaded through the catalog.
type WorkflowTemplate struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Author      string           `json:"author"`
	RoleIDs     []string         `json:"role_ids"`
	QuestionIDs []string         `json:"question_ids"`
	CreatedAt   time.Time        `json:"created_on"`
	UpdatedAt   time.Time        `json:"updated_on"`
	Roles       []*Role          `json:"roles,omitempty"`
	Questions   []*Question      `json:"questions,omitempty"`
	Stages      []*ApprovalStage `json:"stages,omitempty"`
}
