package entity

import "time"

// Case is one running instance of a workflow template
type Case struct {
	ID             string    `json:"id"`
	CaseNumber     string    `json:"case_number"`
	WorkflowID     string    `json:"workflow_id"`
	CurrentRoleID  string    `json:"current_role_id"`
	CurrentStageID string    `json:"current_stage_id,omitempty"`
	Status         string    `json:"status"`
	AssignedUserID string    `json:"assigned_user_id,omitempty"`
	AuthorUsername string    `json:"author_username"`
	ModifiedBy     string    `json:"modified_by,omitempty"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_on"`
	UpdatedAt      time.Time `json:"updated_on"`
}

// Answer is the stored response to one question on one case
type Answer struct {
	ID         string    `json:"id"`
	CaseID     string    `json:"case_id"`
	CaseNumber string    `json:"case_number"`
	WorkflowID string    `json:"workflow_id"`
	QuestionID string    `json:"question_id"`
	AnswerText string    `json:"answer_text"`
	CreatedAt  time.Time `json:"created_on"`
	UpdatedAt  time.Time `json:"updated_on"`
}

// Comment is free-form discussion attached to a case
type Comment struct {
	ID         string     `json:"comment_id"`
	CaseID     string     `json:"case_id"`
	UserID     string     `json:"user_id"`
	Content    string     `json:"content"`
	ParentID   string     `json:"replying_to_id,omitempty"`
	QuestionID string     `json:"question_id,omitempty"`
	CreatedAt  time.Time  `json:"created_on"`
	Replies    []*Comment `json:"replies,omitempty"`
}

// CaseStats counts cases per status
type CaseStats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Abandoned int `json:"abandoned"`
}

// Add increments the counter for status
func (s *CaseStats) Add(status string, n int) {
	s.Total += n
	switch status {
	case StatusActive:
		s.Active += n
	case StatusPending:
		s.Pending += n
	case StatusCompleted:
		s.Completed += n
	case StatusAbandoned:
		s.Abandoned += n
	}
}

// Actor identifies who is performing an operation
type Actor struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// DisplayName returns the username, or fallback for unauthenticated callers
func (a Actor) DisplayName(fallback string) string {
	if a.Username == "" {
		return fallback
	}
	return a.Username
}
