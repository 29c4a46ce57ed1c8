package entity

import "time"

// InternalMessage is an in-app notification addressed to a single user
type InternalMessage struct {
	ID        string    `json:"id"`
	ToUserID  string    `json:"to_user_id"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	CaseID    string    `json:"case_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_on"`
}
