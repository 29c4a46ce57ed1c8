package workflow

import (
	"context"

	"github.com/garyjia/case-tracker/internal/application/service"
	"github.com/garyjia/case-tracker/internal/domain/entity"
)

// SubmitRequest is one step submitted against a template
type SubmitRequest struct {
	TemplateID string
	// CaseID resumes an existing case; empty or unknown starts a new one
	CaseID string
	// UserID becomes the assignee of a newly created case
	UserID string
	// RoleID is the role the submission is made as; empty means the case's current role
	RoleID  string
	Fields  map[string]interface{}
	Comment string
	Actor   entity.Actor
}

// CaseEngine drives cases through their template's stages and roles
type CaseEngine interface {
	// SubmitStep validates and stores answers, then advances the case.
	// A *service.ValidationErrors result means nothing was written.
	SubmitStep(ctx context.Context, req SubmitRequest) (*service.CaseView, error)

	// Deny resets the case to its template's first stage without touching status
	Deny(ctx context.Context, caseID string, actor entity.Actor) (*service.CaseView, error)

	// Reassign changes the assigned user only
	Reassign(ctx context.Context, caseID, newUserID string, actor entity.Actor) (*service.CaseView, error)

	// Abandon closes a non-terminal case
	Abandon(ctx context.Context, caseID string, actor entity.Actor) (*service.CaseView, error)
}
