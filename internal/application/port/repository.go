package port

import (
	"context"
	"errors"

	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/garyjia/case-tracker/internal/domain/event"
)

// Repositories return (nil, nil) from single-row lookups when the row does not exist.

// ErrStaleCase is returned by CaseRepository.Update when the stored version
// no longer matches the version the caller loaded
var ErrStaleCase = errors.New("case was modified concurrently")

// RoleRepository defines persistence operations for Role
type RoleRepository interface {
	Create(ctx context.Context, role *entity.Role) error
	GetByID(ctx context.Context, id string) (*entity.Role, error)
	List(ctx context.Context) ([]*entity.Role, error)
}

// QuestionTypeRepository defines persistence operations for QuestionType
type QuestionTypeRepository interface {
	Create(ctx context.Context, qt *entity.QuestionType) error
	GetByID(ctx context.Context, id string) (*entity.QuestionType, error)
	List(ctx context.Context) ([]*entity.QuestionType, error)
}

// QuestionRepository defines persistence operations for Question.
// Loaded questions carry their QuestionType.
type QuestionRepository interface {
	Create(ctx context.Context, q *entity.Question) error
	GetByID(ctx context.Context, id string) (*entity.Question, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entity.Question, error)
}

// TemplateRepository defines persistence operations for WorkflowTemplate.
// RoleIDs and QuestionIDs are stored with their positions.
type TemplateRepository interface {
	Create(ctx context.Context, tmpl *entity.WorkflowTemplate) error
	GetByID(ctx context.Context, id string) (*entity.WorkflowTemplate, error)
	List(ctx context.Context) ([]*entity.WorkflowTemplate, error)
	Delete(ctx context.Context, id string) error
}

// StageRepository defines persistence operations for ApprovalStage
type StageRepository interface {
	Create(ctx context.Context, stage *entity.ApprovalStage) error
	GetByID(ctx context.Context, id string) (*entity.ApprovalStage, error)
	ListByTemplate(ctx context.Context, templateID string) ([]*entity.ApprovalStage, error)
	GetFirst(ctx context.Context, templateID string) (*entity.ApprovalStage, error)
}

// CaseFilter narrows CaseRepository.List
type CaseFilter struct {
	AssignedUserID string
	WorkflowID     string
	Status         string
	Limit          int
	Offset         int
}

// CaseRepository defines persistence operations for Case
type CaseRepository interface {
	Create(ctx context.Context, c *entity.Case) error
	GetByID(ctx context.Context, id string) (*entity.Case, error)
	// Update writes c when its Version matches the stored row and bumps Version.
	Update(ctx context.Context, c *entity.Case) error
	List(ctx context.Context, filter CaseFilter) ([]*entity.Case, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	// Delete removes the case together with its answers, comments and events
	Delete(ctx context.Context, id string) error
}

// AnswerRepository defines persistence operations for Answer
type AnswerRepository interface {
	// Upsert inserts the answer or replaces the text of the existing
	// answer for the same (case, question)
	Upsert(ctx context.Context, a *entity.Answer) error
	ListByCase(ctx context.Context, caseID string) ([]*entity.Answer, error)
}

// CommentRepository defines persistence operations for Comment
type CommentRepository interface {
	Create(ctx context.Context, c *entity.Comment) error
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	ListByCase(ctx context.Context, caseID string) ([]*entity.Comment, error)
}

// EventRepository stores the append-only case history
type EventRepository interface {
	Append(ctx context.Context, evt *event.Event) error
	// ListByCase returns events oldest first
	ListByCase(ctx context.Context, caseID string) ([]*event.Event, error)
}

// MessageRepository defines persistence operations for InternalMessage
type MessageRepository interface {
	Create(ctx context.Context, msg *entity.InternalMessage) error
	GetByID(ctx context.Context, id string) (*entity.InternalMessage, error)
	// ListByUser returns messages newest first
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*entity.InternalMessage, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
