package service

import (
	"context"
	"sync"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/garyjia/case-tracker/internal/domain/event"
)

// passthroughTx runs fn directly
type passthroughTx struct {
	calls int
}

func (m *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockMessageRepo struct {
	mu         sync.Mutex
	messages   map[string]*entity.InternalMessage
	createFunc func(ctx context.Context, msg *entity.InternalMessage) error
	markedRead []string
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{messages: make(map[string]*entity.InternalMessage)}
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *entity.InternalMessage) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ID] = msg
	return nil
}

func (m *mockMessageRepo) GetByID(ctx context.Context, id string) (*entity.InternalMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[id], nil
}

func (m *mockMessageRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]*entity.InternalMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.InternalMessage
	for _, msg := range m.messages {
		if msg.ToUserID == userID && (!unreadOnly || !msg.IsRead) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markedRead = append(m.markedRead, id)
	if msg, ok := m.messages[id]; ok {
		msg.IsRead = true
	}
	return nil
}

func (m *mockMessageRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.messages {
		if msg.ToUserID == userID && !msg.IsRead {
			msg.IsRead = true
			n++
		}
	}
	return n, nil
}

type mockCaseRepo struct {
	cases   map[string]*entity.Case
	counts  map[string]int
	getErr  error
	deleted []string
}

func newMockCaseRepo(cases ...*entity.Case) *mockCaseRepo {
	m := &mockCaseRepo{cases: make(map[string]*entity.Case)}
	for _, c := range cases {
		m.cases[c.ID] = c
	}
	return m
}

func (m *mockCaseRepo) Create(ctx context.Context, c *entity.Case) error {
	m.cases[c.ID] = c
	return nil
}

func (m *mockCaseRepo) GetByID(ctx context.Context, id string) (*entity.Case, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.cases[id], nil
}

func (m *mockCaseRepo) Update(ctx context.Context, c *entity.Case) error {
	m.cases[c.ID] = c
	return nil
}

func (m *mockCaseRepo) List(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error) {
	var out []*entity.Case
	for _, c := range m.cases {
		if filter.WorkflowID != "" && c.WorkflowID != filter.WorkflowID {
			continue
		}
		if filter.AssignedUserID != "" && c.AssignedUserID != filter.AssignedUserID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCaseRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	return m.counts, nil
}

func (m *mockCaseRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.cases, id)
	return nil
}

type mockCommentRepo struct {
	comments map[string]*entity.Comment
	created  []*entity.Comment
}

func newMockCommentRepo(comments ...*entity.Comment) *mockCommentRepo {
	m := &mockCommentRepo{comments: make(map[string]*entity.Comment)}
	for _, c := range comments {
		m.comments[c.ID] = c
	}
	return m
}

func (m *mockCommentRepo) Create(ctx context.Context, c *entity.Comment) error {
	m.comments[c.ID] = c
	m.created = append(m.created, c)
	return nil
}

func (m *mockCommentRepo) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	return m.comments[id], nil
}

func (m *mockCommentRepo) ListByCase(ctx context.Context, caseID string) ([]*entity.Comment, error) {
	var out []*entity.Comment
	for _, c := range m.created {
		if c.CaseID == caseID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockAnswerRepo struct {
	upserted  []*entity.Answer
	upsertErr error
}

func (m *mockAnswerRepo) Upsert(ctx context.Context, a *entity.Answer) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, a)
	return nil
}

func (m *mockAnswerRepo) ListByCase(ctx context.Context, caseID string) ([]*entity.Answer, error) {
	return m.upserted, nil
}

type mockEventRepo struct {
	events []*event.Event
}

func (m *mockEventRepo) Append(ctx context.Context, evt *event.Event) error {
	m.events = append(m.events, evt)
	return nil
}

func (m *mockEventRepo) ListByCase(ctx context.Context, caseID string) ([]*event.Event, error) {
	var out []*event.Event
	for _, e := range m.events {
		if e.CaseID == caseID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockRoleRepo struct {
	roles map[string]*entity.Role
}

func (m *mockRoleRepo) Create(ctx context.Context, role *entity.Role) error {
	if m.roles == nil {
		m.roles = make(map[string]*entity.Role)
	}
	m.roles[role.ID] = role
	return nil
}

func (m *mockRoleRepo) GetByID(ctx context.Context, id string) (*entity.Role, error) {
	return m.roles[id], nil
}

func (m *mockRoleRepo) List(ctx context.Context) ([]*entity.Role, error) {
	var out []*entity.Role
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

type mockQuestionTypeRepo struct {
	types map[string]*entity.QuestionType
}

func (m *mockQuestionTypeRepo) Create(ctx context.Context, qt *entity.QuestionType) error {
	if m.types == nil {
		m.types = make(map[string]*entity.QuestionType)
	}
	m.types[qt.ID] = qt
	return nil
}

func (m *mockQuestionTypeRepo) GetByID(ctx context.Context, id string) (*entity.QuestionType, error) {
	return m.types[id], nil
}

func (m *mockQuestionTypeRepo) List(ctx context.Context) ([]*entity.QuestionType, error) {
	return nil, nil
}

type mockQuestionRepo struct {
	questions map[string]*entity.Question
}

func (m *mockQuestionRepo) Create(ctx context.Context, q *entity.Question) error {
	if m.questions == nil {
		m.questions = make(map[string]*entity.Question)
	}
	m.questions[q.ID] = q
	return nil
}

func (m *mockQuestionRepo) GetByID(ctx context.Context, id string) (*entity.Question, error) {
	return m.questions[id], nil
}

func (m *mockQuestionRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Question, error) {
	var out []*entity.Question
	for _, id := range ids {
		if q, ok := m.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

type mockTemplateRepo struct {
	templates map[string]*entity.WorkflowTemplate
	deleted   []string
}

func (m *mockTemplateRepo) Create(ctx context.Context, tmpl *entity.WorkflowTemplate) error {
	if m.templates == nil {
		m.templates = make(map[string]*entity.WorkflowTemplate)
	}
	m.templates[tmpl.ID] = tmpl
	return nil
}

func (m *mockTemplateRepo) GetByID(ctx context.Context, id string) (*entity.WorkflowTemplate, error) {
	tmpl, ok := m.templates[id]
	if !ok {
		return nil, nil
	}
	cp := *tmpl
	cp.Roles, cp.Questions, cp.Stages = nil, nil, nil
	return &cp, nil
}

func (m *mockTemplateRepo) List(ctx context.Context) ([]*entity.WorkflowTemplate, error) {
	return nil, nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.templates, id)
	return nil
}

type mockStageRepo struct {
	stages []*entity.ApprovalStage
}

func (m *mockStageRepo) Create(ctx context.Context, st *entity.ApprovalStage) error {
	m.stages = append(m.stages, st)
	return nil
}

func (m *mockStageRepo) GetByID(ctx context.Context, id string) (*entity.ApprovalStage, error) {
	for _, st := range m.stages {
		if st.ID == id {
			return st, nil
		}
	}
	return nil, nil
}

func (m *mockStageRepo) ListByTemplate(ctx context.Context, templateID string) ([]*entity.ApprovalStage, error) {
	var out []*entity.ApprovalStage
	for _, st := range m.stages {
		if st.TemplateID == templateID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *mockStageRepo) GetFirst(ctx context.Context, templateID string) (*entity.ApprovalStage, error) {
	for _, st := range m.stages {
		if st.TemplateID == templateID && st.IsFirst {
			return st, nil
		}
	}
	return nil, nil
}

var (
	_ port.TransactionManager     = (*passthroughTx)(nil)
	_ port.MessageRepository      = (*mockMessageRepo)(nil)
	_ port.CaseRepository         = (*mockCaseRepo)(nil)
	_ port.CommentRepository      = (*mockCommentRepo)(nil)
	_ port.AnswerRepository       = (*mockAnswerRepo)(nil)
	_ port.EventRepository        = (*mockEventRepo)(nil)
	_ port.RoleRepository         = (*mockRoleRepo)(nil)
	_ port.QuestionTypeRepository = (*mockQuestionTypeRepo)(nil)
	_ port.QuestionRepository     = (*mockQuestionRepo)(nil)
	_ port.TemplateRepository     = (*mockTemplateRepo)(nil)
	_ port.StageRepository        = (*mockStageRepo)(nil)
)
