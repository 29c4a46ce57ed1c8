package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/garyjia/case-tracker/internal/domain/event"
	"github.com/garyjia/case-tracker/internal/idgen"
	"github.com/garyjia/case-tracker/pkg/utils"
)

// CaseService resolves cases for submission and serves case read models
type CaseService interface {
	// ResolveOrCreateCase returns the existing case when callerCaseID names
	// one, otherwise it starts a new case at the template's first stage and role.
	ResolveOrCreateCase(ctx context.Context, templateID, callerCaseID, userID string, actor entity.Actor) (*entity.Case, bool, error)
	GetCase(ctx context.Context, id string) (*CaseView, error)
	ListCases(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error)
	Stats(ctx context.Context) (*entity.CaseStats, error)
	DeleteCase(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]*event.Event, error)
	AddComment(ctx context.Context, caseID, parentID, content string, actor entity.Actor) (*entity.Comment, error)
	// ExportHistory gathers cases matching filter together with their events
	ExportHistory(ctx context.Context, filter port.CaseFilter) ([]port.CaseHistory, error)
}

type caseServiceImpl struct {
	caseRepo      port.CaseRepository
	answerRepo    port.AnswerRepository
	commentRepo   port.CommentRepository
	catalog       CatalogService
	recorder      *EventRecorder
	txManager     port.TransactionManager
	anonymousUser string
	logger        Logger
}

// NewCaseService creates a new CaseService
func NewCaseService(
	caseRepo port.CaseRepository,
	answerRepo port.AnswerRepository,
	commentRepo port.CommentRepository,
	catalog CatalogService,
	recorder *EventRecorder,
	txManager port.TransactionManager,
	anonymousUser string,
	logger Logger,
) CaseService {
	if anonymousUser == "" {
		anonymousUser = DefaultAnonymousUser
	}
	return &caseServiceImpl{
		caseRepo:      caseRepo,
		answerRepo:    answerRepo,
		commentRepo:   commentRepo,
		catalog:       catalog,
		recorder:      recorder,
		txManager:     txManager,
		anonymousUser: anonymousUser,
		logger:        logger,
	}
}

func (s *caseServiceImpl) ResolveOrCreateCase(ctx context.Context, templateID, callerCaseID, userID string, actor entity.Actor) (*entity.Case, bool, error) {
	var kase *entity.Case
	created := false

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if callerCaseID != "" {
			existing, err := s.caseRepo.GetByID(ctx, callerCaseID)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.WorkflowID != templateID {
					return invalidInput("case %s belongs to template %s", existing.ID, existing.WorkflowID)
				}
				kase = existing
				return nil
			}
		}

		tmpl, err := s.catalog.GetTemplate(ctx, templateID)
		if err != nil {
			return err
		}
		roles, stages, err := TemplateSequences(tmpl)
		if err != nil {
			return err
		}

		kase = &entity.Case{
			ID:             idgen.New(),
			CaseNumber:     idgen.CaseNumber(),
			WorkflowID:     tmpl.ID,
			CurrentRoleID:  roles.First(),
			CurrentStageID: stages.First().ID,
			Status:         entity.StatusActive,
			AssignedUserID: userID,
			AuthorUsername: actor.DisplayName(s.anonymousUser),
		}
		if err := s.caseRepo.Create(ctx, kase); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, Classify("resolve case", err)
	}

	if created {
		s.logger.Info("Case created",
			"case_id", kase.ID,
			"case_number", kase.CaseNumber,
			"template_id", templateID,
			"assigned_user_id", userID,
		)
	}
	return kase, created, nil
}

func (s *caseServiceImpl) GetCase(ctx context.Context, id string) (*CaseView, error) {
	kase, err := s.caseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, Classify("get case", err)
	}
	if kase == nil {
		return nil, notFound("case", id)
	}

	tmpl, err := s.catalog.GetTemplate(ctx, kase.WorkflowID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.ListByCase(ctx, id)
	if err != nil {
		return nil, Classify("get case answers", err)
	}
	comments, err := s.commentRepo.ListByCase(ctx, id)
	if err != nil {
		return nil, Classify("get case comments", err)
	}

	return buildView(kase, tmpl, answers, comments), nil
}

func buildView(kase *entity.Case, tmpl *entity.WorkflowTemplate, answers []*entity.Answer, comments []*entity.Comment) *CaseView {
	view := &CaseView{
		Case:          kase,
		TemplateTitle: tmpl.Title,
		Answers:       make([]AnsweredQuestion, 0, len(tmpl.Questions)),
		Comments:      CommentTree(comments),
	}

	for _, st := range tmpl.Stages {
		if st.ID == kase.CurrentStageID {
			view.CurrentStage = st.Name
		}
	}
	for _, r := range tmpl.Roles {
		if r.ID == kase.CurrentRoleID {
			view.CurrentRole = r.Name
		}
	}

	byQuestion := make(map[string]*entity.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	for _, q := range tmpl.Questions {
		aq := AnsweredQuestion{QuestionID: q.ID, FieldKey: q.FieldKey(), Label: q.Text}
		if a, ok := byQuestion[q.ID]; ok {
			aq.Answer = a.AnswerText
			aq.Answered = true
		}
		view.Answers = append(view.Answers, aq)
	}
	return view
}

func (s *caseServiceImpl) ListCases(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error) {
	cases, err := s.caseRepo.List(ctx, filter)
	if err != nil {
		return nil, Classify("list cases", err)
	}
	if cases == nil {
		cases = []*entity.Case{}
	}
	return cases, nil
}

func (s *caseServiceImpl) Stats(ctx context.Context) (*entity.CaseStats, error) {
	counts, err := s.caseRepo.CountByStatus(ctx)
	if err != nil {
		return nil, Classify("case stats", err)
	}
	stats := &entity.CaseStats{}
	for status, n := range counts {
		stats.Add(status, n)
	}
	return stats, nil
}

func (s *caseServiceImpl) DeleteCase(ctx context.Context, id string) error {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		kase, err := s.caseRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if kase == nil {
			return notFound("case", id)
		}
		return s.caseRepo.Delete(ctx, id)
	})
	if err != nil {
		return Classify("delete case", err)
	}

	s.logger.Info("Case deleted", "case_id", id)
	return nil
}

func (s *caseServiceImpl) History(ctx context.Context, id string) ([]*event.Event, error) {
	kase, err := s.caseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, Classify("case history", err)
	}
	if kase == nil {
		return nil, notFound("case", id)
	}
	events, err := s.recorder.History(ctx, id)
	return events, Classify("case history", err)
}

// AddComment attaches a comment, or a reply when parentID is set. The parent
// must be a comment of the same case.
func (s *caseServiceImpl) AddComment(ctx context.Context, caseID, parentID, content string, actor entity.Actor) (*entity.Comment, error) {
	content = strings.TrimSpace(utils.SanitizeString(content))
	if content == "" {
		return nil, invalidInput("comment is empty")
	}

	comment := &entity.Comment{
		ID:       idgen.NewRecord(),
		CaseID:   caseID,
		UserID:   actor.DisplayName(s.anonymousUser),
		Content:  content,
		ParentID: parentID,
	}

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		kase, err := s.caseRepo.GetByID(ctx, caseID)
		if err != nil {
			return err
		}
		if kase == nil {
			return notFound("case", caseID)
		}

		if parentID != "" {
			parent, err := s.commentRepo.GetByID(ctx, parentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return notFound("comment", parentID)
			}
			if parent.CaseID != caseID {
				return invalidInput("comment %s belongs to another case", parentID)
			}
		}
		return s.commentRepo.Create(ctx, comment)
	})
	if err != nil {
		return nil, Classify("add comment", err)
	}

	s.logger.Info("Comment added", "case_id", caseID, "comment_id", comment.ID, "reply", parentID != "")
	return comment, nil
}

func (s *caseServiceImpl) ExportHistory(ctx context.Context, filter port.CaseFilter) ([]port.CaseHistory, error) {
	cases, err := s.caseRepo.List(ctx, filter)
	if err != nil {
		return nil, Classify("export cases", err)
	}

	titles := make(map[string]string)
	out := make([]port.CaseHistory, 0, len(cases))
	for _, c := range cases {
		title, ok := titles[c.WorkflowID]
		if !ok {
			tmpl, err := s.catalog.GetTemplate(ctx, c.WorkflowID)
			if err != nil {
				return nil, fmt.Errorf("export case %s: %w", c.ID, err)
			}
			title = tmpl.Title
			titles[c.WorkflowID] = title
		}

		events, err := s.recorder.History(ctx, c.ID)
		if err != nil {
			return nil, Classify("export case history", err)
		}
		out = append(out, port.CaseHistory{Case: c, TemplateTitle: title, Events: events})
	}
	return out, nil
}

// CommentTree nests replies under their parents. Input order is kept at
// every level; a reply whose parent is missing is treated as a root.
func CommentTree(flat []*entity.Comment) []*entity.Comment {
	byID := make(map[string]*entity.Comment, len(flat))
	nodes := make([]*entity.Comment, len(flat))
	for i, c := range flat {
		cp := *c
		cp.Replies = nil
		nodes[i] = &cp
		byID[cp.ID] = &cp
	}

	roots := make([]*entity.Comment, 0, len(nodes))
	for _, n := range nodes {
		if parent, ok := byID[n.ParentID]; ok && n.ParentID != "" && parent != n {
			parent.Replies = append(parent.Replies, n)
			continue
		}
		roots = append(roots, n)
	}
	return roots
}
