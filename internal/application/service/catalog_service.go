package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/garyjia/case-tracker/internal/domain/workflow"
	"github.com/garyjia/case-tracker/internal/idgen"
	"github.com/garyjia/case-tracker/pkg/utils"
	"github.com/go-playground/validator/v10"
)

// RoleDefinition describes a role to create. ID is generated when empty.
type RoleDefinition struct {
	ID     string `json:"role_id" yaml:"id" validate:"omitempty,max=64"`
	Name   string `json:"role_name" yaml:"name" validate:"required,max=128"`
	Author string `json:"author" yaml:"author"`
}

// QuestionTypeDefinition describes a question type to create
type QuestionTypeDefinition struct {
	ID         string `json:"question_type_id" yaml:"id" validate:"omitempty,max=64"`
	Type       string `json:"type" yaml:"type" validate:"required,max=64"`
	HasRegex   bool   `json:"has_regex" yaml:"has_regex"`
	RegexStr   string `json:"regex_str" yaml:"regex_str" validate:"required_if=HasRegex true"`
	HasOptions bool   `json:"has_options" yaml:"has_options"`
	OptionsStr string `json:"options_str" yaml:"options_str" validate:"required_if=HasOptions true"`
	Author     string `json:"author" yaml:"author"`
}

// QuestionDefinition describes a question to create
type QuestionDefinition struct {
	ID       string `json:"question_id" yaml:"id" validate:"omitempty,max=64"`
	Text     string `json:"question_text" yaml:"text" validate:"required"`
	Help     string `json:"question_help" yaml:"help"`
	TypeID   string `json:"question_type_id" yaml:"type_id" validate:"required"`
	Required bool   `json:"is_required" yaml:"required"`
	Author   string `json:"author" yaml:"author"`
}

// StageDefinition describes one approval stage of a new template
type StageDefinition struct {
	ID            string `json:"stage_id" yaml:"id" validate:"omitempty,max=64"`
	Name          string `json:"stage_name" yaml:"name" validate:"required"`
	Order         int    `json:"stage_order" yaml:"order" validate:"gte=0"`
	IsFirst       bool   `json:"is_first" yaml:"is_first"`
	IsLast        bool   `json:"is_last" yaml:"is_last"`
	ApproveRoleID string `json:"approve_role_id" yaml:"approve_role_id"`
	DenyRoleID    string `json:"deny_role_id" yaml:"deny_role_id"`
	Conditions    string `json:"conditions" yaml:"conditions"`
}

// TemplateDefinition describes a workflow template and its stages
type TemplateDefinition struct {
	ID          string            `json:"id" yaml:"id" validate:"omitempty,max=64"`
	Title       string            `json:"title" yaml:"title" validate:"required,max=256"`
	Author      string            `json:"author" yaml:"author" validate:"required"`
	RoleIDs     []string          `json:"role_ids" yaml:"roles" validate:"min=1,dive,required"`
	QuestionIDs []string          `json:"question_ids" yaml:"questions" validate:"min=1,dive,required"`
	Stages      []StageDefinition `json:"stages" yaml:"stages" validate:"min=1,dive"`
}

// CatalogService manages the definitions cases are executed against
type CatalogService interface {
	CreateRole(ctx context.Context, def RoleDefinition) (*entity.Role, error)
	ListRoles(ctx context.Context) ([]*entity.Role, error)
	CreateQuestionType(ctx context.Context, def QuestionTypeDefinition) (*entity.QuestionType, error)
	ListQuestionTypes(ctx context.Context) ([]*entity.QuestionType, error)
	CreateQuestion(ctx context.Context, def QuestionDefinition) (*entity.Question, error)
	CreateTemplate(ctx context.Context, def TemplateDefinition) (*entity.WorkflowTemplate, error)
	// GetTemplate returns the template with Roles, Questions and Stages loaded
	GetTemplate(ctx context.Context, id string) (*entity.WorkflowTemplate, error)
	ListTemplates(ctx context.Context) ([]*entity.WorkflowTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
}

type catalogServiceImpl struct {
	roleRepo         port.RoleRepository
	questionTypeRepo port.QuestionTypeRepository
	questionRepo     port.QuestionRepository
	templateRepo     port.TemplateRepository
	stageRepo        port.StageRepository
	caseRepo         port.CaseRepository
	txManager        port.TransactionManager
	validate         *validator.Validate
	logger           Logger
}

// CatalogRepositories groups the repositories the catalog reads and writes
type CatalogRepositories struct {
	Roles         port.RoleRepository
	QuestionTypes port.QuestionTypeRepository
	Questions     port.QuestionRepository
	Templates     port.TemplateRepository
	Stages        port.StageRepository
	Cases         port.CaseRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(repos CatalogRepositories, txManager port.TransactionManager, logger Logger) CatalogService {
	return &catalogServiceImpl{
		roleRepo:         repos.Roles,
		questionTypeRepo: repos.QuestionTypes,
		questionRepo:     repos.Questions,
		templateRepo:     repos.Templates,
		stageRepo:        repos.Stages,
		caseRepo:         repos.Cases,
		txManager:        txManager,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
		logger:           logger,
	}
}

func (s *catalogServiceImpl) check(def interface{}) error {
	if err := s.validate.Struct(def); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func idOrNew(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return idgen.New()
}

func (s *catalogServiceImpl) CreateRole(ctx context.Context, def RoleDefinition) (*entity.Role, error) {
	if err := s.check(def); err != nil {
		return nil, err
	}

	role := &entity.Role{ID: idOrNew(def.ID), Name: strings.TrimSpace(def.Name), Author: def.Author}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, Classify("create role", err)
	}

	s.logger.Info("Role created", "role_id", role.ID, "role_name", role.Name)
	return role, nil
}

func (s *catalogServiceImpl) ListRoles(ctx context.Context) ([]*entity.Role, error) {
	roles, err := s.roleRepo.List(ctx)
	return roles, Classify("list roles", err)
}

func (s *catalogServiceImpl) CreateQuestionType(ctx context.Context, def QuestionTypeDefinition) (*entity.QuestionType, error) {
	if err := s.check(def); err != nil {
		return nil, err
	}
	if def.HasRegex {
		if _, err := utils.MatchPrefix("", def.RegexStr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	qt := &entity.QuestionType{
		ID:         idOrNew(def.ID),
		Type:       strings.TrimSpace(def.Type),
		IsActive:   true,
		HasRegex:   def.HasRegex,
		RegexStr:   def.RegexStr,
		HasOptions: def.HasOptions,
		OptionsStr: def.OptionsStr,
		Author:     def.Author,
	}
	if err := s.questionTypeRepo.Create(ctx, qt); err != nil {
		return nil, Classify("create question type", err)
	}

	s.logger.Info("Question type created", "question_type_id", qt.ID, "type", qt.Type)
	return qt, nil
}

func (s *catalogServiceImpl) ListQuestionTypes(ctx context.Context) ([]*entity.QuestionType, error) {
	types, err := s.questionTypeRepo.List(ctx)
	return types, Classify("list question types", err)
}

func (s *catalogServiceImpl) CreateQuestion(ctx context.Context, def QuestionDefinition) (*entity.Question, error) {
	if err := s.check(def); err != nil {
		return nil, err
	}

	qt, err := s.questionTypeRepo.GetByID(ctx, def.TypeID)
	if err != nil {
		return nil, Classify("create question", err)
	}
	if qt == nil {
		return nil, notFound("question type", def.TypeID)
	}

	q := &entity.Question{
		ID:         idOrNew(def.ID),
		Text:       strings.TrimSpace(def.Text),
		Help:       def.Help,
		TypeID:     qt.ID,
		IsRequired: def.Required,
		IsActive:   true,
		Author:     def.Author,
		Type:       qt,
	}
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, Classify("create question", err)
	}

	s.logger.Info("Question created", "question_id", q.ID, "question_type_id", q.TypeID)
	return q, nil
}

// CreateTemplate validates the definition against the catalog and stores
// the template with its stages in one transaction
func (s *catalogServiceImpl) CreateTemplate(ctx context.Context, def TemplateDefinition) (*entity.WorkflowTemplate, error) {
	if err := s.check(def); err != nil {
		return nil, err
	}

	tmpl := &entity.WorkflowTemplate{
		ID:          idOrNew(def.ID),
		Title:       strings.TrimSpace(def.Title),
		Author:      def.Author,
		RoleIDs:     append([]string(nil), def.RoleIDs...),
		QuestionIDs: append([]string(nil), def.QuestionIDs...),
	}
	for _, sd := range def.Stages {
		tmpl.Stages = append(tmpl.Stages, &entity.ApprovalStage{
			ID:            idOrNew(sd.ID),
			TemplateID:    tmpl.ID,
			Name:          strings.TrimSpace(sd.Name),
			Order:         sd.Order,
			IsFirst:       sd.IsFirst,
			IsLast:        sd.IsLast,
			ApproveRoleID: sd.ApproveRoleID,
			DenyRoleID:    sd.DenyRoleID,
			Conditions:    sd.Conditions,
			Author:        def.Author,
		})
	}

	roles, err := workflow.NewRoleSequence(tmpl.RoleIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := workflow.NewStageSequence(tmpl.Stages); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := checkUnique("question", tmpl.QuestionIDs); err != nil {
		return nil, err
	}
	for _, st := range tmpl.Stages {
		for _, roleID := range []string{st.ApproveRoleID, st.DenyRoleID} {
			if roleID != "" && !roles.Contains(roleID) {
				return nil, invalidInput("stage %q references role %s outside the template", st.Name, roleID)
			}
		}
	}

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		for _, roleID := range tmpl.RoleIDs {
			role, err := s.roleRepo.GetByID(ctx, roleID)
			if err != nil {
				return err
			}
			if role == nil {
				return notFound("role", roleID)
			}
			tmpl.Roles = append(tmpl.Roles, role)
		}

		questions, err := s.questionRepo.GetByIDs(ctx, tmpl.QuestionIDs)
		if err != nil {
			return err
		}
		if missing := missingQuestion(tmpl.QuestionIDs, questions); missing != "" {
			return notFound("question", missing)
		}
		tmpl.Questions = questions

		if err := s.templateRepo.Create(ctx, tmpl); err != nil {
			return err
		}
		for _, st := range tmpl.Stages {
			if err := s.stageRepo.Create(ctx, st); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create template", "error", err, "title", tmpl.Title)
		return nil, Classify("create template", err)
	}

	s.logger.Info("Template created",
		"template_id", tmpl.ID,
		"roles", len(tmpl.RoleIDs),
		"questions", len(tmpl.QuestionIDs),
		"stages", len(tmpl.Stages),
	)
	return tmpl, nil
}

func (s *catalogServiceImpl) GetTemplate(ctx context.Context, id string) (*entity.WorkflowTemplate, error) {
	tmpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, Classify("get template", err)
	}
	if tmpl == nil {
		return nil, notFound("template", id)
	}

	for _, roleID := range tmpl.RoleIDs {
		role, err := s.roleRepo.GetByID(ctx, roleID)
		if err != nil {
			return nil, Classify("get template roles", err)
		}
		if role != nil {
			tmpl.Roles = append(tmpl.Roles, role)
		}
	}

	if tmpl.Questions, err = s.questionRepo.GetByIDs(ctx, tmpl.QuestionIDs); err != nil {
		return nil, Classify("get template questions", err)
	}
	if tmpl.Stages, err = s.stageRepo.ListByTemplate(ctx, id); err != nil {
		return nil, Classify("get template stages", err)
	}
	return tmpl, nil
}

func (s *catalogServiceImpl) ListTemplates(ctx context.Context) ([]*entity.WorkflowTemplate, error) {
	templates, err := s.templateRepo.List(ctx)
	return templates, Classify("list templates", err)
}

// DeleteTemplate refuses to remove a template that cases still run against
func (s *catalogServiceImpl) DeleteTemplate(ctx context.Context, id string) error {
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		tmpl, err := s.templateRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if tmpl == nil {
			return notFound("template", id)
		}

		inUse, err := s.caseRepo.List(ctx, port.CaseFilter{WorkflowID: id, Limit: 1})
		if err != nil {
			return err
		}
		if len(inUse) > 0 {
			return fmt.Errorf("%w: template %s has cases", ErrConflict, id)
		}
		return s.templateRepo.Delete(ctx, id)
	})
	if err != nil {
		return Classify("delete template", err)
	}

	s.logger.Info("Template deleted", "template_id", id)
	return nil
}

// TemplateSequences checks that tmpl can run cases and returns its ordered role and stage lists
func TemplateSequences(tmpl *entity.WorkflowTemplate) (*workflow.RoleSequence, *workflow.StageSequence, error) {
	if len(tmpl.QuestionIDs) == 0 {
		return nil, nil, invalidInput("template %s has no questions", tmpl.ID)
	}
	roles, err := workflow.NewRoleSequence(tmpl.RoleIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: template %s: %v", ErrInvalidInput, tmpl.ID, err)
	}
	stages, err := workflow.NewStageSequence(tmpl.Stages)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: template %s: %v", ErrInvalidInput, tmpl.ID, err)
	}
	return roles, stages, nil
}

func checkUnique(kind string, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return invalidInput("duplicate %s %s", kind, id)
		}
		seen[id] = true
	}
	return nil
}

func missingQuestion(ids []string, found []*entity.Question) string {
	have := make(map[string]bool, len(found))
	for _, q := range found {
		have[q.ID] = true
	}
	for _, id := range ids {
		if !have[id] {
			return id
		}
	}
	return ""
}
