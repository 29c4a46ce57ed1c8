package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/case-tracker/internal/application/dispatcher"
	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/application/service"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"github.com/garyjia/case-tracker/internal/domain/event"
	domainwf "github.com/garyjia/case-tracker/internal/domain/workflow"
	"github.com/garyjia/case-tracker/pkg/utils"
)

// engineImpl is the concrete implementation of CaseEngine
type engineImpl struct {
	caseRepo      port.CaseRepository
	catalog       service.CatalogService
	cases         service.CaseService
	collector     *service.AnswerCollector
	recorder      *service.EventRecorder
	notifications service.NotificationService
	txManager     port.TransactionManager
	dispatcher    dispatcher.Dispatcher
	anonymousUser string
	logger        service.Logger
}

// EngineOption configures the case engine
type EngineOption func(*engineImpl)

// WithDispatcher publishes committed events to d
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithAnonymousUser sets the name recorded for actions without a username
func WithAnonymousUser(name string) EngineOption {
	return func(e *engineImpl) {
		if name != "" {
			e.anonymousUser = name
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(logger service.Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// Dependencies are the collaborators every engine needs
type Dependencies struct {
	Cases         port.CaseRepository
	Catalog       service.CatalogService
	CaseService   service.CaseService
	Collector     *service.AnswerCollector
	Recorder      *service.EventRecorder
	Notifications service.NotificationService
	TxManager     port.TransactionManager
}

// NewEngine creates a new case engine
func NewEngine(deps Dependencies, opts ...EngineOption) CaseEngine {
	e := &engineImpl{
		caseRepo:      deps.Cases,
		catalog:       deps.Catalog,
		cases:         deps.CaseService,
		collector:     deps.Collector,
		recorder:      deps.Recorder,
		notifications: deps.Notifications,
		txManager:     deps.TxManager,
		anonymousUser: service.DefaultAnonymousUser,
		logger:        service.NopLogger{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *engineImpl) SubmitStep(ctx context.Context, req SubmitRequest) (*service.CaseView, error) {
	var (
		kase     *entity.Case
		tmpl     *entity.WorkflowTemplate
		events   []*event.Event
		warnings []service.Warning
	)

	err := e.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if tmpl, err = e.catalog.GetTemplate(ctx, req.TemplateID); err != nil {
			return err
		}
		roles, stages, err := service.TemplateSequences(tmpl)
		if err != nil {
			return err
		}

		if kase, _, err = e.cases.ResolveOrCreateCase(ctx, req.TemplateID, req.CaseID, req.UserID, req.Actor); err != nil {
			return err
		}

		machine, err := domainwf.NewCaseMachine(kase.Status)
		if err != nil {
			return err
		}
		if machine.State().IsTerminal() {
			return fmt.Errorf("%w: case %s is %s", domainwf.ErrInvalidTransition, kase.ID, kase.Status)
		}

		roleID := req.RoleID
		if roleID == "" {
			roleID = kase.CurrentRoleID
		}
		nextRole, err := roles.After(roleID)
		if err != nil {
			return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
		}

		current, err := e.resolveStage(ctx, kase, stages)
		if err != nil {
			return err
		}

		if err := e.collector.Collect(ctx, kase, tmpl, req.Fields); err != nil {
			return err
		}

		previous := kase.Status
		var evt *event.Event
		switch next, hasNext := stages.Next(current); {
		case current.IsLast:
			if err := machine.Fire(ctx, domainwf.TriggerComplete); err != nil {
				return err
			}
			evt, err = e.recorder.Record(ctx, kase.ID, event.TypeStatusChange, previous, machine.State().String())
		case hasNext:
			if err := machine.Fire(ctx, domainwf.TriggerAdvance); err != nil {
				return err
			}
			kase.CurrentStageID = next.ID
			evt, err = e.recorder.Record(ctx, kase.ID, event.TypeStageChange, current.Name, next.Name)
		default:
			if err := machine.Fire(ctx, domainwf.TriggerComplete); err != nil {
				return err
			}
			evt, err = e.recorder.Record(ctx, kase.ID, event.TypeCompleted, current.Name, entity.NoStage)
			warnings = append(warnings, service.Warning{
				Code:    service.WarningMisconfiguredTemplate,
				Message: fmt.Sprintf("stage %q has no successor and is not flagged last; case completed", current.Name),
			})
		}
		if err != nil {
			return err
		}
		events = append(events, evt)

		kase.Status = machine.State().String()
		kase.CurrentRoleID = nextRole

		if !utils.IsBlank(req.Comment) {
			if _, err := e.cases.AddComment(ctx, kase.ID, "", req.Comment, req.Actor); err != nil {
				return err
			}
		}

		kase.ModifiedBy = req.Actor.DisplayName(e.anonymousUser)
		return e.caseRepo.Update(ctx, kase)
	})
	if err != nil {
		if _, ok := service.AsValidationErrors(err); !ok {
			e.logger.Error("Submit step failed", "error", err, "template_id", req.TemplateID, "case_id", req.CaseID)
		}
		return nil, service.Classify("submit step", err)
	}

	e.logger.Info("Case advanced",
		"case_id", kase.ID,
		"status", kase.Status,
		"stage_id", kase.CurrentStageID,
		"role_id", kase.CurrentRoleID,
	)
	for _, w := range warnings {
		e.logger.Error("Template misconfigured", "template_id", tmpl.ID, "case_id", kase.ID, "detail", w.Message)
	}

	e.publish(ctx, kase, tmpl.Title, events)
	return e.view(ctx, kase.ID, warnings)
}

// resolveStage returns the case's current stage. A case without a usable
// stage pointer is moved to the first stage and stored before continuing.
func (e *engineImpl) resolveStage(ctx context.Context, kase *entity.Case, stages *domainwf.StageSequence) (*entity.ApprovalStage, error) {
	if kase.CurrentStageID != "" {
		if st, err := stages.ByID(kase.CurrentStageID); err == nil {
			return st, nil
		}
	}

	first := stages.First()
	e.logger.Info("Resolving missing stage pointer", "case_id", kase.ID, "stage_id", first.ID)
	kase.CurrentStageID = first.ID
	if err := e.caseRepo.Update(ctx, kase); err != nil {
		return nil, err
	}
	return first, nil
}

func (e *engineImpl) Deny(ctx context.Context, caseID string, actor entity.Actor) (*service.CaseView, error) {
	var (
		kase *entity.Case
		tmpl *entity.WorkflowTemplate
		evt  *event.Event
	)

	err := e.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if kase, err = e.loadCase(ctx, caseID); err != nil {
			return err
		}
		if tmpl, err = e.catalog.GetTemplate(ctx, kase.WorkflowID); err != nil {
			return err
		}
		_, stages, err := service.TemplateSequences(tmpl)
		if err != nil {
			return err
		}

		oldName := entity.NoStage
		if st, err := stages.ByID(kase.CurrentStageID); err == nil {
			oldName = st.Name
		}
		first := stages.First()

		kase.CurrentStageID = first.ID
		kase.ModifiedBy = actor.DisplayName(e.anonymousUser)
		if err := e.caseRepo.Update(ctx, kase); err != nil {
			return err
		}

		evt, err = e.recorder.Record(ctx, kase.ID, event.TypeStageChange, oldName, first.Name)
		return err
	})
	if err != nil {
		e.logger.Error("Deny failed", "error", err, "case_id", caseID)
		return nil, service.Classify("deny", err)
	}

	e.logger.Info("Case denied", "case_id", caseID, "stage_id", kase.CurrentStageID)
	e.publish(ctx, kase, tmpl.Title, []*event.Event{evt})
	return e.view(ctx, caseID, nil)
}

func (e *engineImpl) Reassign(ctx context.Context, caseID, newUserID string, actor entity.Actor) (*service.CaseView, error) {
	newUserID = strings.TrimSpace(newUserID)
	if newUserID == "" {
		return nil, fmt.Errorf("%w: user id is required", service.ErrInvalidInput)
	}

	var kase *entity.Case
	var previous string
	err := e.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if kase, err = e.loadCase(ctx, caseID); err != nil {
			return err
		}
		previous = kase.AssignedUserID
		kase.AssignedUserID = newUserID
		kase.ModifiedBy = actor.DisplayName(e.anonymousUser)
		return e.caseRepo.Update(ctx, kase)
	})
	if err != nil {
		e.logger.Error("Reassign failed", "error", err, "case_id", caseID)
		return nil, service.Classify("reassign", err)
	}

	e.logger.Info("Case reassigned", "case_id", caseID, "from", previous, "to", newUserID)

	if previous != newUserID && e.notifications != nil {
		subject := fmt.Sprintf("Case %s was assigned to you", kase.CaseNumber)
		content := fmt.Sprintf("%s assigned case %s to you.", actor.DisplayName(e.anonymousUser), kase.CaseNumber)
		if _, err := e.notifications.Notify(ctx, newUserID, subject, content, kase.ID); err != nil {
			e.logger.Error("Failed to notify new assignee", "error", err, "case_id", caseID, "user_id", newUserID)
		}
	}
	return e.view(ctx, caseID, nil)
}

func (e *engineImpl) Abandon(ctx context.Context, caseID string, actor entity.Actor) (*service.CaseView, error) {
	var (
		kase *entity.Case
		tmpl *entity.WorkflowTemplate
		evt  *event.Event
	)

	err := e.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if kase, err = e.loadCase(ctx, caseID); err != nil {
			return err
		}
		if tmpl, err = e.catalog.GetTemplate(ctx, kase.WorkflowID); err != nil {
			return err
		}

		machine, err := domainwf.NewCaseMachine(kase.Status)
		if err != nil {
			return err
		}
		if err := machine.Fire(ctx, domainwf.TriggerAbandon); err != nil {
			return err
		}

		previous := kase.Status
		kase.Status = machine.State().String()
		kase.ModifiedBy = actor.DisplayName(e.anonymousUser)
		if err := e.caseRepo.Update(ctx, kase); err != nil {
			return err
		}

		evt, err = e.recorder.Record(ctx, kase.ID, event.TypeStatusChange, previous, kase.Status)
		return err
	})
	if err != nil {
		e.logger.Error("Abandon failed", "error", err, "case_id", caseID)
		return nil, service.Classify("abandon", err)
	}

	e.logger.Info("Case abandoned", "case_id", caseID)
	e.publish(ctx, kase, tmpl.Title, []*event.Event{evt})
	return e.view(ctx, caseID, nil)
}

func (e *engineImpl) loadCase(ctx context.Context, id string) (*entity.Case, error) {
	kase, err := e.caseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if kase == nil {
		return nil, &service.NotFoundError{Kind: "case", ID: id}
	}
	return kase, nil
}

// publish hands committed events to the dispatcher. Handler failures are
// logged and never undo the transition.
func (e *engineImpl) publish(ctx context.Context, kase *entity.Case, title string, events []*event.Event) {
	if e.dispatcher == nil || len(events) == 0 {
		return
	}

	enriched := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		enriched = append(enriched, evt.
			WithPayload(event.PayloadCaseNumber, kase.CaseNumber).
			WithPayload(event.PayloadAssignedUserID, kase.AssignedUserID).
			WithPayload(event.PayloadTemplateTitle, title).
			WithPayload(event.PayloadActor, kase.ModifiedBy))
	}

	if err := e.dispatcher.Dispatch(ctx, enriched...); err != nil {
		e.logger.Error("Event delivery failed", "error", err, "case_id", kase.ID)
	}
}

func (e *engineImpl) view(ctx context.Context, caseID string, warnings []service.Warning) (*service.CaseView, error) {
	view, err := e.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	view.Warnings = warnings
	return view, nil
}
