package container

import (
	"database/sql"
	"fmt"

	"github.com/garyjia/case-tracker/internal/application/dispatcher"
	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/application/service"
	"github.com/garyjia/case-tracker/internal/application/workflow"
	"github.com/garyjia/case-tracker/internal/domain/event"
	"github.com/garyjia/case-tracker/internal/infrastructure/persistence/repository"
	"github.com/garyjia/case-tracker/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/case-tracker/internal/report"
	"github.com/garyjia/case-tracker/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database, applies the embedded migrations and
// wraps the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.SkipMigrations {
		if _, err := database.NewMigrator(db, logger).Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Role:         repository.NewRoleRepository(sqlDB, logger),
		QuestionType: repository.NewQuestionTypeRepository(sqlDB, logger),
		Question:     repository.NewQuestionRepository(sqlDB, logger),
		Template:     repository.NewTemplateRepository(sqlDB, logger),
		Stage:        repository.NewStageRepository(sqlDB, logger),
		Case:         repository.NewCaseRepository(sqlDB, logger),
		Answer:       repository.NewAnswerRepository(sqlDB, logger),
		Comment:      repository.NewCommentRepository(sqlDB, logger),
		Event:        repository.NewEventRepository(sqlDB, logger),
		Message:      repository.NewMessageRepository(sqlDB, logger),
	}, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos         *RepositoryBundle
	TxManager     port.TransactionManager
	AnonymousUser string
	Logger        *zap.Logger
}

// ProvideServices creates the application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	repos := deps.Repos

	catalog := service.NewCatalogService(service.CatalogRepositories{
		Roles:         repos.Role,
		QuestionTypes: repos.QuestionType,
		Questions:     repos.Question,
		Templates:     repos.Template,
		Stages:        repos.Stage,
		Cases:         repos.Case,
	}, deps.TxManager, serviceLogger)

	recorder := service.NewEventRecorder(repos.Event, serviceLogger)

	return &ServiceBundle{
		Catalog:      catalog,
		Case:         service.NewCaseService(repos.Case, repos.Answer, repos.Comment, catalog, recorder, deps.TxManager, deps.AnonymousUser, serviceLogger),
		Notification: service.NewNotificationService(repos.Message, deps.TxManager, serviceLogger),
		Collector:    service.NewAnswerCollector(repos.Answer, serviceLogger),
		Recorder:     recorder,
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}),
	), nil
}

// WorkflowDeps holds dependencies required for creating the case engine.
type WorkflowDeps struct {
	Repos         *RepositoryBundle
	Services      *ServiceBundle
	TxManager     port.TransactionManager
	Dispatcher    dispatcher.Dispatcher
	AnonymousUser string
	Logger        *zap.Logger
}

// ProvideCaseEngine creates the case engine and subscribes the notification
// handler to every case event type.
func ProvideCaseEngine(deps *WorkflowDeps) (workflow.CaseEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil || deps.Services == nil {
		return nil, fmt.Errorf("repositories and services are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	engine := workflow.NewEngine(workflow.Dependencies{
		Cases:         deps.Repos.Case,
		Catalog:       deps.Services.Catalog,
		CaseService:   deps.Services.Case,
		Collector:     deps.Services.Collector,
		Recorder:      deps.Services.Recorder,
		Notifications: deps.Services.Notification,
		TxManager:     deps.TxManager,
	},
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithAnonymousUser(deps.AnonymousUser),
		workflow.WithLogger(&zapLoggerAdapter{logger: deps.Logger}),
	)

	for _, t := range []event.Type{event.TypeStageChange, event.TypeStatusChange, event.TypeCompleted} {
		deps.Dispatcher.SubscribeNamed(t, "assignee_notifier", "stores an internal message for the assigned user",
			deps.Services.Notification.HandleCaseEvent)
	}

	return engine, nil
}

// ProvideReportWriter creates the spreadsheet exporter.
func ProvideReportWriter(logger *zap.Logger) port.ReportWriter {
	return report.NewXLSXWriter(logger)
}
