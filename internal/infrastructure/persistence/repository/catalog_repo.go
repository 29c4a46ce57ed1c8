package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garyjia/case-tracker/internal/application/port"
	"github.com/garyjia/case-tracker/internal/domain/entity"
	"go.uber.org/zap"
)

// RoleRepository implements port.RoleRepository
type RoleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *sql.DB, logger *zap.Logger) port.RoleRepository {
	return &RoleRepository{db: db, logger: logger}
}

func (r *RoleRepository) Create(ctx context.Context, role *entity.Role) error {
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now()
	}
	_, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO roles (role_id, role_name, author, created_on) VALUES (?, ?, ?, ?)`,
		role.ID, role.Name, role.Author, role.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create role", zap.String("role_id", role.ID), zap.Error(err))
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

func (r *RoleRepository) GetByID(ctx context.Context, id string) (*entity.Role, error) {
	var role entity.Role
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT role_id, role_name, author, created_on FROM roles WHERE role_id = ?`, id,
	).Scan(&role.ID, &role.Name, &role.Author, &role.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get role", zap.String("role_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*entity.Role, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT role_id, role_name, author, created_on FROM roles ORDER BY role_name`)
	if err != nil {
		r.logger.Error("Failed to list roles", zap.Error(err))
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []*entity.Role
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Author, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, &role)
	}
	return roles, rows.Err()
}

// QuestionTypeRepository implements port.QuestionTypeRepository
type QuestionTypeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuestionTypeRepository creates a new question type repository
func NewQuestionTypeRepository(db *sql.DB, logger *zap.Logger) port.QuestionTypeRepository {
	return &QuestionTypeRepository{db: db, logger: logger}
}

const questionTypeColumns = `question_type_id, type, is_active, has_regex, regex_str,
	has_options, options_str, author, created_on`

func scanQuestionType(s scanner) (*entity.QuestionType, error) {
	var qt entity.QuestionType
	err := s.Scan(&qt.ID, &qt.Type, &qt.IsActive, &qt.HasRegex, &qt.RegexStr,
		&qt.HasOptions, &qt.OptionsStr, &qt.Author, &qt.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &qt, nil
}

func (r *QuestionTypeRepository) Create(ctx context.Context, qt *entity.QuestionType) error {
	if qt.CreatedAt.IsZero() {
		qt.CreatedAt = now()
	}
	_, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO question_types (`+questionTypeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		qt.ID, qt.Type, qt.IsActive, qt.HasRegex, qt.RegexStr,
		qt.HasOptions, qt.OptionsStr, qt.Author, qt.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create question type", zap.String("type", qt.Type), zap.Error(err))
		return fmt.Errorf("failed to create question type: %w", err)
	}
	return nil
}

func (r *QuestionTypeRepository) GetByID(ctx context.Context, id string) (*entity.QuestionType, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+questionTypeColumns+` FROM question_types WHERE question_type_id = ?`, id)
	qt, err := scanQuestionType(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get question type", zap.String("question_type_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get question type: %w", err)
	}
	return qt, nil
}

func (r *QuestionTypeRepository) List(ctx context.Context) ([]*entity.QuestionType, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT `+questionTypeColumns+` FROM question_types ORDER BY type`)
	if err != nil {
		r.logger.Error("Failed to list question types", zap.Error(err))
		return nil, fmt.Errorf("failed to list question types: %w", err)
	}
	defer rows.Close()

	var types []*entity.QuestionType
	for rows.Next() {
		qt, err := scanQuestionType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question type: %w", err)
		}
		types = append(types, qt)
	}
	return types, rows.Err()
}

// QuestionRepository implements port.QuestionRepository
type QuestionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *sql.DB, logger *zap.Logger) port.QuestionRepository {
	return &QuestionRepository{db: db, logger: logger}
}

const questionSelect = `
	SELECT q.question_id, q.question_text, q.question_help, q.question_type_id,
		q.is_required, q.is_active, q.author, q.created_on,
		t.question_type_id, t.type, t.is_active, t.has_regex, t.regex_str,
		t.has_options, t.options_str, t.author, t.created_on
	FROM questions q
	JOIN question_types t ON t.question_type_id = q.question_type_id`

func scanQuestion(s scanner) (*entity.Question, error) {
	var q entity.Question
	var qt entity.QuestionType
	err := s.Scan(&q.ID, &q.Text, &q.Help, &q.TypeID,
		&q.IsRequired, &q.IsActive, &q.Author, &q.CreatedAt,
		&qt.ID, &qt.Type, &qt.IsActive, &qt.HasRegex, &qt.RegexStr,
		&qt.HasOptions, &qt.OptionsStr, &qt.Author, &qt.CreatedAt)
	if err != nil {
		return nil, err
	}
	q.Type = &qt
	return &q, nil
}

func (r *QuestionRepository) Create(ctx context.Context, q *entity.Question) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now()
	}
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `
		INSERT INTO questions (
			question_id, question_text, question_help, question_type_id,
			is_required, is_active, author, created_on
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Text, q.Help, q.TypeID, q.IsRequired, q.IsActive, q.Author, q.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create question", zap.String("question_id", q.ID), zap.Error(err))
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*entity.Question, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx, questionSelect+` WHERE q.question_id = ?`, id)
	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get question", zap.String("question_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// GetByIDs returns the questions found, in the order of ids. Unknown ids are skipped.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		questionSelect+` WHERE q.question_id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		r.logger.Error("Failed to get questions", zap.Strings("question_ids", ids), zap.Error(err))
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*entity.Question, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]*entity.Question, 0, len(byID))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

var (
	_ port.RoleRepository         = (*RoleRepository)(nil)
	_ port.QuestionTypeRepository = (*QuestionTypeRepository)(nil)
	_ port.QuestionRepository     = (*QuestionRepository)(nil)
)
