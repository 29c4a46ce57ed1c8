package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/garyjia/case-tracker/internal/infrastructure/persistence/sqlite"
)

// getExecutor returns the transaction carried by ctx or the plain database
func getExecutor(ctx context.Context, db *sql.DB) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, db)
}

// nullIfEmpty stores "" as NULL for nullable foreign keys
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func now() time.Time {
	return time.Now().UTC()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

type scanner interface {
	Scan(dest ...interface{}) error
}
