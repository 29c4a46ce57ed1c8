package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/garyjia/case-tracker/internal/application/service"
	"github.com/garyjia/case-tracker/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewContainer_RequiresConfig(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(&Config{}, zap.NewNop())
	assert.ErrorContains(t, err, "database path")

	_, err = NewContainer(&Config{Database: DatabaseConfig{Path: "x.db"}}, nil)
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Path: filepath.Join(t.TempDir(), "nested", "cases.db")}}
	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)

	health := c.Health()
	assert.False(t, health.Overall)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()))

	health = c.Health()
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)

	require.NotNil(t, c.Engine())
	require.NotNil(t, c.Services().Catalog)
	require.NotNil(t, c.Reports())
	for _, typ := range []event.Type{event.TypeStageChange, event.TypeStatusChange, event.TypeCompleted} {
		handlers := c.Dispatcher().ListHandlers(typ)
		require.Len(t, handlers, 1)
		assert.Equal(t, "assignee_notifier", handlers[0].Name)
	}

	roles, err := c.Services().Catalog.ListRoles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, roles)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(context.Background()))
}

func TestConvertToZapFields(t *testing.T) {
	fields := convertToZapFields("case_id", "c1", 42, "skipped", "error", assert.AnError, "dangling")
	require.Len(t, fields, 2)
	assert.Equal(t, "case_id", fields[0].Key)
	assert.Equal(t, "error", fields[1].Key)

	var _ service.Logger = &zapLoggerAdapter{logger: zap.NewNop()}
}
