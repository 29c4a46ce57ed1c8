package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "data/casetracker.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "Anonymous", cfg.Workflow.AnonymousUser)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 5s
database:
  path: /tmp/cases.db
logger:
  level: debug
  format: console
workflow:
  anonymous_user: Guest
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/tmp/cases.db", cfg.Database.Path)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "Guest", cfg.Workflow.AnonymousUser)

	t.Setenv("CASETRACKER_PORT", "7070")
	t.Setenv("CASETRACKER_DB_PATH", "/var/lib/cases.db")
	t.Setenv("CASETRACKER_LOG_LEVEL", "warn")

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/var/lib/cases.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CASETRACKER_WORKFLOW_ANONYMOUS_USER=Visitor\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CASETRACKER_WORKFLOW_ANONYMOUS_USER") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Visitor", cfg.Workflow.AnonymousUser)
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logger:\n  format: xml\n"))
	assert.ErrorContains(t, err, "logger.format")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "cases.db"},
			Logger:   LoggerConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "blank db path", mutate: func(c *Config) { c.Database.Path = " " }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Logger.Format = "xml" }, wantErr: true},
		{name: "unknown level", mutate: func(c *Config) { c.Logger.Level = "trace" }, wantErr: true},
		{name: "upper case level", mutate: func(c *Config) { c.Logger.Level = "DEBUG" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ToContainerConfig(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Path: "cases.db", MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: time.Minute},
		Workflow: WorkflowConfig{AnonymousUser: "Guest"},
	}

	cc := cfg.ToContainerConfig()
	assert.Equal(t, "cases.db", cc.Database.Path)
	assert.Equal(t, 4, cc.Database.MaxOpenConns)
	assert.Equal(t, time.Minute, cc.Database.ConnMaxLifetime)
	assert.Equal(t, "Guest", cc.Workflow.AnonymousUser)
	assert.NoError(t, cc.Validate())
}
