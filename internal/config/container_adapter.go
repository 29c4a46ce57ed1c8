package config

import "github.com/garyjia/case-tracker/internal/container"

// ToContainerConfig converts the file-based configuration into the
// container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Workflow: container.WorkflowConfig{
			AnonymousUser: c.Workflow.AnonymousUser,
		},
	}
}
