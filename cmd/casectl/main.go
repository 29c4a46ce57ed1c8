package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/garyjia/case-tracker/internal/config"
	"github.com/garyjia/case-tracker/internal/container"
	"github.com/garyjia/case-tracker/pkg/utils"
)

func main() {
	cmd := &cli.Command{
		Name:                  "casectl",
		Usage:                 "Operate a case tracker database",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "configs/config.yaml",
				Sources: cli.EnvVars(config.EnvPrefix + "_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "SQLite database path (overrides the config file)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Commands: []*cli.Command{
			NewMigrateCommand(),
			NewSeedCommand(),
			NewHistoryCommand(),
			NewExportCommand(),
			NewStatsCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "casectl: %v\n", err)
		os.Exit(1)
	}
}

// openContainer loads configuration, applies command line overrides and
// starts a container. Callers must Close it.
func openContainer(ctx context.Context, command *cli.Command) (*container.Container, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return nil, err
	}
	if db := command.String("db"); db != "" {
		cfg.Database.Path = db
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      command.String("log-level"),
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		logger.Error("Failed to start container", zap.Error(err))
		return nil, err
	}
	return c, nil
}
