package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/garyjia/case-tracker/internal/application/port"
)

func NewMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or upgrade the database schema",
		Action: func(ctx context.Context, command *cli.Command) error {
			c, err := openContainer(ctx, command)
			if err != nil {
				return err
			}
			defer c.Close()

			version, err := c.Database().SchemaVersion()
			if err != nil {
				return fmt.Errorf("failed to read schema version: %w", err)
			}
			fmt.Printf("Database schema is at version %d\n", version)
			return nil
		},
	}
}

func NewSeedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Load roles, question types, questions and templates from a YAML file",
		ArgsUsage: "<file.yaml>",
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 1 {
				return cli.Exit("seed expects exactly one file argument", 2)
			}

			seed, err := LoadSeedFile(command.Args().First())
			if err != nil {
				return err
			}

			c, err := openContainer(ctx, command)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := seed.Apply(ctx, c.Services().Catalog, c.Repositories())
			if err != nil {
				return err
			}
			fmt.Println(result)
			return nil
		},
	}
}

func NewHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "Print the event history of a case",
		ArgsUsage: "<case-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print events as JSON",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() != 1 {
				return cli.Exit("history expects exactly one case id", 2)
			}

			c, err := openContainer(ctx, command)
			if err != nil {
				return err
			}
			defer c.Close()

			events, err := c.Services().Case.History(ctx, command.Args().First())
			if err != nil {
				return err
			}

			if command.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tEVENT\tFROM\tTO")
			for _, evt := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					evt.CreatedAt.UTC().Format(time.RFC3339), evt.Type, evt.OldValue, evt.NewValue)
			}
			return w.Flush()
		},
	}
}

func NewExportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write cases and their history to an XLSX workbook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output file",
				Value:   "cases.xlsx",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Only cases assigned to this user",
			},
			&cli.StringFlag{
				Name:  "template",
				Usage: "Only cases of this template",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only cases in this status",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			c, err := openContainer(ctx, command)
			if err != nil {
				return err
			}
			defer c.Close()

			histories, err := c.Services().Case.ExportHistory(ctx, port.CaseFilter{
				AssignedUserID: command.String("user"),
				WorkflowID:     command.String("template"),
				Status:         command.String("status"),
			})
			if err != nil {
				return err
			}

			out := command.String("out")
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := c.Reports().WriteCases(ctx, f, histories); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}

			fmt.Printf("Exported %d cases to %s\n", len(histories), out)
			return nil
		},
	}
}

func NewStatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Count cases per status",
		Action: func(ctx context.Context, command *cli.Command) error {
			c, err := openContainer(ctx, command)
			if err != nil {
				return err
			}
			defer c.Close()

			stats, err := c.Services().Case.Stats(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "active\t%d\n", stats.Active)
			fmt.Fprintf(w, "pending\t%d\n", stats.Pending)
			fmt.Fprintf(w, "completed\t%d\n", stats.Completed)
			fmt.Fprintf(w, "abandoned\t%d\n", stats.Abandoned)
			fmt.Fprintf(w, "total\t%d\n", stats.Total)
			return w.Flush()
		},
	}
}
