// Package commands implements the campusctl CLI.
package commands

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version string) error {
	cmd := &cli.Command{
		Name:    "campusctl",
		Usage:   "Terminal frontend for the course platform",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: "text",
			},
		},
		Commands: []*cli.Command{
			authCommand(),
			coursesCommand(),
			modulesCommand(),
			lessonsCommand(),
			enrollmentsCommand(),
			profileCommand(),
			dashboardCommand(),
		},
	}

	return cmd.Run(ctx, args)
}
