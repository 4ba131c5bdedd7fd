package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/coursekit/campusctl/internal/platform"
)

func modulesCommand() *cli.Command {
	return &cli.Command{
		Name:  "modules",
		Usage: "Browse and manage course modules",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the modules of a course",
				ArgsUsage: "<course-id>",
				Action:    modulesListAction,
			},
			{
				Name:      "create",
				Usage:     "Add a module to a course",
				ArgsUsage: "<course-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "module title", Required: true},
					&cli.IntFlag{Name: "position", Usage: "position within the course"},
				},
				Action: modulesCreateAction,
			},
			{
				Name:      "reorder",
				Usage:     "Reorder the modules of a course",
				ArgsUsage: "<course-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "order",
						Usage:    "comma-separated module IDs in the new order",
						Required: true,
					},
				},
				Action: modulesReorderAction,
			},
		},
	}
}

func modulesListAction(ctx context.Context, cmd *cli.Command) error {
	courseID, err := idArg(cmd, "course-id")
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	modules, err := s.services.Modules.List(ctx, courseID)
	if err != nil {
		return humanize(err)
	}
	s.persist()

	for _, m := range modules {
		fmt.Printf("%6d  #%-3d  %s\n", m.ID, m.Position, m.Title)
	}
	return nil
}

func modulesCreateAction(ctx context.Context, cmd *cli.Command) error {
	courseID, err := idArg(cmd, "course-id")
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := s.client.EnsureCSRF(ctx); err != nil {
		return humanize(err)
	}

	module, err := s.services.Modules.Create(ctx, courseID, platform.ModuleInput{
		Title:    cmd.String("title"),
		Position: int(cmd.Int("position")),
	})
	if err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Printf("Created module %d: %s\n", module.ID, module.Title)
	return nil
}

func modulesReorderAction(ctx context.Context, cmd *cli.Command) error {
	courseID, err := idArg(cmd, "course-id")
	if err != nil {
		return err
	}

	var moduleIDs []int64
	for _, part := range strings.Split(cmd.String("order"), ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid module ID %q in --order", part)
		}
		moduleIDs = append(moduleIDs, id)
	}

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := s.client.EnsureCSRF(ctx); err != nil {
		return humanize(err)
	}

	if err := s.services.Modules.Reorder(ctx, courseID, moduleIDs); err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Printf("Reordered %d modules in course %d\n", len(moduleIDs), courseID)
	return nil
}
