package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/coursekit/campusctl/internal/platform"
)

func lessonsCommand() *cli.Command {
	return &cli.Command{
		Name:  "lessons",
		Usage: "Browse and manage lessons",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the lessons of a module",
				ArgsUsage: "<module-id>",
				Action:    lessonsListAction,
			},
			{
				Name:      "show",
				Usage:     "Show one lesson",
				ArgsUsage: "<lesson-id>",
				Action:    lessonsShowAction,
			},
			{
				Name:      "create",
				Usage:     "Add a lesson to a module",
				ArgsUsage: "<module-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "lesson title", Required: true},
					&cli.StringFlag{Name: "body", Usage: "lesson body (markdown)"},
					&cli.IntFlag{Name: "minutes", Usage: "estimated duration in minutes"},
				},
				Action: lessonsCreateAction,
			},
			{
				Name:      "delete",
				Usage:     "Delete a lesson",
				ArgsUsage: "<lesson-id>",
				Action:    lessonsDeleteAction,
			},
		},
	}
}

func lessonsListAction(ctx context.Context, cmd *cli.Command) error {
	moduleID, err := idArg(cmd, "module-id")
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	lessons, err := s.services.Lessons.List(ctx, moduleID)
	if err != nil {
		return humanize(err)
	}
	s.persist()

	for _, l := range lessons {
		fmt.Printf("%6d  %3dmin  %s\n", l.ID, l.Minutes, l.Title)
	}
	return nil
}

func lessonsShowAction(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "lesson-id")
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	lesson, err := s.services.Lessons.Get(ctx, id)
	if err != nil {
		return humanize(err)
	}
	s.persist()

	return printJSON(lesson)
}

func lessonsCreateAction(ctx context.Context, cmd *cli.Command) error {
	moduleID, err := idArg(cmd, "module-id")
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

	lesson, err := s.services.Lessons.Create(ctx, moduleID, platform.LessonInput{
		Title:   cmd.String("title"),
		Body:    cmd.String("body"),
		Minutes: int(cmd.Int("minutes")),
	})
	if err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Printf("Created lesson %d: %s\n", lesson.ID, lesson.Title)
	return nil
}

func lessonsDeleteAction(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "lesson-id")
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

	if err := s.services.Lessons.Delete(ctx, id); err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Printf("Deleted lesson %d\n", id)
	return nil
}
