package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/coursekit/campusctl/internal/platform"
)

func coursesCommand() *cli.Command {
	return &cli.Command{
		Name:  "courses",
		Usage: "Browse and manage courses",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List all courses",
				Action: coursesListAction,
			},
			{
				Name:      "show",
				Usage:     "Show one course",
				ArgsUsage: "<course-id>",
				Action:    coursesShowAction,
			},
			{
				Name:  "create",
				Usage: "Create a course",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "course title", Required: true},
					&cli.StringFlag{Name: "description", Usage: "course description"},
					&cli.BoolFlag{Name: "published", Usage: "publish immediately"},
				},
				Action: coursesCreateAction,
			},
			{
				Name:      "update",
				Usage:     "Update a course",
				ArgsUsage: "<course-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "course title", Required: true},
					&cli.StringFlag{Name: "description", Usage: "course description"},
					&cli.BoolFlag{Name: "published", Usage: "published state"},
				},
				Action: coursesUpdateAction,
			},
			{
				Name:      "delete",
				Usage:     "Delete a course",
				ArgsUsage: "<course-id>",
				Action:    coursesDeleteAction,
			},
		},
	}
}

func coursesListAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	courses, err := s.services.Courses.List(ctx)
	if err != nil {
		return humanize(err)
	}
	s.persist()

	for _, c := range courses {
		state := "draft"
		if c.Published {
			state = "published"
		}
		fmt.Printf("%6d  %-9s  %s\n", c.ID, state, c.Title)
	}
	return nil
}

func coursesShowAction(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "course-id")
	if err != nil {
		return err
	}
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	course, err := s.services.Courses.Get(ctx, id)
	if err != nil {
		return humanize(err)
	}
	s.persist()

	return printJSON(course)
}

func coursesCreateAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := s.client.EnsureCSRF(ctx); err != nil {
		return humanize(err)
	}

	course, err := s.services.Courses.Create(ctx, platform.CourseInput{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		Published:   cmd.Bool("published"),
	})
	if err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Printf("Created course %d: %s\n", course.ID, course.Title)
	return nil
}

func coursesUpdateAction(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "course-id")
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

	course, err := s.services.Courses.Update(ctx, id, platform.CourseInput{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		Published:   cmd.Bool("published"),
	})
	if err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Printf("Updated course %d: %s\n", course.ID, course.Title)
	return nil
}

func coursesDeleteAction(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "course-id")
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

	if err := s.services.Courses.Delete(ctx, id); err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Printf("Deleted course %d\n", id)
	return nil
}
