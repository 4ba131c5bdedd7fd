package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func enrollmentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "enrollments",
		Usage: "Manage your course enrollments",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your enrollments",
				Action: enrollmentsListAction,
			},
			{
				Name:      "enroll",
				Usage:     "Enroll in a course",
				ArgsUsage: "<course-id>",
				Action:    enrollmentsEnrollAction,
			},
			{
				Name:      "withdraw",
				Usage:     "Withdraw from a course",
				ArgsUsage: "<enrollment-id>",
				Action:    enrollmentsWithdrawAction,
			},
		},
	}
}

func enrollmentsListAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	enrollments, err := s.services.Enrollments.List(ctx)
	if err != nil {
		return humanize(err)
	}
	s.persist()

	for _, e := range enrollments {
		fmt.Printf("%6d  %-10s  %3d%%  %s\n", e.ID, e.Status, e.Progress, e.CourseRef.Title)
	}
	return nil
}

func enrollmentsEnrollAction(ctx context.Context, cmd *cli.Command) error {
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

	enrollment, err := s.services.Enrollments.Enroll(ctx, courseID)
	if err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Printf("Enrolled in course %d (enrollment %d)\n", courseID, enrollment.ID)
	return nil
}

func enrollmentsWithdrawAction(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "enrollment-id")
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

	if err := s.services.Enrollments.Withdraw(ctx, id); err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Printf("Withdrawn (enrollment %d)\n", id)
	return nil
}
