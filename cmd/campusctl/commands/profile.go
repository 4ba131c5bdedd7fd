package commands

import (
	"context"
	"fmt"

	"github.com/oapi-codegen/runtime/types"
	"github.com/urfave/cli/v3"

	"github.com/coursekit/campusctl/internal/platform"
)

func profileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "View and update your account",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show your profile",
				Action: profileShowAction,
			},
			{
				Name:  "update",
				Usage: "Update your profile",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "account email", Required: true},
					&cli.StringFlag{Name: "name", Usage: "full name", Required: true},
				},
				Action: profileUpdateAction,
			},
		},
	}
}

func profileShowAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	profile, err := s.services.Profile.Get(ctx)
	if err != nil {
		return humanize(err)
	}
	s.persist()

	return printJSON(profile)
}

func profileUpdateAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	if err := s.client.EnsureCSRF(ctx); err != nil {
		return humanize(err)
	}

	profile, err := s.services.Profile.Update(ctx, platform.ProfileInput{
		Email:    types.Email(cmd.String("email")),
		FullName: cmd.String("name"),
	})
	if err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Printf("Updated profile for %s\n", profile.Email)
	return nil
}
