package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// authCommand returns the 'auth' subcommand for session management.
func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the platform session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and save the session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "account email (prompted when omitted)",
					},
				},
				Action: authLoginAction,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and clear the saved session",
				Action: authLogoutAction,
			},
		},
	}
}

func authLoginAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	email := cmd.String("email")
	if email == "" {
		fmt.Print("Email: ")
		if _, err := fmt.Scanln(&email); err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
	}

	password, err := readSecureInput(ctx, "Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if err := s.client.Login(ctx, email, password); err != nil {
		return humanize(err)
	}
	s.persist()

	fmt.Println("Signed in. Session saved.")
	return nil
}

func authLogoutAction(ctx context.Context, cmd *cli.Command) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	// Server-side teardown is best-effort; the saved cookies are cleared
	// regardless so the local state never outlives the intent to log out.
	if err := s.client.Logout(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: server logout failed: %v\n", err)
	}
	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			return err
		}
	}

	fmt.Println("Signed out.")
	return nil
}

// readSecureInput reads user input with hidden display and context cancellation support.
// Goroutine+select pattern required because term.ReadPassword has no native context support.
func readSecureInput(ctx context.Context, prompt string) (string, error) {
	fmt.Print(prompt)
	defer fmt.Println()

	type result struct {
		value string
		err   error
	}
	resultCh := make(chan result, 1)

	go func() {
		inputBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		resultCh <- result{value: string(inputBytes), err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-resultCh:
		if res.err != nil {
			return "", fmt.Errorf("failed to read input: %w", res.err)
		}
		return res.value, nil
	}
}
