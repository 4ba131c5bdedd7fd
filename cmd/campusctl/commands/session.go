package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/coursekit/campusctl/internal/api"
	"github.com/coursekit/campusctl/internal/config"
	"github.com/coursekit/campusctl/internal/cookiestore"
	"github.com/coursekit/campusctl/internal/observability"
	"github.com/coursekit/campusctl/internal/platform"
)

// session bundles everything a command action needs: configuration, the
// shared API client, the resource services, and the cookie store the
// client's jar is restored from and saved back to.
type session struct {
	cfg      *config.Config
	client   *api.Client
	services *platform.Services
	store    *cookiestore.Store
}

// newSession instruments logging and builds the client stack from config.
// Restoring cookies is best-effort: a broken keyring degrades to an
// unauthenticated run, not a hard failure.
func newSession(cmd *cli.Command) (*session, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override the config file for log settings.
	levelName, format := cfg.Log.Level, cfg.Log.Format
	if cmd.IsSet("log-level") {
		levelName = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		format = cmd.String("log-format")
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if err := observability.Instrument(level, format); err != nil {
		return nil, fmt.Errorf("failed to set up observability layer: %w", err)
	}

	client, err := api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithRefreshTimeout(cfg.API.RefreshTimeout),
		api.WithCSRFCookieName(cfg.API.CSRFCookie),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	s := &session{
		cfg:      cfg,
		client:   client,
		services: platform.New(client),
	}

	if cfg.Cookies.Storage == "keyring" {
		s.store = cookiestore.New(cfg.Cookies.Service)
		if err := s.store.Restore(client.Jar(), client.BaseURL()); err != nil {
			slog.Warn("could not restore saved cookies", "error", err)
		}
	}

	return s, nil
}

// persist saves the jar back to the cookie store so the session survives
// this invocation.
func (s *session) persist() {
	if s.store == nil {
		return
	}
	if err := s.store.Save(s.client.Jar(), s.client.BaseURL()); err != nil {
		slog.Warn("could not save cookies", "error", err)
	}
}

// humanize maps client-layer errors to the messages shown to the user. The
// expired-session case is re-raised distinctly so users know to log in
// again instead of puzzling over a 401.
func humanize(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, api.ErrSessionExpired) {
		return cli.Exit("session expired: run 'campusctl auth login' to sign in again", 1)
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return cli.Exit(apiErr.Message, 1)
	}
	if errors.Is(err, context.Canceled) {
		return cli.Exit("interrupted", 130)
	}
	return err
}

// idArg parses the first positional argument as a numeric resource ID.
func idArg(cmd *cli.Command, name string) (int64, error) {
	raw := cmd.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("missing required argument <%s>", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("argument <%s> must be numeric, got %q", name, raw)
	}
	return id, nil
}

// printJSON renders a value as indented JSON on stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
