package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const (
	loginPath   = "/auth/login/"
	logoutPath  = "/auth/logout/"
	refreshPath = "/auth/refresh/"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login establishes a session. It runs on the public client: a 401 here
// means bad credentials, not an expired session, and must never enter the
// refresh path. The CSRF cookie is bootstrapped first since login is an
// unsafe request.
func (c *Client) Login(ctx context.Context, email, password string) error {
	if err := c.csrf.Ensure(ctx); err != nil {
		return err
	}
	return c.do(ctx, c.public, http.MethodPost, loginPath, loginRequest{Email: email, Password: password}, nil)
}

// Logout tears down the session server-side. The jar keeps whatever
// cookies the service chooses to clear or expire in its response.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, c.public, http.MethodPost, logoutPath, struct{}{}, nil)
}

// refreshSession performs the single refresh call for the coordinator and,
// on success, re-bootstraps the CSRF token as a coupled step: a renewed
// session may correspond to a new CSRF pairing, so the old token is always
// discarded.
//
// It goes through the public client, which attaches CSRF but cannot recurse
// into the refresh path.
func (c *Client) refreshSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath(refreshPath).String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("building refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.public.Do(req)
	if err != nil {
		return fmt.Errorf("refresh request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}

	// Bootstrap never raises on network failure; a stale token surfaces as
	// a downstream 403.
	return c.csrf.Bootstrap(ctx)
}
