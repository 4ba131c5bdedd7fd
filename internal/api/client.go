package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

// defaultTimeout bounds every request so a hung call cannot pin a caller
// (or the refresh coordinator) forever.
const defaultTimeout = 30 * time.Second

// Client talks to the course platform REST service. It owns the cookie jar
// (the session store), the CSRF manager, and the refresh coordinator, and
// exposes an authenticated and a public request path over them.
type Client struct {
	base *url.URL
	jar  http.CookieJar
	csrf *CSRFManager

	// coord is the only shared mutable refresh state; it lives for the
	// client's lifetime and is reachable solely through the transport chain.
	coord *refreshCoordinator

	authed *http.Client
	public *http.Client
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	transport      http.RoundTripper
	timeout        time.Duration
	refreshTimeout time.Duration
	csrfCookie     string
}

// WithTransport sets the base transport for all requests (e.g. for proxies
// or tests).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRefreshTimeout bounds the session refresh call.
func WithRefreshTimeout(d time.Duration) Option {
	return func(o *options) { o.refreshTimeout = d }
}

// WithCSRFCookieName overrides the cookie the CSRF token is read from.
func WithCSRFCookieName(name string) Option {
	return func(o *options) { o.csrfCookie = name }
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	o := options{
		transport:  http.DefaultTransport,
		timeout:    defaultTimeout,
		csrfCookie: DefaultCSRFCookie,
	}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		base: base,
		jar:  jar,
	}

	decorated := &decorateTransport{next: o.transport}

	// The CSRF manager fetches through the bare decorated chain: its own
	// bootstrap call must neither attach a token nor enter the refresh path.
	c.csrf = newCSRFManager(base, jar, o.csrfCookie, &http.Client{
		Transport: decorated,
		Jar:       jar,
		Timeout:   o.timeout,
	})

	withCSRF := &csrfTransport{csrf: c.csrf, next: decorated}

	c.coord = newRefreshCoordinator(c.refreshSession, o.refreshTimeout)

	c.public = &http.Client{
		Transport: withCSRF,
		Jar:       jar,
		Timeout:   o.timeout,
	}
	c.authed = &http.Client{
		// Refresh-and-retry outermost so replays re-enter the CSRF attach
		// with the freshly bootstrapped token.
		Transport: &authTransport{coord: c.coord, next: withCSRF},
		Jar:       jar,
		Timeout:   o.timeout,
	}

	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() *url.URL {
	return c.base
}

// Jar exposes the cookie jar, the client's session store. Used to persist
// and restore cookies between invocations.
func (c *Client) Jar() http.CookieJar {
	return c.jar
}

// EnsureCSRF guarantees a CSRF cookie exists, bootstrapping it from the
// service when absent. Idempotent; no network call when the cookie is
// already present.
func (c *Client) EnsureCSRF(ctx context.Context) error {
	return c.csrf.Ensure(ctx)
}

// Get issues an authenticated GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, c.authed, http.MethodGet, path, nil, out)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, c.authed, http.MethodPost, path, in, out)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, c.authed, http.MethodPut, path, in, out)
}

// Patch issues an authenticated PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, c.authed, http.MethodPatch, path, in, out)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, c.authed, http.MethodDelete, path, nil, nil)
}

// do builds, sends, and decodes one JSON request. All error classification
// happens here: callers see nil, *APIError, ErrSessionExpired, or a wrapped
// transport error, never raw transport details.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
		// bytes.Reader gives the request a GetBody, which the auth
		// transport needs for the one-time replay.
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			return ErrSessionExpired
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("request failed: %s %s: %w", method, path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}

	return nil
}
