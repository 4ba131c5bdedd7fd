package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	// HeaderCSRFToken is the header the service compares against the CSRF
	// cookie (double-submit scheme).
	HeaderCSRFToken = "X-CSRFToken"

	// DefaultCSRFCookie is the cookie the service stores the token in.
	DefaultCSRFCookie = "csrftoken"

	csrfPath = "/auth/csrf/"
)

// CSRFManager guarantees a CSRF cookie exists and exposes the current token
// value. One manager is shared by all clients bound to the same session.
type CSRFManager struct {
	base   *url.URL
	jar    http.CookieJar
	cookie string
	client *http.Client

	mu    sync.Mutex
	token string
}

func newCSRFManager(base *url.URL, jar http.CookieJar, cookie string, client *http.Client) *CSRFManager {
	return &CSRFManager{
		base:   base,
		jar:    jar,
		cookie: cookie,
		client: client,
	}
}

// Token returns the current token: the cached value resolved by the last
// bootstrap, falling back to the cookie jar. Empty when no token exists.
func (m *CSRFManager) Token() string {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token != "" {
		return token
	}
	return CookieValue(m.jar, m.base, m.cookie)
}

// Ensure guarantees a CSRF cookie exists. When the cookie is already
// present it returns without any network call; otherwise it bootstraps via
// the CSRF endpoint.
func (m *CSRFManager) Ensure(ctx context.Context) error {
	if v := CookieValue(m.jar, m.base, m.cookie); v != "" {
		m.setToken(v)
		return nil
	}
	return m.Bootstrap(ctx)
}

// Bootstrap unconditionally fetches a fresh token from the CSRF endpoint,
// which causes the service to set the cookie. A token carried in the
// response body is preferred over re-reading the cookie, tolerating cookie
// write latency. Network failure falls back to whatever the jar holds
// rather than raising: a missing token must surface as a downstream 403,
// not be swallowed here.
func (m *CSRFManager) Bootstrap(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.base.JoinPath(csrfPath).String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		m.setToken(CookieValue(m.jar, m.base, m.cookie))
		return nil
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if resp.StatusCode == http.StatusOK {
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodyBytes)).Decode(&body)
	}

	if body.CSRFToken != "" {
		m.setToken(body.CSRFToken)
	} else {
		m.setToken(CookieValue(m.jar, m.base, m.cookie))
	}

	return nil
}

func (m *CSRFManager) setToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// unsafeMethods are the methods that require the CSRF header. Lookups are
// on the lower-cased method.
var unsafeMethods = map[string]struct{}{
	"post":   {},
	"put":    {},
	"patch":  {},
	"delete": {},
}

// csrfTransport attaches the CSRF header to unsafe requests. Safe methods
// pass through untouched. When no token exists the request is sent
// unmodified and fails server-side CSRF validation as a normal HTTP error.
type csrfTransport struct {
	csrf *CSRFManager
	next http.RoundTripper
}

// Compile-time check to ensure csrfTransport implements http.RoundTripper
var _ http.RoundTripper = (*csrfTransport)(nil)

func (t *csrfTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if _, unsafe := unsafeMethods[strings.ToLower(req.Method)]; !unsafe {
		return t.next.RoundTrip(req)
	}

	token := t.csrf.Token()
	if token == "" {
		return t.next.RoundTrip(req)
	}

	// Clone so the caller's request headers are never mutated.
	clone := req.Clone(req.Context())
	clone.Header.Set(HeaderCSRFToken, token)
	return t.next.RoundTrip(clone)
}
