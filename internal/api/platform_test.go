package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakePlatform is an in-process stand-in for the course platform service:
// cookie session, double-submit CSRF, refresh endpoint. Tests flip its
// flags to drive the scenarios.
type fakePlatform struct {
	mu           sync.Mutex
	sessionValid bool
	refreshOK    bool
	// refreshNoEffect makes the refresh endpoint answer 200 without
	// validating the session, so retries keep failing.
	refreshNoEffect bool
	force403        bool
	csrfSeq         int
	csrfCalls       int
	refreshCalls    int
	protectedCalls  int
	protectedBodies [][]byte
	protectedTokens []string

	// refreshGate, when set, blocks the refresh handler until closed. Used
	// to hold the coordinator in the refreshing state deterministically.
	refreshGate chan struct{}
}

type platformCounts struct {
	csrf      int
	refresh   int
	protected int
}

func (p *fakePlatform) counts() platformCounts {
	p.mu.Lock()
	defer p.mu.Unlock()
	return platformCounts{csrf: p.csrfCalls, refresh: p.refreshCalls, protected: p.protectedCalls}
}

func (p *fakePlatform) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/csrf/", p.handleCSRF)
	mux.HandleFunc("POST /auth/refresh/", p.handleRefresh)
	mux.HandleFunc("POST /auth/login/", p.handleLogin)
	mux.HandleFunc("/courses/", p.handleProtected)
	return mux
}

func (p *fakePlatform) handleCSRF(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.csrfCalls++
	p.csrfSeq++
	token := fmt.Sprintf("tok-%d", p.csrfSeq)
	p.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: DefaultCSRFCookie, Value: token, Path: "/"})
	writeTestJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

func (p *fakePlatform) handleRefresh(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.refreshCalls++
	gate := p.refreshGate
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	p.mu.Lock()
	ok := p.refreshOK
	if ok && !p.refreshNoEffect {
		p.sessionValid = true
	}
	p.mu.Unlock()

	if !ok {
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "renewed", Path: "/", HttpOnly: true})
	writeTestJSON(w, http.StatusOK, map[string]string{"detail": "ok"})
}

func (p *fakePlatform) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !p.csrfValid(r) {
		writeTestJSON(w, http.StatusForbidden, map[string]string{"detail": "CSRF Failed: token missing or incorrect."})
		return
	}

	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeTestJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}
	if creds.Email != "student@example.com" || creds.Password != "passw0rd" {
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials."})
		return
	}

	p.mu.Lock()
	p.sessionValid = true
	p.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "fresh", Path: "/", HttpOnly: true})
	writeTestJSON(w, http.StatusOK, map[string]string{"detail": "ok"})
}

func (p *fakePlatform) handleProtected(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	p.mu.Lock()
	p.protectedCalls++
	p.protectedBodies = append(p.protectedBodies, body)
	p.protectedTokens = append(p.protectedTokens, r.Header.Get(HeaderCSRFToken))
	valid := p.sessionValid
	force403 := p.force403
	p.mu.Unlock()

	if force403 {
		writeTestJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	if !valid {
		writeTestJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeTestJSON(w, http.StatusOK, []map[string]any{{"id": 1, "title": "Intro"}})
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		if !p.csrfValid(r) {
			writeTestJSON(w, http.StatusForbidden, map[string]string{"detail": "CSRF Failed: token missing or incorrect."})
			return
		}
		writeTestJSON(w, http.StatusOK, map[string]any{"id": 1})
	}
}

// csrfValid implements the double-submit comparison: header must match the
// csrftoken cookie sent with the request.
func (p *fakePlatform) csrfValid(r *http.Request) bool {
	cookie, err := r.Cookie(DefaultCSRFCookie)
	if err != nil {
		return false
	}
	header := r.Header.Get(HeaderCSRFToken)
	return header != "" && header == cookie.Value
}

func writeTestJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// newTestClient spins up a fake platform and a Client pointed at it.
func newTestClient(t *testing.T, platform *fakePlatform, opts ...Option) *Client {
	t.Helper()

	server := httptest.NewServer(platform.handler())
	t.Cleanup(server.Close)

	client, err := New(server.URL, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

// waitForWaiters polls until the coordinator has enrolled n waiters on the
// in-flight refresh.
func waitForWaiters(t *testing.T, c *refreshCoordinator, n int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		got := len(c.waiters)
		c.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("coordinator never reached %d waiters", n)
}
