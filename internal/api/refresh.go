package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// defaultRefreshTimeout bounds the refresh call so a hung network call
// cannot hold the coordinator in the refreshing state indefinitely. A timed
// out refresh counts as a refresh failure.
const defaultRefreshTimeout = 15 * time.Second

// refreshCoordinator serializes session refresh across concurrent in-flight
// requests. It is a two-state machine (idle, refreshing): the first caller
// to observe a 401 starts the single refresh call, every later caller
// queues on it, and all waiters are settled exactly once when it resolves.
//
// One coordinator exists per authenticated client, created at construction.
// It must never be duplicated across clients sharing a session; a second
// coordinator reintroduces the double-refresh race this type exists to
// prevent. The flag and queue are only ever touched from the transport
// code path.
type refreshCoordinator struct {
	refresh func(ctx context.Context) error
	timeout time.Duration

	mu         sync.Mutex
	refreshing bool
	waiters    []chan error
}

func newRefreshCoordinator(refresh func(ctx context.Context) error, timeout time.Duration) *refreshCoordinator {
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return &refreshCoordinator{
		refresh: refresh,
		timeout: timeout,
	}
}

// await blocks until the current refresh cycle settles, starting one if the
// coordinator is idle. Returns nil when the session was renewed and the
// caller should retry its original request, or an ErrSessionExpired-wrapped
// error when the session could not be renewed.
//
// ctx only bounds this caller's wait; the refresh call itself runs under
// the coordinator's own timeout so one caller's cancellation cannot abort a
// refresh other callers depend on.
func (c *refreshCoordinator) await(ctx context.Context) error {
	ch := make(chan error, 1)

	c.mu.Lock()
	c.waiters = append(c.waiters, ch)
	if !c.refreshing {
		c.refreshing = true
		go c.run()
	}
	c.mu.Unlock()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		// The waiter channel is buffered, so the settling send never blocks
		// on an abandoned caller.
		return ctx.Err()
	}
}

// run executes the single refresh call and settles every queued waiter.
// The queue is drained and the state returned to idle under one lock
// acquisition, so a later 401 starts a clean new cycle.
func (c *refreshCoordinator) run() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	err := c.refresh(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.refreshing = false
	c.mu.Unlock()

	if err != nil {
		slog.Warn("session refresh failed", "error", err, "waiters", len(waiters))
	} else {
		slog.Debug("session refreshed", "waiters", len(waiters))
	}

	for _, ch := range waiters {
		ch <- err
	}
}

// retriedKey marks a request that has already been replayed once after a
// refresh cycle. A second 401 for such a request surfaces directly.
type retriedKey struct{}

// authTransport detects authentication failures on the authenticated
// client, delegates to the refresh coordinator, and replays the original
// request exactly once. Everything else passes through untouched: transport
// errors, all other status codes, and requests already retried.
type authTransport struct {
	coord *refreshCoordinator
	next  http.RoundTripper
}

// Compile-time check to ensure authTransport implements http.RoundTripper
var _ http.RoundTripper = (*authTransport)(nil)

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if req.Context().Value(retriedKey{}) != nil {
		return resp, nil
	}

	retry, ok := replayableClone(req)
	if !ok {
		// Body cannot be replayed; the caller gets the 401 as-is.
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if err := t.coord.await(req.Context()); err != nil {
		return nil, err
	}

	// Retry through the full chain so the request picks up the freshly
	// bootstrapped CSRF token.
	return t.next.RoundTrip(retry)
}

// replayableClone clones req for a one-time replay, marking the clone as
// retried. Requests with a non-rewindable body report false.
func replayableClone(req *http.Request) (*http.Request, bool) {
	clone := req.Clone(context.WithValue(req.Context(), retriedKey{}, true))

	if req.Body == nil || req.Body == http.NoBody {
		return clone, true
	}
	if req.GetBody == nil {
		return nil, false
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	clone.Body = body
	return clone, true
}
