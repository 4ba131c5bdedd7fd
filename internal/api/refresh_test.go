package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

// TestConcurrent401sSingleRefresh drives N requests into simultaneous 401s,
// holds the refresh in flight until all N have queued, and verifies exactly
// one refresh call was issued and every request was retried to success.
func TestConcurrent401sSingleRefresh(t *testing.T) {
	const n = 3

	gate := make(chan struct{})
	platform := &fakePlatform{refreshOK: true, refreshGate: gate}
	client := newTestClient(t, platform)

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out []map[string]any
			results[i] = client.Get(context.Background(), "/courses/7/modules/", &out)
		}()
	}

	// All three callers observe a 401 and enroll on the gated refresh.
	waitForWaiters(t, client.coord, n)
	close(gate)
	wg.Wait()

	for i, err := range results {
		if err != nil {
			t.Errorf("request %d failed: %v", i, err)
		}
	}

	counts := platform.counts()
	if counts.refresh != 1 {
		t.Errorf("refresh calls = %d, want 1", counts.refresh)
	}
	if counts.protected != 2*n {
		t.Errorf("protected calls = %d, want %d (each request tried twice)", counts.protected, 2*n)
	}

	client.coord.mu.Lock()
	defer client.coord.mu.Unlock()
	if client.coord.refreshing || len(client.coord.waiters) != 0 {
		t.Errorf("coordinator not idle after cycle: refreshing=%v waiters=%d",
			client.coord.refreshing, len(client.coord.waiters))
	}
}

// TestRetriedRequestNeverReenters verifies a request that still gets 401
// after a successful refresh surfaces the 401 instead of starting another
// cycle.
func TestRetriedRequestNeverReenters(t *testing.T) {
	// The refresh call succeeds but the session stays invalid for this
	// caller (e.g. revoked account): the retry's 401 must surface.
	platform := &fakePlatform{refreshOK: true, refreshNoEffect: true}
	client := newTestClient(t, platform)

	var out []map[string]any
	err := client.Get(context.Background(), "/courses/", &out)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("got %v, want *APIError with status 401", err)
	}

	counts := platform.counts()
	if counts.refresh != 1 {
		t.Errorf("refresh calls = %d, want 1", counts.refresh)
	}
	if counts.protected != 2 {
		t.Errorf("protected calls = %d, want 2 (original + single retry)", counts.protected)
	}
}

// TestRefreshFailureRejectsAllWaiters checks that a failed refresh settles
// every queued caller with ErrSessionExpired (not their original 401s) and
// returns the coordinator to idle so a later 401 can start a new cycle.
func TestRefreshFailureRejectsAllWaiters(t *testing.T) {
	const n = 3

	gate := make(chan struct{})
	platform := &fakePlatform{refreshOK: false, refreshGate: gate}
	client := newTestClient(t, platform)

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out []map[string]any
			results[i] = client.Get(context.Background(), "/courses/", &out)
		}()
	}

	waitForWaiters(t, client.coord, n)
	close(gate)
	wg.Wait()

	for i, err := range results {
		if !errors.Is(err, ErrSessionExpired) {
			t.Errorf("request %d: got %v, want ErrSessionExpired", i, err)
		}
	}
	if got := platform.counts().refresh; got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}

	// Coordinator must be idle again: the next 401 starts a fresh cycle.
	platform.mu.Lock()
	platform.refreshGate = nil
	platform.refreshOK = true
	platform.mu.Unlock()

	var out []map[string]any
	if err := client.Get(context.Background(), "/courses/", &out); err != nil {
		t.Fatalf("request after recovery failed: %v", err)
	}
	if got := platform.counts().refresh; got != 2 {
		t.Errorf("refresh calls after recovery = %d, want 2", got)
	}
}

// TestRefreshTimeoutRejectsWaiters verifies a hung refresh call cannot pin
// the coordinator: the coordinator's own timeout fails the cycle.
func TestRefreshTimeoutRejectsWaiters(t *testing.T) {
	gate := make(chan struct{}) // never closed; the refresh hangs
	platform := &fakePlatform{refreshOK: true, refreshGate: gate}
	client := newTestClient(t, platform, WithRefreshTimeout(50*time.Millisecond))

	var out []map[string]any
	err := client.Get(context.Background(), "/courses/", &out)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("got %v, want ErrSessionExpired", err)
	}

	client.coord.mu.Lock()
	defer client.coord.mu.Unlock()
	if client.coord.refreshing {
		t.Error("coordinator stuck in refreshing after timeout")
	}
}

// TestRetryCarriesFreshCSRFToken verifies the coupled CSRF re-bootstrap: a
// replayed unsafe request must carry the token minted after the refresh,
// not the one it originally failed with.
func TestRetryCarriesFreshCSRFToken(t *testing.T) {
	platform := &fakePlatform{refreshOK: true}
	client := newTestClient(t, platform)

	// Bootstrap the initial token (tok-1); the session starts invalid so
	// the POST 401s once.
	if err := client.EnsureCSRF(context.Background()); err != nil {
		t.Fatalf("EnsureCSRF failed: %v", err)
	}

	var out map[string]any
	err := client.Post(context.Background(), "/courses/", map[string]string{"title": "Go 101"}, &out)
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	platform.mu.Lock()
	tokens := append([]string(nil), platform.protectedTokens...)
	bodies := append([][]byte(nil), platform.protectedBodies...)
	platform.mu.Unlock()

	if len(tokens) != 2 {
		t.Fatalf("protected calls = %d, want 2", len(tokens))
	}
	if tokens[0] != "tok-1" {
		t.Errorf("first attempt token = %q, want tok-1", tokens[0])
	}
	if tokens[1] != "tok-2" {
		t.Errorf("retry token = %q, want tok-2 (re-bootstrapped)", tokens[1])
	}
	if string(bodies[0]) != string(bodies[1]) {
		t.Errorf("retry body %q differs from original %q", bodies[1], bodies[0])
	}
}

// TestCoordinatorSettlesLateWaiterOnce exercises the coordinator directly:
// the leader and a queued waiter each settle exactly once.
func TestCoordinatorSettlesLateWaiterOnce(t *testing.T) {
	release := make(chan struct{})
	var calls int
	coord := newRefreshCoordinator(func(ctx context.Context) error {
		calls++
		<-release
		return nil
	}, time.Second)

	errs := make(chan error, 2)
	go func() { errs <- coord.await(context.Background()) }()
	waitForWaiters(t, coord, 1)
	go func() { errs <- coord.await(context.Background()) }()
	waitForWaiters(t, coord, 2)
	close(release)

	for range 2 {
		if err := <-errs; err != nil {
			t.Errorf("await returned %v, want nil", err)
		}
	}
	if calls != 1 {
		t.Errorf("refresh func called %d times, want 1", calls)
	}
}

// TestCoordinatorAwaitHonorsCallerContext verifies a caller can abandon its
// wait without disturbing the shared refresh.
func TestCoordinatorAwaitHonorsCallerContext(t *testing.T) {
	release := make(chan struct{})
	coord := newRefreshCoordinator(func(ctx context.Context) error {
		<-release
		return nil
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- coord.await(ctx) }()
	waitForWaiters(t, coord, 1)
	cancel()

	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	// The refresh itself still settles cleanly.
	close(release)
	if err := coord.await(context.Background()); err != nil {
		t.Fatalf("later await failed: %v", err)
	}
}
