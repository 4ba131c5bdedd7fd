// Package api implements the shared HTTP client layer for the course
// platform REST service.
//
// The service uses cookie-based sessions with a double-submit CSRF scheme:
// the CSRF token lives in a readable cookie and must be echoed back in the
// X-CSRFToken header on every state-changing request. Sessions are renewed
// through a refresh endpoint when the service answers 401.
//
// Two http.Clients are exposed per Client instance. Both share one cookie
// jar and one CSRF manager:
//   - the authenticated client coordinates session refresh on 401 and
//     retries the failed request exactly once
//   - the public client (login, logout) attaches CSRF but never refreshes
//
// # Refresh coordination
//
// However many requests fail with 401 concurrently, at most one refresh
// call is in flight at any instant. All other callers queue on the
// in-flight refresh and are settled together when it resolves: on success
// each retries its original request, on failure each receives
// ErrSessionExpired. A request is retried at most once per 401 cycle.
//
// # Usage
//
//	client, err := api.New("https://api.example.com/v1")
//	if err != nil { ... }
//	var courses []Course
//	err = client.Get(ctx, "/courses/", &courses)
//	if errors.Is(err, api.ErrSessionExpired) {
//		// route the user to the login flow
//	}
package api
