// Package cookiestore persists the API client's cookies between
// invocations, standing in for the browser cookie store. Cookies are filed
// in the OS keyring because the session cookie is a credential.
package cookiestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/zalando/go-keyring"
)

// keyringUser is the account name the cookie blob is filed under.
const keyringUser = "cookies"

// secrets abstracts the keyring so tests can run without an OS secret
// service.
type secrets interface {
	Get(service, user string) (string, error)
	Set(service, user, value string) error
	Delete(service, user string) error
}

// errNotFound is the backend-agnostic absence marker.
var errNotFound = errors.New("secret not found")

type keyringSecrets struct{}

func (keyringSecrets) Get(service, user string) (string, error) {
	v, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", errNotFound
	}
	return v, err
}

func (keyringSecrets) Set(service, user, value string) error {
	return keyring.Set(service, user, value)
}

func (keyringSecrets) Delete(service, user string) error {
	err := keyring.Delete(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return errNotFound
	}
	return err
}

// Store saves and restores the cookies a jar holds for one base URL.
type Store struct {
	service string
	secrets secrets
}

// New creates a keyring-backed store filing cookies under the given
// service name.
func New(service string) *Store {
	return &Store{service: service, secrets: keyringSecrets{}}
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Restore loads previously saved cookies into the jar. A missing entry is
// not an error: the first invocation simply starts without a session.
func (s *Store) Restore(jar http.CookieJar, base *url.URL) error {
	raw, err := s.secrets.Get(s.service, keyringUser)
	if errors.Is(err, errNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading cookies from keyring: %w", err)
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return fmt.Errorf("decoding stored cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	jar.SetCookies(base, cookies)

	return nil
}

// Save writes the jar's cookies for the base URL back to the keyring.
func (s *Store) Save(jar http.CookieJar, base *url.URL) error {
	cookies := jar.Cookies(base)
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}

	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding cookies: %w", err)
	}
	if err := s.secrets.Set(s.service, keyringUser, string(raw)); err != nil {
		return fmt.Errorf("writing cookies to keyring: %w", err)
	}

	return nil
}

// Clear removes the saved cookies. Clearing an absent entry is a no-op.
func (s *Store) Clear() error {
	err := s.secrets.Delete(s.service, keyringUser)
	if err != nil && !errors.Is(err, errNotFound) {
		return fmt.Errorf("clearing cookies from keyring: %w", err)
	}
	return nil
}
