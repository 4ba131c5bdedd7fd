package api

import (
	"net/http"
	"net/url"
)

// CookieValue reads the named cookie from the jar for the given base URL.
// Returns the empty string when the jar is nil or the cookie is absent.
// Values are percent-decoded when possible; a value that fails decoding is
// returned verbatim.
func CookieValue(jar http.CookieJar, base *url.URL, name string) string {
	if jar == nil || base == nil {
		return ""
	}

	for _, c := range jar.Cookies(base) {
		if c.Name != name {
			continue
		}
		if v, err := url.QueryUnescape(c.Value); err == nil {
			return v
		}
		return c.Value
	}

	return ""
}
