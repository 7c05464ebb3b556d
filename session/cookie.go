// Package session owns the persisted session token: the cookie the browser
// carries between navigations and the token stores the SDK uses. Every
// component that touches the token (login handlers, the route guard, the
// resource proxies) goes through this package, so there is exactly one
// cookie name in the system.
package session

import (
	"net/http"
	"time"
)

const (
	// CookieName is the canonical session cookie. The guard reads exactly
	// what the login flow writes; no component may use another name.
	CookieName = "auth_token"

	// DefaultTTL is the client-side lifetime of a persisted token. Matches
	// the access token lifetime issued by the identity backend.
	DefaultTTL = 7 * 24 * time.Hour
)

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Secure bool
	Domain string
}

// WriteToken issues the session cookie to the client. The cookie is
// intentionally readable by frontend code (not HttpOnly): the dashboard
// attaches it as a bearer header on direct API calls.
func WriteToken(w http.ResponseWriter, token string, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   opts.Domain,
		Expires:  time.Now().Add(DefaultTTL),
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearToken removes the session cookie from the client.
func ClearToken(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   -1,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadToken returns the session token carried by the request, if any.
func ReadToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
