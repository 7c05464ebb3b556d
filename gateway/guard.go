package gateway

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/hyperdash/session"
)

// protectedPrefixes are page paths that require a session cookie.
var protectedPrefixes = []string{
	"/profile",
	"/exchange-keys",
	"/settings",
	"/copy-trading",
	"/portfolio",
}

// authPrefixes are pages an already-authenticated user is bounced away from.
var authPrefixes = []string{"/login"}

// guardSkipPrefixes are request paths the guard never touches: API calls,
// operational endpoints and static assets.
var guardSkipPrefixes = []string{
	"/api",
	"/healthz",
	"/metrics",
	"/_next",
	"/static",
	"/favicon.ico",
}

// RouteGuard redirects page navigation based on cookie presence: protected
// pages without a cookie go to /login with the original path preserved, auth
// pages with a cookie go home. This is a UX convenience only; actual
// authorization happens upstream against the token.
func RouteGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if matchesPrefix(path, guardSkipPrefixes) {
			c.Next()
			return
		}

		_, hasToken := session.ReadToken(c.Request)

		if matchesPrefix(path, protectedPrefixes) && !hasToken {
			c.Redirect(http.StatusFound, "/login?redirect="+url.QueryEscape(path))
			c.Abort()
			return
		}
		if matchesPrefix(path, authPrefixes) && hasToken {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
