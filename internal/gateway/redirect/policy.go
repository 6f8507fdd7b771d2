// Package redirect implements cookie-based route gating for browser
// navigation.
//
// The auth cookie is a plain client-set flag, not bound to the bearer token.
// This gate only stops protected UI from rendering before real verification
// happens downstream; it is not an authorization boundary, and a forged
// cookie will pass it.
package redirect

import (
	"net/url"
	"strings"
)

// routeClass labels what a path prefix means to the policy.
type routeClass int

const (
	classProtected routeClass = iota
	classAuth
	classAdmin
)

// route pairs a path prefix with its class. Evaluation walks the table in
// order and the first matching prefix wins, which keeps precedence auditable.
type route struct {
	prefix string
	class  routeClass
}

// Policy decides whether a request should be redirected based on its path
// and the auth cookie flag.
type Policy struct {
	routes    []route
	loginPath string
	homePath  string
}

// NewPolicy creates the stock policy:
// admin routes opt out entirely, protected routes require the cookie flag,
// auth routes bounce already-flagged clients to the dashboard.
func NewPolicy() *Policy {
	return &Policy{
		routes: []route{
			{"/admin", classAdmin},
			{"/dashboard", classProtected},
			{"/account", classProtected},
			{"/profile", classProtected},
			{"/settings", classProtected},
			{"/login", classAuth},
			{"/signup", classAuth},
			{"/reset-password", classAuth},
		},
		loginPath: "/login",
		homePath:  "/dashboard",
	}
}

// Evaluate returns the redirect target for the request, or "" to pass
// through. cookieValue is the raw auth cookie value; only the literal
// "true" counts as flagged.
func (p *Policy) Evaluate(path, cookieValue string) string {
	flagged := cookieValue == "true"

	for _, r := range p.routes {
		if !matchPrefix(path, r.prefix) {
			continue
		}
		switch r.class {
		case classAdmin:
			// Admin routes authenticate themselves.
			return ""
		case classProtected:
			if !flagged {
				return p.loginPath + "?redirect=" + url.QueryEscape(path)
			}
			return ""
		case classAuth:
			if flagged {
				return p.homePath
			}
			return ""
		}
	}
	return ""
}

// IsAdmin reports whether the path belongs to the admin route class. The
// pipeline uses this to overlay stricter response headers.
func (p *Policy) IsAdmin(path string) bool {
	for _, r := range p.routes {
		if r.class == classAdmin && matchPrefix(path, r.prefix) {
			return true
		}
	}
	return false
}

// matchPrefix matches whole path segments, so /accounting does not count
// as /account.
func matchPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
