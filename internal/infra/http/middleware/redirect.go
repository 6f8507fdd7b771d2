package middleware

import (
	"net/http"

	"github.com/studenttools/gateway/internal/gateway/redirect"
)

// AuthRedirect routes browser navigation based on the auth cookie.
// Unauthenticated visitors to protected pages go to the login page
// with the original path preserved; authenticated visitors to auth
// pages go to the dashboard.
//
// The cookie is a UX hint, not an authorization check. Actual auth
// happens against the session token on API calls.
func AuthRedirect(policy *redirect.Policy, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			var cookieValue string
			if c, err := r.Cookie(cookieName); err == nil {
				cookieValue = c.Value
			}

			if target := policy.Evaluate(r.URL.Path, cookieValue); target != "" {
				http.Redirect(w, r, target, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
