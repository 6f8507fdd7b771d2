package middleware

import (
	"context"
	"net/http"
	"strings"
)

const (
	// ClientIdentityKey is the context key for the resolved client identity.
	ClientIdentityKey contextKey = "client_identity"

	// UnknownIdentity is used when no forwarding header identifies the
	// client. All such clients share one rate limit bucket, which fails
	// closed rather than open.
	UnknownIdentity = "unknown"
)

// Identity resolves the client identity for rate limiting and lockout
// tracking and stores it in the request context.
//
// The gateway always runs behind a trusted proxy, so the identity comes
// from forwarding headers only: the first X-Forwarded-For entry, then
// X-Real-IP. The socket address is never used since it would be the
// proxy's, collapsing all clients into one bucket silently.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ClientIdentityKey, resolveIdentity(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIdentity retrieves the client identity from the context.
func ClientIdentity(ctx context.Context) string {
	if id, ok := ctx.Value(ClientIdentityKey).(string); ok && id != "" {
		return id
	}
	return UnknownIdentity
}

func resolveIdentity(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the original client; the rest are proxies.
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	return UnknownIdentity
}
