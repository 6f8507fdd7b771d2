package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studenttools/gateway/internal/gateway/redirect"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	h := rec.Header()
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", h.Get("X-XSS-Protection"))
	assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
	assert.NotEmpty(t, h.Get("Permissions-Policy"))
}

func TestSecurityHeaders_HSTSOnlyOverTLS(t *testing.T) {
	handler := SecurityHeaders()(okHandler())

	t.Run("plain http", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("forwarded https", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")
	})
}

func TestAdminOverlay(t *testing.T) {
	handler := AdminOverlay(redirect.NewPolicy())(okHandler())

	t.Run("admin route gets strict CSP", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rec.Header().Set("Server", "leaky")
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/users", nil))

		assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		assert.Empty(t, rec.Header().Get("Server"))
	})

	t.Run("regular route untouched", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		assert.Empty(t, rec.Header().Get("Content-Security-Policy"))
	})
}

func TestHTTPSEnforce(t *testing.T) {
	handler := HTTPSEnforce()(okHandler())

	t.Run("redirects plain GET with 301", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://app.example.com/dashboard?tab=due", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "https://app.example.com/dashboard?tab=due", rec.Header().Get("Location"))
	})

	t.Run("redirects POST with 308", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "http://app.example.com/api/auth/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
	})

	t.Run("passes forwarded https through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://app.example.com/dashboard", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
