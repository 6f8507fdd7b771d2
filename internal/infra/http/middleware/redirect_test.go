package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studenttools/gateway/internal/gateway/redirect"
)

const testCookie = "student_tools_auth"

func doRedirectGet(t *testing.T, path, cookieValue string) *httptest.ResponseRecorder {
	t.Helper()
	handler := AuthRedirect(redirect.NewPolicy(), testCookie)(okHandler())

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookieValue != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: cookieValue})
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRedirect(t *testing.T) {
	t.Run("anonymous visitor to protected page", func(t *testing.T) {
		rec := doRedirectGet(t, "/dashboard", "")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login?redirect=%2Fdashboard", rec.Header().Get("Location"))
	})

	t.Run("authenticated visitor to login page", func(t *testing.T) {
		rec := doRedirectGet(t, "/login", "true")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})

	t.Run("authenticated visitor to protected page", func(t *testing.T) {
		rec := doRedirectGet(t, "/settings", "true")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cookie with wrong value is anonymous", func(t *testing.T) {
		rec := doRedirectGet(t, "/dashboard", "yes")
		assert.Equal(t, http.StatusFound, rec.Code)
	})

	t.Run("unclassified path passes", func(t *testing.T) {
		rec := doRedirectGet(t, "/about", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("POST is never redirected", func(t *testing.T) {
		handler := AuthRedirect(redirect.NewPolicy(), testCookie)(okHandler())
		req := httptest.NewRequest(http.MethodPost, "/dashboard", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
