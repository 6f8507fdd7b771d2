package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studenttools/gateway/internal/gateway/trafficfilter"
	"github.com/studenttools/gateway/pkg/logger"
)

func TestTrafficFilter(t *testing.T) {
	filter := trafficfilter.New(trafficfilter.Rules{})
	handler := TrafficFilter(filter, logger.NewNop())(okHandler())

	t.Run("bot user agent gets 403", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; AhrefsBot/7.0)")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "FORBIDDEN")
	})

	t.Run("probe path gets plain 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/wp-admin/setup.php", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		// The body must look like any other 404, not a filter response.
		assert.NotContains(t, rec.Body.String(), "FORBIDDEN")
		assert.NotContains(t, rec.Body.String(), "blocked")
	})

	t.Run("ordinary traffic passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh)")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bot check wins over path check", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/wp-admin", nil)
		req.Header.Set("User-Agent", "sqlmap/1.7")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
