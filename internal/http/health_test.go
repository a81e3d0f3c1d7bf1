package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/source"
	"github.com/mrlokans/mangashelf/internal/source/sourcetest"
)

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is connected", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		manager, err := source.NewManager(sourcetest.New(1, "One", "en"), sourcetest.New(2, "Two", "en"))
		require.NoError(t, err)
		controller := NewHealthController(db, manager, "1.0.0")

		router := gin.New()
		router.GET("/health", controller.Status)
		w := performRequest(router, "GET", "/health", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decode[HealthResponse](t, w)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Equal(t, "2 registered", response.Checks["sources"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("reports missing database", func(t *testing.T) {
		controller := NewHealthController(nil, nil, "1.0.0")

		router := gin.New()
		router.GET("/health", controller.Status)
		w := performRequest(router, "GET", "/health", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decode[HealthResponse](t, w)
		assert.Equal(t, "not configured", response.Checks["database"])
		assert.NotContains(t, response.Checks, "sources")
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()
		db.Close()

		controller := NewHealthController(db, nil, "1.0.0")

		router := gin.New()
		router.GET("/health", controller.Status)
		w := performRequest(router, "GET", "/health", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		response := decode[HealthResponse](t, w)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})
}
