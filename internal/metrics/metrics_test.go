package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsRequestsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	collector := NewCollector()

	router := gin.New()
	router.Use(collector.Middleware())
	router.GET("/api/rooms/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for _, path := range []string{"/api/rooms/room-1", "/api/rooms/room-2", "/missing"} {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/rooms/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.httpRequestsTotal.WithLabelValues(http.MethodGet, unmatchedPath, "404")))
}

func TestHandlerExposesOccupancyOperations(t *testing.T) {
	collector := NewCollector()
	collector.RecordOccupancyOperation("create", "committed")
	collector.RecordOccupancyOperation("create", "committed")
	collector.RecordOccupancyOperation("delete", "not_found")
	collector.RecordLoginAttempt("success")

	recorder := httptest.NewRecorder()
	collector.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	body := recorder.Body.String()
	assert.True(t, strings.Contains(body, `kostkita_occupancy_operations_total{operation="create",outcome="committed"} 2`), body)
	assert.True(t, strings.Contains(body, `kostkita_occupancy_operations_total{operation="delete",outcome="not_found"} 1`), body)
	assert.True(t, strings.Contains(body, `kostkita_login_attempts_total{result="success"} 1`), body)
}
