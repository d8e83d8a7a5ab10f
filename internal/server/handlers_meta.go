package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type healthPayload struct {
	Status        string `json:"status"`
	Timestamp     string `json:"timestamp"`
	Environment   string `json:"environment"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

var apiEndpoints = map[string]map[string]string{
	"auth": {
		"POST /api/auth/login":          "Login with username or email",
		"POST /api/auth/register":       "Register a new administrator",
		"GET /api/auth/profile":         "Current profile (protected)",
		"PUT /api/auth/profile":         "Update profile (protected)",
		"PUT /api/auth/change-password": "Change password (protected)",
	},
	"rooms": {
		"GET /api/rooms":        "List rooms (protected)",
		"GET /api/rooms/:id":    "Get room (protected)",
		"POST /api/rooms":       "Create room (protected)",
		"PUT /api/rooms/:id":    "Update room (protected)",
		"DELETE /api/rooms/:id": "Delete room (protected)",
	},
	"tenants": {
		"GET /api/tenants":        "List tenants with room info (protected)",
		"GET /api/tenants/:id":    "Get tenant with room info (protected)",
		"POST /api/tenants":       "Create tenant and occupy its room (protected)",
		"PUT /api/tenants/:id":    "Update tenant and move rooms (protected)",
		"DELETE /api/tenants/:id": "Delete tenant and free its room (protected)",
	},
	"payments": {
		"GET /api/payments":                  "List payments (protected)",
		"GET /api/payments/:id":              "Get payment (protected)",
		"GET /api/payments/tenant/:tenantId": "List payments of a tenant (protected)",
		"GET /api/payments/room/:roomId":     "List payments of a room (protected)",
		"POST /api/payments":                 "Create payment (protected)",
		"PUT /api/payments/:id":              "Update payment (protected)",
		"DELETE /api/payments/:id":           "Delete payment (protected)",
	},
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, healthPayload{
		Status:        "healthy",
		Timestamp:     now.UTC().Format(time.RFC3339),
		Environment:   h.environment,
		Version:       h.version,
		UptimeSeconds: int64(now.Sub(h.startedAt).Seconds()),
	})
}

func (h *httpHandler) handleAPIDocs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "KostKita API",
		"version":     h.version,
		"environment": h.environment,
		"endpoints":   apiEndpoints,
	})
}

func (h *httpHandler) handleNotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint_not_found", "available_endpoints": "/api"})
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
}
