package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kostkita/kostkita/backend/internal/payments"
	"github.com/kostkita/kostkita/backend/internal/rooms"
	"github.com/kostkita/kostkita/backend/internal/tenancy"
	"github.com/kostkita/kostkita/backend/internal/users"
	"go.uber.org/zap"
)

type errorMapping struct {
	kind   error
	status int
	code   string
}

// errorMappings is ordered; the first matching kind wins.
var errorMappings = []errorMapping{
	{kind: tenancy.ErrNotFound, status: http.StatusNotFound, code: "tenant_not_found"},
	{kind: tenancy.ErrConflict, status: http.StatusConflict, code: "tenant_exists"},
	{kind: tenancy.ErrUnknownRoom, status: http.StatusBadRequest, code: "unknown_room"},
	{kind: tenancy.ErrInvalidTenant, status: http.StatusBadRequest, code: "invalid_tenant"},
	{kind: tenancy.ErrStoreFailure, status: http.StatusInternalServerError, code: "store_failure"},
	{kind: rooms.ErrNotFound, status: http.StatusNotFound, code: "room_not_found"},
	{kind: rooms.ErrConflict, status: http.StatusConflict, code: "room_exists"},
	{kind: rooms.ErrOccupied, status: http.StatusConflict, code: "room_occupied"},
	{kind: rooms.ErrInvalidRoom, status: http.StatusBadRequest, code: "invalid_room"},
	{kind: payments.ErrNotFound, status: http.StatusNotFound, code: "payment_not_found"},
	{kind: payments.ErrConflict, status: http.StatusConflict, code: "payment_exists"},
	{kind: payments.ErrInvalidPayment, status: http.StatusBadRequest, code: "invalid_payment"},
	{kind: users.ErrInvalidCredentials, status: http.StatusUnauthorized, code: "invalid_credentials"},
	{kind: users.ErrDuplicateUser, status: http.StatusBadRequest, code: "user_exists"},
	{kind: users.ErrNotFound, status: http.StatusNotFound, code: "user_not_found"},
	{kind: users.ErrInvalidUser, status: http.StatusBadRequest, code: "invalid_request"},
}

func classifyError(err error) (int, string) {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.kind) {
			return mapping.status, mapping.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a service error onto a status and a stable error code. Server-side failures
// are logged; their messages never reach the client.
func (h *httpHandler) writeError(c *gin.Context, operation string, err error) {
	status, code := classifyError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("operation", operation),
			zap.String("request_id", c.GetString(requestIDContextKey)),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": code})
}

func writeInvalidRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
}
