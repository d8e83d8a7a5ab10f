package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kostkita/kostkita/backend/internal/payments"
)

type paymentPayload struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	RoomID   string `json:"room_id"`
	Period   string `json:"period"`
	Amount   int64  `json:"amount"`
	PaidAt   int64  `json:"paid_at"`
	Status   string `json:"status"`
	LateFee  int64  `json:"late_fee"`
}

func (p paymentPayload) toPayment() payments.Payment {
	return payments.Payment{
		ID:           p.ID,
		TenantID:     p.TenantID,
		RoomID:       p.RoomID,
		Period:       p.Period,
		Amount:       p.Amount,
		PaidAtMillis: p.PaidAt,
		Status:       p.Status,
		LateFee:      p.LateFee,
	}
}

func newPaymentPayload(payment payments.Payment) paymentPayload {
	return paymentPayload{
		ID:       payment.ID,
		TenantID: payment.TenantID,
		RoomID:   payment.RoomID,
		Period:   payment.Period,
		Amount:   payment.Amount,
		PaidAt:   payment.PaidAtMillis,
		Status:   payment.Status,
		LateFee:  payment.LateFee,
	}
}

func newPaymentListPayload(listed []payments.Payment) []paymentPayload {
	response := make([]paymentPayload, 0, len(listed))
	for _, payment := range listed {
		response = append(response, newPaymentPayload(payment))
	}
	return response
}

func (h *httpHandler) handleListPayments(c *gin.Context) {
	listed, err := h.payments.List(c.Request.Context())
	if err != nil {
		h.writeError(c, "payments.list", err)
		return
	}
	c.JSON(http.StatusOK, newPaymentListPayload(listed))
}

func (h *httpHandler) handleListPaymentsByTenant(c *gin.Context) {
	listed, err := h.payments.ListByTenant(c.Request.Context(), c.Param("tenantId"))
	if err != nil {
		h.writeError(c, "payments.list_by_tenant", err)
		return
	}
	c.JSON(http.StatusOK, newPaymentListPayload(listed))
}

func (h *httpHandler) handleListPaymentsByRoom(c *gin.Context) {
	listed, err := h.payments.ListByRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		h.writeError(c, "payments.list_by_room", err)
		return
	}
	c.JSON(http.StatusOK, newPaymentListPayload(listed))
}

func (h *httpHandler) handleGetPayment(c *gin.Context) {
	payment, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "payments.get", err)
		return
	}
	c.JSON(http.StatusOK, newPaymentPayload(payment))
}

func (h *httpHandler) handleCreatePayment(c *gin.Context) {
	var request paymentPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidRequest(c)
		return
	}
	created, err := h.payments.Create(c.Request.Context(), request.toPayment())
	if err != nil {
		h.writeError(c, "payments.create", err)
		return
	}
	c.JSON(http.StatusCreated, newPaymentPayload(created))
}

func (h *httpHandler) handleUpdatePayment(c *gin.Context) {
	var request paymentPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidRequest(c)
		return
	}
	updated, err := h.payments.Update(c.Request.Context(), c.Param("id"), request.toPayment())
	if err != nil {
		h.writeError(c, "payments.update", err)
		return
	}
	c.JSON(http.StatusOK, newPaymentPayload(updated))
}

func (h *httpHandler) handleDeletePayment(c *gin.Context) {
	if err := h.payments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, "payments.delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment deleted"})
}
