package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kostkita/kostkita/backend/internal/tenancy"
)

type tenantPayload struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	Phone            string  `json:"phone"`
	Occupation       string  `json:"occupation"`
	EmergencyContact string  `json:"emergency_contact"`
	MoveInDate       int64   `json:"move_in_date"`
	RoomID           *string `json:"room_id"`
}

type tenantViewPayload struct {
	tenantPayload
	RoomNumber   *string `json:"room_number"`
	RoomType     *string `json:"room_type"`
	MonthlyPrice *int64  `json:"monthly_price"`
}

func (p tenantPayload) toTenant() tenancy.Tenant {
	return tenancy.Tenant{
		ID:               p.ID,
		Name:             p.Name,
		Email:            p.Email,
		Phone:            p.Phone,
		Occupation:       p.Occupation,
		EmergencyContact: p.EmergencyContact,
		MoveInDateMillis: p.MoveInDate,
		RoomID:           p.RoomID,
	}
}

func newTenantPayload(tenant tenancy.Tenant) tenantPayload {
	return tenantPayload{
		ID:               tenant.ID,
		Name:             tenant.Name,
		Email:            tenant.Email,
		Phone:            tenant.Phone,
		Occupation:       tenant.Occupation,
		EmergencyContact: tenant.EmergencyContact,
		MoveInDate:       tenant.MoveInDateMillis,
		RoomID:           tenant.RoomID,
	}
}

func newTenantViewPayload(view tenancy.TenantView) tenantViewPayload {
	return tenantViewPayload{
		tenantPayload: newTenantPayload(view.Tenant),
		RoomNumber:    view.RoomNumber,
		RoomType:      view.RoomType,
		MonthlyPrice:  view.MonthlyPrice,
	}
}

func (h *httpHandler) handleListTenants(c *gin.Context) {
	views, err := h.tenants.ListTenants(c.Request.Context())
	if err != nil {
		h.writeError(c, "tenants.list", err)
		return
	}
	response := make([]tenantViewPayload, 0, len(views))
	for _, view := range views {
		response = append(response, newTenantViewPayload(view))
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleGetTenant(c *gin.Context) {
	view, err := h.tenants.GetTenant(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "tenants.get", err)
		return
	}
	c.JSON(http.StatusOK, newTenantViewPayload(view))
}

func (h *httpHandler) handleCreateTenant(c *gin.Context) {
	var request tenantPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidRequest(c)
		return
	}
	created, err := h.tenants.CreateTenant(c.Request.Context(), request.toTenant())
	if err != nil {
		h.writeError(c, "tenants.create", err)
		return
	}
	c.JSON(http.StatusCreated, newTenantPayload(created))
}

func (h *httpHandler) handleUpdateTenant(c *gin.Context) {
	var request tenantPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidRequest(c)
		return
	}
	updated, err := h.tenants.UpdateTenant(c.Request.Context(), c.Param("id"), request.toTenant())
	if err != nil {
		h.writeError(c, "tenants.update", err)
		return
	}
	c.JSON(http.StatusOK, newTenantPayload(updated))
}

func (h *httpHandler) handleDeleteTenant(c *gin.Context) {
	if err := h.tenants.DeleteTenant(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, "tenants.delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tenant deleted"})
}
