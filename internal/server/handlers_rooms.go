package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kostkita/kostkita/backend/internal/rooms"
)

type roomRequestPayload struct {
	ID           string `json:"id"`
	Number       string `json:"room_number"`
	Type         string `json:"room_type"`
	MonthlyPrice int64  `json:"monthly_price"`
	Facilities   string `json:"facilities"`
	Floor        int    `json:"floor"`
}

type roomPayload struct {
	ID              string `json:"id"`
	Number          string `json:"room_number"`
	Type            string `json:"room_type"`
	MonthlyPrice    int64  `json:"monthly_price"`
	Facilities      string `json:"facilities"`
	OccupancyStatus string `json:"occupancy_status"`
	Floor           int    `json:"floor"`
}

func (p roomRequestPayload) toRoom() rooms.Room {
	return rooms.Room{
		ID:           p.ID,
		Number:       p.Number,
		Type:         p.Type,
		MonthlyPrice: p.MonthlyPrice,
		Facilities:   p.Facilities,
		Floor:        p.Floor,
	}
}

func newRoomPayload(room rooms.Room) roomPayload {
	return roomPayload{
		ID:              room.ID,
		Number:          room.Number,
		Type:            room.Type,
		MonthlyPrice:    room.MonthlyPrice,
		Facilities:      room.Facilities,
		OccupancyStatus: string(room.OccupancyStatus),
		Floor:           room.Floor,
	}
}

func (h *httpHandler) handleListRooms(c *gin.Context) {
	listed, err := h.rooms.List(c.Request.Context())
	if err != nil {
		h.writeError(c, "rooms.list", err)
		return
	}
	response := make([]roomPayload, 0, len(listed))
	for _, room := range listed {
		response = append(response, newRoomPayload(room))
	}
	c.JSON(http.StatusOK, response)
}

func (h *httpHandler) handleGetRoom(c *gin.Context) {
	room, err := h.rooms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "rooms.get", err)
		return
	}
	c.JSON(http.StatusOK, newRoomPayload(room))
}

func (h *httpHandler) handleCreateRoom(c *gin.Context) {
	var request roomRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidRequest(c)
		return
	}
	created, err := h.rooms.Create(c.Request.Context(), request.toRoom())
	if err != nil {
		h.writeError(c, "rooms.create", err)
		return
	}
	c.JSON(http.StatusCreated, newRoomPayload(created))
}

func (h *httpHandler) handleUpdateRoom(c *gin.Context) {
	var request roomRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidRequest(c)
		return
	}
	updated, err := h.rooms.Update(c.Request.Context(), c.Param("id"), request.toRoom())
	if err != nil {
		h.writeError(c, "rooms.update", err)
		return
	}
	c.JSON(http.StatusOK, newRoomPayload(updated))
}

func (h *httpHandler) handleDeleteRoom(c *gin.Context) {
	if err := h.rooms.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, "rooms.delete", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "room deleted"})
}
