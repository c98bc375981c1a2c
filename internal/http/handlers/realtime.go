package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/ws"
)

// RealtimeHandler exposes the hub's registry snapshot to observability
// tooling. Read-only; not part of the websocket protocol.
type RealtimeHandler struct {
	hub *ws.Hub
}

func NewRealtimeHandler(hub *ws.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

func (h *RealtimeHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Stats())
}
