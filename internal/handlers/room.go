package handlers

import (
	"net/http"

	"github.com/tzheng846/studyWme/internal/services"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	directoryService *services.DirectoryService
	sessionService   *services.SessionService
}

func NewRoomHandler(directoryService *services.DirectoryService, sessionService *services.SessionService) *RoomHandler {
	return &RoomHandler{directoryService: directoryService, sessionService: sessionService}
}

type ResolveRoomResponse struct {
	SessionID string `json:"session_id" example:"3f2b9c1e-8d4a-4b6e-9f0a-1c2d3e4f5a6b"`
}

// ResolveRoom godoc
// @Summary      Resolve a join code
// @Description  Look up the session a 6-digit room code belongs to
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Room code"
// @Success      200 {object} ResolveRoomResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/rooms/{code} [get]
func (h *RoomHandler) ResolveRoom(c *gin.Context) {
	sessionID, err := h.directoryService.ResolveCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResolveRoomResponse{SessionID: sessionID})
}

// JoinRoom godoc
// @Summary      Join a pending session by code
// @Description  Joining a session you already belong to returns it unchanged
// @Tags         rooms
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Room code"
// @Success      200 {object} Session
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/rooms/{code}/join [post]
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	session, err := h.sessionService.Join(c.Request.Context(), c.Param("code"), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
