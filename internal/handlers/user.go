package handlers

import (
	"net/http"

	"github.com/tzheng846/studyWme/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService      *services.UserService
	directoryService *services.DirectoryService
}

func NewUserHandler(userService *services.UserService, directoryService *services.DirectoryService) *UserHandler {
	return &UserHandler{userService: userService, directoryService: directoryService}
}

// GetMe godoc
// @Summary      Current user profile
// @Description  Account details with lifetime focus statistics
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} User
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListMySessions godoc
// @Summary      List my sessions
// @Description  Every session the current user belongs to, newest first
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Session
// @Router       /api/v1/users/me/sessions [get]
func (h *UserHandler) ListMySessions(c *gin.Context) {
	sessions, err := h.directoryService.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetActiveSession godoc
// @Summary      Current open session
// @Description  The newest pending or active session the current user is in
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Session
// @Success      204
// @Router       /api/v1/users/me/active-session [get]
func (h *UserHandler) GetActiveSession(c *gin.Context) {
	session, err := h.directoryService.ActiveForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if session == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, session)
}
