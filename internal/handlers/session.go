package handlers

import (
	"net/http"

	"github.com/tzheng846/studyWme/internal/models"
	"github.com/tzheng846/studyWme/internal/services"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionService *services.SessionService
	userService    *services.UserService
	statsService   *services.StatsService
}

func NewSessionHandler(sessionService *services.SessionService, userService *services.UserService, statsService *services.StatsService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, userService: userService, statsService: statsService}
}

type CreateSessionRequest struct {
	Duration          int      `json:"duration" binding:"required" example:"25"`
	ParticipantIDs    []string `json:"participant_ids"`
	ParticipantEmails []string `json:"participant_emails"`
}

type RecordViolationRequest struct {
	DurationSeconds *int   `json:"duration_seconds" binding:"required" example:"42"`
	Type            string `json:"type" example:"left app"`
}

type RecordViolationResponse struct {
	Violation    *Violation `json:"violation"`
	Catastrophic bool       `json:"catastrophic"`
}

type ReasonRequest struct {
	Reason string `json:"reason" example:"Phone call"`
}

type ReportResponse struct {
	Report  services.Report `json:"report"`
	User    *User           `json:"user,omitempty"`
	Applied bool            `json:"applied"`
}

// CreateSession godoc
// @Summary      Create a focus session
// @Description  Create a pending session hosted by the caller and allocate a join code
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateSessionRequest true "Session data"
// @Success      201 {object} Session
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /api/v1/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.userService.RequireUsers(ctx, req.ParticipantIDs); err != nil {
		respondError(c, err)
		return
	}
	invited, err := h.userService.ResolveEmails(ctx, req.ParticipantEmails)
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.sessionService.Create(ctx, currentUser(c), append(req.ParticipantIDs, invited...), req.Duration)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession godoc
// @Summary      Get a session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} Session
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// Leave godoc
// @Summary      Leave a pending session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} Session
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/leave [post]
func (h *SessionHandler) Leave(c *gin.Context) {
	session, err := h.sessionService.Leave(c.Request.Context(), c.Param("id"), currentUser(c))
	h.respondSession(c, session, err)
}

// Cancel godoc
// @Summary      Cancel a pending session
// @Description  Host only
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} Session
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	session, err := h.sessionService.Cancel(c.Request.Context(), c.Param("id"), currentUser(c))
	h.respondSession(c, session, err)
}

// Start godoc
// @Summary      Start a pending session
// @Description  Host only
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} Session
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/start [post]
func (h *SessionHandler) Start(c *gin.Context) {
	session, err := h.sessionService.Start(c.Request.Context(), c.Param("id"), currentUser(c))
	h.respondSession(c, session, err)
}

// RecordViolation godoc
// @Summary      Record an absence
// @Description  Append a violation for the caller. A catastrophic result does not end the session.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Param        request body RecordViolationRequest true "Violation"
// @Success      201 {object} RecordViolationResponse
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/violations [post]
func (h *SessionHandler) RecordViolation(c *gin.Context) {
	var req RecordViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	v, catastrophic, err := h.sessionService.RecordViolation(c.Request.Context(), c.Param("id"), currentUser(c), *req.DurationSeconds, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, RecordViolationResponse{Violation: v, Catastrophic: catastrophic})
}

// EndEarly godoc
// @Summary      End an active session
// @Description  Succeeds only if the target was reached within the absence budget
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Param        request body ReasonRequest false "Reason"
// @Success      200 {object} Session
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/end [post]
func (h *SessionHandler) EndEarly(c *gin.Context) {
	var req ReasonRequest
	if !bindOptional(c, &req) {
		return
	}
	session, err := h.sessionService.EndEarly(c.Request.Context(), c.Param("id"), currentUser(c), req.Reason)
	h.respondSession(c, session, err)
}

// Complete godoc
// @Summary      Complete a session at its target
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} Session
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/complete [post]
func (h *SessionHandler) Complete(c *gin.Context) {
	session, err := h.sessionService.AutoComplete(c.Request.Context(), c.Param("id"), currentUser(c))
	h.respondSession(c, session, err)
}

// Terminate godoc
// @Summary      Terminate an active session as failed
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Param        request body ReasonRequest false "Cause"
// @Success      200 {object} Session
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/terminate [post]
func (h *SessionHandler) Terminate(c *gin.Context) {
	var req ReasonRequest
	if !bindOptional(c, &req) {
		return
	}
	session, err := h.sessionService.Terminate(c.Request.Context(), c.Param("id"), currentUser(c), req.Reason)
	h.respondSession(c, session, err)
}

// GetReport godoc
// @Summary      Session report
// @Description  Per-participant absence breakdown
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} ReportResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/report [get]
func (h *SessionHandler) GetReport(c *gin.Context) {
	session, err := h.sessionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReportResponse{Report: services.BuildReport(session)})
}

// ApplyOutcome godoc
// @Summary      Credit a finished session
// @Description  Fold the session's outcome into the caller's statistics once, then return the report
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200 {object} ReportResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/report [post]
func (h *SessionHandler) ApplyOutcome(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := c.Param("id")

	user, applied, err := h.statsService.ApplyOutcome(ctx, currentUser(c), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	session, err := h.sessionService.Get(ctx, sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReportResponse{
		Report:  services.BuildReport(session),
		User:    user,
		Applied: applied,
	})
}

func (h *SessionHandler) respondSession(c *gin.Context, session *models.Session, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// bindOptional binds a JSON body when one was sent.
func bindOptional(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}
