package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/tzheng846/studyWme/internal/middleware"
	"github.com/tzheng846/studyWme/internal/models"
	"github.com/tzheng846/studyWme/internal/services"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
	Code  string `json:"code" example:"illegal_transition"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// Type aliases so swag can resolve models in annotations.
type Session = models.Session
type Violation = models.Violation
type User = models.User

const retryAfterSeconds = "1"

// respondError maps a service error onto a status and machine-readable code.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, services.ErrValidation):
		status, code = http.StatusBadRequest, "invalid_request"
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrSessionClosed):
		status, code = http.StatusConflict, "session_closed"
	case errors.Is(err, services.ErrSessionNotJoinable):
		status, code = http.StatusConflict, "not_joinable"
	case errors.Is(err, services.ErrTargetNotReached):
		status, code = http.StatusConflict, "target_not_reached"
	case errors.Is(err, services.ErrIllegalTransition):
		status, code = http.StatusConflict, "illegal_transition"
	case errors.Is(err, services.ErrAllocationExhausted):
		status, code = http.StatusServiceUnavailable, "allocation_exhausted"
		c.Header("Retry-After", retryAfterSeconds)
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrConcurrentUpdate):
		code = "concurrent_update"
	}

	if status == http.StatusInternalServerError {
		log.Printf("http: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_request"})
}

func currentUser(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}
