package middleware

import (
	"net/http"
	"strings"

	"github.com/tzheng846/studyWme/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
)

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// JWTAuth requires a bearer token and stores the caller's identity in the
// context.
func JWTAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required", "code": "unauthorized"})
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format", "code": "unauthorized"})
			return
		}

		authenticate(c, authService, token)
	}
}

// FlexAuth also accepts the token as a ?token= query parameter, for
// WebSocket clients that cannot set headers.
func FlexAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required", "code": "unauthorized"})
			return
		}

		authenticate(c, authService, token)
	}
}

func authenticate(c *gin.Context, authService *services.AuthService, token string) {
	identity, err := authService.ValidateToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "code": "unauthorized"})
		return
	}

	c.Set(ContextUserID, identity.UserID)
	c.Set(ContextEmail, identity.Email)
	c.Next()
}
