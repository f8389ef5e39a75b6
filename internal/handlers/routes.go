package handlers

import (
	"github.com/tzheng846/studyWme/internal/middleware"
	"github.com/tzheng846/studyWme/internal/services"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Auth      *services.AuthService
	Users     *services.UserService
	Sessions  *services.SessionService
	Directory *services.DirectoryService
	Stats     *services.StatsService
}

func RegisterRoutes(r *gin.Engine, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users, svc.Directory)
	sessionHandler := NewSessionHandler(svc.Sessions, svc.Users, svc.Stats)
	roomHandler := NewRoomHandler(svc.Directory, svc.Sessions)
	wsHandler := NewWSHandler(svc.Sessions)

	wsGroup := r.Group("/ws")
	wsGroup.Use(middleware.FlexAuth(svc.Auth))
	{
		wsGroup.GET("/sessions/:id", wsHandler.HandleSession)
		wsGroup.GET("/users/me/sessions", wsHandler.HandleUser)
	}

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		users := api.Group("/users")
		users.Use(middleware.JWTAuth(svc.Auth))
		{
			users.GET("/me", userHandler.GetMe)
			users.GET("/me/sessions", userHandler.ListMySessions)
			users.GET("/me/active-session", userHandler.GetActiveSession)
		}

		rooms := api.Group("/rooms")
		rooms.Use(middleware.JWTAuth(svc.Auth))
		{
			rooms.GET("/:code", roomHandler.ResolveRoom)
			rooms.POST("/:code/join", roomHandler.JoinRoom)
		}

		sessions := api.Group("/sessions")
		sessions.Use(middleware.JWTAuth(svc.Auth))
		{
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.POST("/:id/leave", sessionHandler.Leave)
			sessions.POST("/:id/cancel", sessionHandler.Cancel)
			sessions.POST("/:id/start", sessionHandler.Start)
			sessions.POST("/:id/violations", sessionHandler.RecordViolation)
			sessions.POST("/:id/end", sessionHandler.EndEarly)
			sessions.POST("/:id/complete", sessionHandler.Complete)
			sessions.POST("/:id/terminate", sessionHandler.Terminate)
			sessions.GET("/:id/report", sessionHandler.GetReport)
			sessions.POST("/:id/report", sessionHandler.ApplyOutcome)
		}
	}
}
