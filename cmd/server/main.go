package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tzheng846/studyWme/internal/config"
	"github.com/tzheng846/studyWme/internal/database"
	"github.com/tzheng846/studyWme/internal/handlers"
	"github.com/tzheng846/studyWme/internal/services"
	"github.com/tzheng846/studyWme/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// @title           Focus Session API
// @version         1.0
// @description     Group focus sessions with shared absence budgets
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	hub := ws.NewHub()

	codes := services.NewRoomCodeAllocator(db, cfg.RoomCodeAttempts)
	sessionService := services.NewSessionService(db, codes, hub, nil)
	svc := handlers.Services{
		Auth:      services.NewAuthService(db, cfg.JWTSecret),
		Users:     services.NewUserService(db),
		Sessions:  sessionService,
		Directory: services.NewDirectoryService(db, codes),
		Stats:     services.NewStatsService(db, nil),
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Retry-After"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, handlers.MessageResponse{Message: "ok"})
	})
	handlers.RegisterRoutes(r, svc)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("server starting on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Println("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.SweepInterval > 0 {
		sweeper := services.NewDeadlineSweeper(sessionService, cfg.SweepInterval)
		g.Go(func() error {
			return sweeper.Run(ctx)
		})
	} else {
		log.Println("DEADLINE_SWEEP_INTERVAL not set, deadline sweeper disabled")
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
