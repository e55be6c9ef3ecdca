package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"linkup/backend/internal/auth"
	"linkup/backend/internal/config"
	"linkup/backend/internal/database"
	"linkup/backend/internal/handler"
	"linkup/backend/internal/ledger"
	"linkup/backend/internal/relay"
	"linkup/backend/internal/store"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "linkup/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           LinkUp API
// @version         1.0
// @description     This is the API for the LinkUp meetup service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db := database.Connect(config.AppConfig.DatabaseURL)
	st := store.NewGorm(db)
	ld := ledger.New(st)

	hub := relay.NewHub(config.AppConfig.HeartbeatInterval)
	go hub.Run(ctx)

	h := handler.New(st, ld, hub)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Relay channel; unauthenticated, room-scoped by join frames.
	router.GET("/ws", gin.WrapF(hub.ServeWS))

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/register", h.Register)
			authRoutes.POST("/login", h.Login)
		}

		// Lobby routes (protected)
		lobbyRoutes := apiV1.Group("/lobbies")
		lobbyRoutes.Use(auth.Middleware(st))
		{
			lobbyRoutes.POST("", h.CreateLobby)
			lobbyRoutes.GET("", h.ListLobbies)
			lobbyRoutes.GET("/:id", h.GetLobby)
			lobbyRoutes.PUT("/:id", h.UpdateLobby)
			lobbyRoutes.DELETE("/:id", h.DeleteLobby)

			lobbyRoutes.GET("/:id/members", h.ListMembers)
			lobbyRoutes.POST("/:id/members", h.JoinLobby)
			lobbyRoutes.DELETE("/:id/members", h.LeaveLobby)

			lobbyRoutes.GET("/:id/chat", h.GetChat)
			lobbyRoutes.POST("/:id/chat", h.PostChat)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.Middleware(st))
		{
			userRoutes.GET("/me/lobbies", h.MyLobbies)
		}

		// Profile routes (protected)
		profileRoutes := apiV1.Group("")
		profileRoutes.Use(auth.Middleware(st))
		{
			profileRoutes.GET("/profile", h.GetProfile)
			profileRoutes.PUT("/profile", h.UpdateProfile)
			profileRoutes.GET("/profiles/:userName", h.GetPublicProfile)
		}
	}

	srv := &http.Server{
		Addr:    config.AppConfig.ServerAddr,
		Handler: router,
	}

	go func() {
		log.Printf("Server is running on %s", config.AppConfig.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
