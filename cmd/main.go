package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"razzlab/internal/auth"
	"razzlab/internal/config"
	"razzlab/internal/database"
	"razzlab/internal/handlers"
	"razzlab/internal/jobs"
	"razzlab/internal/random"
	"razzlab/internal/repository"
	"razzlab/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repository
	repo := repository.NewRepository(database.GetDB())

	// Initialize randomness provider; without an API key every draw uses the
	// local cryptographic source
	var randomOrgClient *random.RandomOrgClient
	if cfg.RandomOrg.APIKey != "" {
		randomOrgClient = random.NewRandomOrgClient(cfg.RandomOrg.APIKey, cfg.RandomOrg.URL, cfg.RandomOrg.Timeout)
		log.Println("random.org client configured")
	} else {
		log.Println("random.org not configured, draws use the local cryptographic source")
	}
	indexProvider := random.NewIndexProvider(randomOrgClient)

	// Initialize services
	authService := services.NewAuthService(database.GetDB())
	listingService := services.NewListingService(repo, database.GetDB())
	drawService := services.NewDrawService(repo, indexProvider)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	listingHandler := handlers.NewListingHandler(listingService, drawService)
	profileHandler := handlers.NewProfileHandler(listingService, authService)

	// Start the draw resolver job
	resolver := jobs.NewDrawResolver(repo, drawService, cfg.Draw.Interval)
	go resolver.Start()

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public listing routes
	router.GET("/api/listings", listingHandler.GetListings)
	router.GET("/api/listings/recent-winners", listingHandler.GetRecentWinners)
	router.GET("/api/listings/:id", listingHandler.GetListing)
	router.GET("/api/listings/:id/participants", listingHandler.GetParticipants)

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/listings", listingHandler.CreateListing)
		api.POST("/listings/:id/join", listingHandler.JoinListing)
		api.POST("/listings/:id/draw", listingHandler.DrawListing)

		profile := api.Group("/profile")
		{
			profile.GET("", profileHandler.GetProfile)
			profile.GET("/hosted", profileHandler.GetHosted)
			profile.GET("/joined", profileHandler.GetJoined)
			profile.GET("/won", profileHandler.GetWon)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop background jobs first so no draw commits mid-shutdown
	resolver.Stop()

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
