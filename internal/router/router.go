package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/souschef-app/souschef-api/internal/ai"
	"github.com/souschef-app/souschef-api/internal/config"
	"github.com/souschef-app/souschef-api/internal/handlers"
	"github.com/souschef-app/souschef-api/internal/logger"
	"github.com/souschef-app/souschef-api/internal/middleware"
	"github.com/souschef-app/souschef-api/internal/realtime"
	"github.com/souschef-app/souschef-api/internal/repository"
	"github.com/souschef-app/souschef-api/internal/s3"
	"github.com/souschef-app/souschef-api/internal/scraper"
	"github.com/souschef-app/souschef-api/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter sets up the Gin router.
func SetupRouter(cfg *config.Config, database *gorm.DB) *gin.Engine {
	// Create default Gin router
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowCredentials = true
	corsConfig.AllowOrigins = []string{
		"https://api.souschef.app",
		"https://souschef.app",
		"https://www.souschef.app",
	}
	r.Use(cors.New(corsConfig))

	// Add request ID middleware for request correlation
	r.Use(logger.RequestIDMiddleware())

	// Ping route for testing
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// User-related routes setup
	userRepo := repository.NewUserRepository(database)
	userService := service.NewUserService(cfg, userRepo)
	userHandler := handlers.NewUserHandler(userService)

	// AI provider setup
	visionProvider, err := ai.NewGeminiProvider(context.Background(), cfg.EnvVars.GeminiAPIKey, cfg.Prompts)
	if err != nil {
		logger.Get().Fatal("failed to initialize vision provider", zap.Error(err))
	}
	textProvider := ai.NewAnthropicProvider(cfg.EnvVars.AnthropicAPIKey, cfg.Prompts)
	var speechProvider ai.SpeechProvider
	if cfg.EnvVars.OpenAIAPIKey != "" {
		speechProvider = ai.NewWhisperProvider(cfg.EnvVars.OpenAIAPIKey)
	}

	// Realtime recipe feed
	hub := realtime.NewHub()
	go hub.Run()
	feedHandler := realtime.NewFeedHandler(hub, cfg.EnvVars.JwtSecretKey)

	// Recipe-related routes setup
	recipeRepo := repository.NewRecipeRepository(database)
	recipeService := service.NewRecipeService(cfg, recipeRepo, feedHandler)
	recipeHandler := handlers.NewRecipeHandler(recipeService)

	// Subscription setup
	subService := service.NewSubscriptionService(cfg, userRepo)
	subHandler := handlers.NewSubscriptionHandler(subService)

	// Import pipeline setup
	importService := service.NewImportService(recipeRepo, scraper.New(), visionProvider, s3.NewStore(cfg), subService, feedHandler)
	importHandler := handlers.NewImportHandler(importService)

	// Voice pipeline setup
	voiceService := service.NewVoiceService(visionProvider, speechProvider, textProvider)
	voiceHandler := handlers.NewVoiceHandler(voiceService)

	// Cooking session setup
	sessionRepo := repository.NewSessionRepository(database)
	sessionService := service.NewSessionService(sessionRepo, recipeRepo)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	// Group for API routes that don't require token verification
	apiPublic := r.Group("/v1")
	{
		// Create a new user
		apiPublic.POST("/users", userHandler.CreateUser)
		// Login a user
		apiPublic.POST("/auth/login", userHandler.LoginUser)
		// Refresh an access token
		apiPublic.POST("/auth/refresh", userHandler.RefreshToken)
	}

	// Group for API routes that require token verification
	apiProtected := r.Group("/v1")
	{
		apiProtected.Use(middleware.VerifyTokenMiddleware(cfg))
		apiProtected.Use(middleware.AttachUserToContext(userService))

		// User-related routes
		apiProtected.GET("/users/verify", userHandler.VerifyToken)
		apiProtected.GET("/users/me", userHandler.GetUserByID)

		// Recipe-related routes
		apiProtected.GET("/recipes", recipeHandler.ListRecipes)
		apiProtected.GET("/recipes/:recipe_id", recipeHandler.GetRecipe)
		apiProtected.DELETE("/recipes/:recipe_id", recipeHandler.DeleteRecipe)

		// Recipe import routes. URL imports are synchronous and rate-limited
		// harder than the rest of the API; photo imports return a
		// placeholder and finish over the feed.
		apiProtected.POST("/recipes/import/url", middleware.RateLimitByIP(5, 10*time.Minute, time.Hour), importHandler.ImportFromURL)
		apiProtected.POST("/recipes/import/photos", middleware.RateLimitByIP(5, 10*time.Minute, time.Hour), importHandler.ImportFromPhotos)

		// Voice and cooking Q&A routes
		apiProtected.POST("/voice/process", voiceHandler.ProcessVoice)
		apiProtected.POST("/assistant/ask", voiceHandler.AskAssistant)

		// Cooking session routes
		apiProtected.GET("/sessions/resume", sessionHandler.ResumeSession)
		apiProtected.POST("/sessions/:recipe_id", sessionHandler.GetOrCreateSession)
		apiProtected.PUT("/sessions/:recipe_id/step", sessionHandler.UpdateStep)
		apiProtected.PUT("/sessions/:recipe_id/chat", sessionHandler.UpdateChat)
		apiProtected.POST("/sessions/:recipe_id/finish", sessionHandler.FinishSession)
		apiProtected.POST("/sessions/:recipe_id/cook-again", sessionHandler.CookAgain)

		// Subscription routes
		apiProtected.GET("/subscription", subHandler.GetSubscription)
		apiProtected.POST("/subscription/purchase", subHandler.PurchaseSubscription)
		apiProtected.POST("/subscription/restore", subHandler.RestoreSubscription)
	}

	// Internal routes, fenced by the service identifier header rather than
	// user tokens.
	apiInternal := r.Group("/v1/internal")
	{
		apiInternal.Use(middleware.CheckIDHeader(cfg.EnvVars.ServiceIdentifier))
		apiInternal.POST("/process-cookbook", importHandler.ProcessCookbook)
	}

	// WebSocket routes (authenticated via query param token)
	r.GET("/v1/ws/recipes", feedHandler.HandleFeed)

	return r
}
