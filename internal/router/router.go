package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mealpoint/kiosk-api/internal/ai"
	"github.com/mealpoint/kiosk-api/internal/cache"
	"github.com/mealpoint/kiosk-api/internal/config"
	"github.com/mealpoint/kiosk-api/internal/handlers"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/middleware"
	"github.com/mealpoint/kiosk-api/internal/repository"
	"github.com/mealpoint/kiosk-api/internal/service"
	"github.com/mealpoint/kiosk-api/internal/ws"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// newClassifier selects the intent classifier backend from config. Remote
// backends degrade to keyword matching internally, so "keyword" here just
// skips the network hop entirely.
func newClassifier(cfg *config.Config) ai.Classifier {
	switch cfg.EnvVars.ClassifierBackend {
	case "anthropic":
		return ai.NewAnthropicClassifier(cfg.EnvVars.AnthropicAPIKey, cfg.Prompts)
	case "keyword":
		return ai.NewKeywordClassifier()
	default:
		return ai.NewOpenAIClassifier(cfg.EnvVars.OpenAIAPIKey, cfg.Prompts)
	}
}

// SetupRouter sets up the Gin router.
func SetupRouter(cfg *config.Config, database *gorm.DB, catalogCache *cache.CatalogCache) *gin.Engine {
	// Create default Gin router
	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowCredentials = true
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://localhost:8080",
	}
	r.Use(cors.New(corsConfig))

	// Add request ID middleware for request correlation
	r.Use(logger.RequestIDMiddleware())
	r.Use(middleware.CollectHTTPMetrics())

	// Ping route for testing
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Catalog setup
	catalogRepo := repository.NewCatalogRepository(database)
	catalogService := service.NewCatalogService(cfg, catalogRepo, catalogCache)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	// Cart and order setup
	cartService := service.NewCartService()
	cartHandler := handlers.NewCartHandler(catalogService, cartService)
	orderHandler := handlers.NewOrderHandler(cartService)

	// Voice pipeline setup. Spoken responses go out over the kiosk
	// websocket room; REST clients get the same text in the response body.
	hub := ws.NewHub()
	go hub.Run()

	classifier := newClassifier(cfg)
	executor := service.NewCommandExecutor(catalogService, cartService)
	speaker := ws.NewHubSpeaker(hub, ws.DefaultSessionID)
	resolver := service.NewVoiceResolver(catalogService, classifier, executor, speaker)
	voiceHandler := handlers.NewVoiceHandler(resolver, cartService)

	adminHandler := handlers.NewAdminHandler(cfg)

	// Group for API routes that don't require token verification
	apiPublic := r.Group("/v1")
	{
		apiPublic.Use(middleware.RateLimitByIP(rate.Limit(20), 40))

		// Admin auth
		apiPublic.POST("/auth/login", adminHandler.Login)
		apiPublic.POST("/auth/refresh", adminHandler.RefreshToken)

		// Catalog (kiosk UI)
		apiPublic.GET("/catalog", catalogHandler.GetCatalog)
		apiPublic.GET("/menu-items", catalogHandler.GetMenuItems)

		// Cart (touch path)
		apiPublic.GET("/cart", cartHandler.GetCart)
		apiPublic.POST("/cart/items", cartHandler.AddItem)
		apiPublic.PUT("/cart/items/:item_id", cartHandler.UpdateQuantity)
		apiPublic.DELETE("/cart/items/:item_id", cartHandler.RemoveItem)
		apiPublic.DELETE("/cart", cartHandler.ClearCart)

		// Checkout and payment
		apiPublic.POST("/orders", orderHandler.Checkout)
		apiPublic.GET("/orders/current", orderHandler.GetCurrentOrder)
		apiPublic.POST("/orders/current/pay", orderHandler.Pay)
		apiPublic.POST("/orders/current/close", orderHandler.CloseOrder)

		// Voice pipeline (REST fallback for non-websocket clients)
		apiPublic.POST("/voice/start", voiceHandler.StartVoice)
		apiPublic.POST("/voice/stop", voiceHandler.StopVoice)
		apiPublic.POST("/voice/transcript", voiceHandler.HandleTranscript)
		apiPublic.GET("/voice/state", voiceHandler.GetVoiceState)
	}

	// Group for admin API routes that require token verification
	apiAdmin := r.Group("/v1/admin")
	{
		apiAdmin.Use(middleware.RateLimitByIP(rate.Limit(10), 20))
		apiAdmin.Use(middleware.VerifyAdminTokenMiddleware(cfg))

		// Category management
		apiAdmin.POST("/categories", catalogHandler.CreateCategory)
		apiAdmin.PUT("/categories/:category_id", catalogHandler.UpdateCategory)
		apiAdmin.DELETE("/categories/:category_id", catalogHandler.DeleteCategory)

		// Menu item management
		apiAdmin.POST("/menu-items", catalogHandler.CreateMenuItem)
		apiAdmin.PUT("/menu-items/:item_id", catalogHandler.UpdateMenuItem)
		apiAdmin.DELETE("/menu-items/:item_id", catalogHandler.DeleteMenuItem)
		apiAdmin.PUT("/menu-items/:item_id/availability", catalogHandler.SetAvailability)
		apiAdmin.POST("/menu-items/:item_id/image", catalogHandler.UploadMenuImage)

		// Kitchen-side order progression
		apiAdmin.POST("/orders/current/advance", orderHandler.AdvanceOrder)
	}

	// WebSocket route for the kiosk voice session
	kioskHandler := ws.NewKioskHandler(hub, resolver, cartService, cfg.EnvVars.SpeechLocale)
	r.GET("/v1/kiosk/ws/:session_id", kioskHandler.HandleKioskSession)

	return r
}
