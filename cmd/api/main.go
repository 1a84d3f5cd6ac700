package main

import (
	"context"
	"os"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/mealpoint/kiosk-api/internal/cache"
	"github.com/mealpoint/kiosk-api/internal/config"
	"github.com/mealpoint/kiosk-api/internal/db"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/repository"
	"github.com/mealpoint/kiosk-api/internal/router"
	"github.com/mealpoint/kiosk-api/internal/service"
	"go.uber.org/zap"
)

// init is called before the main function.
func init() {
	// Initialize structured logger (dev mode if GIN_MODE != release)
	isDev := os.Getenv("GIN_MODE") != "release"
	logger.Init(isDev)

	// Configure the runtime
	ConfigureRuntime()
}

// Entry point for the API.
func main() {
	defer logger.Sync()

	// Load the config
	var cfg *config.Config
	if c, err := config.LoadConfig(); err != nil {
		logger.Get().Fatal("failed to load config", zap.Error(err))
	} else {
		cfg = c
	}

	// Check that all ENV variables are set
	if err := cfg.CheckConfigEnvFields(); err != nil {
		logger.Get().Fatal("missing required config fields", zap.Error(err))
	}

	// Load prompts from YAML
	prompts, err := config.LoadPrompts("configs/prompts.yaml")
	if err != nil {
		logger.Get().Fatal("failed to load prompts", zap.Error(err))
	}
	cfg.Prompts = prompts

	// Connect to the database
	database, err := db.New(cfg)
	if err != nil {
		logger.Get().Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := database.DB()
	if err != nil {
		logger.Get().Fatal("failed to get underlying sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// Connect to Redis for the catalog snapshot. The kiosk can run without
	// it; lookups fall through to Postgres.
	catalogCache, err := cache.NewCatalogCache(cfg.EnvVars.RedisAddr, cfg.EnvVars.RedisPassword)
	if err != nil {
		logger.Get().Warn("redis unavailable, catalog snapshot disabled", zap.Error(err))
		catalogCache = nil
	} else {
		defer catalogCache.Close()
	}

	// Seed the default catalog on first boot
	catalogService := service.NewCatalogService(cfg, repository.NewCatalogRepository(database), catalogCache)
	if err := catalogService.SeedDefaults(context.Background()); err != nil {
		logger.Get().Fatal("failed to seed catalog", zap.Error(err))
	}

	// Create a new gin router
	gin.SetMode(gin.ReleaseMode)
	r := router.SetupRouter(cfg, database, catalogCache)

	// Run the server
	logger.Get().Info("starting server", zap.String("port", cfg.EnvVars.Port))
	r.Run(":" + cfg.EnvVars.Port)
}

// ConfigureRuntime sets the number of operating system threads.
func ConfigureRuntime() {
	nuCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(nuCPU)
	logger.Get().Info("runtime configured", zap.Int("cpus", nuCPU))
}
