package main

import (
	"recipe-service/internal/handler"
	"recipe-service/internal/middleware"
	"recipe-service/pkg/config"
	"recipe-service/pkg/database"
	"recipe-service/pkg/logger"
	"recipe-service/pkg/storage"
	"recipe-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	log := logger.GetLogger()
	log.Info("Starting recipe service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	dbConfig := database.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	}
	if err := database.Initialize(dbConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize media storage
	if err := storage.Initialize(cfg.Media.Root); err != nil {
		log.Fatal("Failed to initialize media storage", zap.Error(err))
	}
	log.Info("Media storage initialized", zap.String("root", cfg.Media.Root))

	// Initialize handler configuration
	handler.InitUserHandler(cfg)
	handler.InitRecipeHandler(cfg)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(prometheus.MetricsMiddleware())

	handler.RegisterRoutes(e)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
