package main

import (
	"fmt"
	"os"

	"debtbook/internal/config"
	"debtbook/internal/database"
	"debtbook/internal/events"
	"debtbook/internal/logger"
	"debtbook/internal/server"

	"github.com/gin-gonic/gin"
)

// @title           Debtbook API
// @version         1.0
// @description     Debtbook tracks money borrowed from, lent to and repaid by the people around you, with recurring transactions and spending statistics.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := appConfig.Validate(); err != nil {
		return err
	}
	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	publisher, err := events.NewPublisher(appConfig.AMQPURL, appConfig.AMQPExchange)
	if err != nil {
		log.Warnw("Failed to initialize AMQP publisher, continuing without events", "error", err)
		publisher = events.NopPublisher{}
	}
	defer publisher.Close()

	router := server.NewRouter(appConfig, dbManager.DB(), publisher)

	log.Infof("Starting Debtbook server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
