// Package server assembles the HTTP router from services and handlers.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"debtbook/internal/config"
	"debtbook/internal/events"
	"debtbook/internal/handlers"
	"debtbook/internal/middleware"
	"debtbook/internal/services"
	"debtbook/internal/validator"

	_ "debtbook/internal/docs" // Import swagger docs
)

// NewRouter wires every service and handler over db and returns the Gin engine.
func NewRouter(cfg *config.Config, db *gorm.DB, publisher events.Publisher) *gin.Engine {
	validator.Register()

	// Initialize services
	auditService := services.NewAuditService(db)
	counterpartyService := services.NewCounterpartyService(db)
	transactionService := services.NewTransactionService(db, counterpartyService)
	ledgerService := services.NewLedgerService(db, publisher, auditService)
	recurringProcessor := services.NewRecurringProcessor(ledgerService)

	// Initialize handlers
	counterpartyHandler := handlers.NewCounterpartyHandler(counterpartyService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, cfg.CurrencySymbol, cfg.StatsMonthsBack)
	recurringHandler := handlers.NewRecurringHandler(ledgerService, recurringProcessor)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Operator routes
	operator := v1.Group("/internal")
	operator.Use(middleware.ServiceAuthMiddleware(cfg.ServiceAPIKey))
	operator.POST("/recurring/run", recurringHandler.RunAll)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	counterparties := protected.Group("/counterparties")
	counterparties.POST("", counterpartyHandler.CreateCounterparty)
	counterparties.GET("", counterpartyHandler.GetUserCounterparties)
	counterparties.GET("/:id", counterpartyHandler.GetCounterpartyByID)
	counterparties.PUT("/:id", counterpartyHandler.UpdateCounterparty)
	counterparties.DELETE("/:id", counterpartyHandler.DeleteCounterparty)
	counterparties.GET("/:id/outstanding", ledgerHandler.GetOutstanding)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.GET("/:id/debt", ledgerHandler.GetDebtDetail)

	ledgerRoutes := protected.Group("/ledger")
	ledgerRoutes.GET("/summaries", ledgerHandler.GetSummaries)
	ledgerRoutes.GET("/summaries/extended", ledgerHandler.GetExtendedSummaries)
	ledgerRoutes.GET("/totals", ledgerHandler.GetTotals)

	statistics := protected.Group("/statistics")
	statistics.GET("/monthly", ledgerHandler.GetMonthlyStatistics)
	statistics.GET("/counterparties", ledgerHandler.GetFriendStatistics)
	statistics.GET("/categories", ledgerHandler.GetCategoryStatistics)
	statistics.GET("/expenses", ledgerHandler.GetExpenseSummary)

	recurring := protected.Group("/recurring")
	recurring.GET("", recurringHandler.GetTemplates)
	recurring.POST("/process", recurringHandler.ProcessRecurring)

	return router
}
