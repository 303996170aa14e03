package routes

import (
	"marketlens_backend/controllers"
	"marketlens_backend/middleware"
	"marketlens_backend/services/realtime"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes sets up all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB) {
	// Initialize controllers
	userController := controllers.NewUserController(db)
	instrumentController := controllers.NewInstrumentController(db)
	marketController := controllers.NewMarketController(db)
	watchlistController := controllers.NewWatchlistController(db)
	alertController := controllers.NewAlertController(db)
	portfolioController := controllers.NewPortfolioController(db)
	adminController := controllers.NewAdminController(db)

	// API v1 group
	api := router.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", userController.Register)
			auth.POST("/login", middleware.LoginRateLimitMiddleware(), userController.Login)
			auth.GET("/me", middleware.JWTAuthMiddleware(), userController.Me)
			auth.PUT("/preferences", middleware.JWTAuthMiddleware(), userController.UpdatePreferences)
		}

		// Instrument routes
		instruments := api.Group("/instruments")
		{
			instruments.GET("", instrumentController.GetInstruments)
			instruments.GET("/search", instrumentController.SearchInstruments)
			instruments.GET("/:id", instrumentController.GetInstrument)
		}

		// Market data and analytics tables
		market := api.Group("/market")
		{
			market.GET("/provider", marketController.GetProviderStatus)
			market.GET("/indices", marketController.GetIndices)
			market.GET("/performance", marketController.GetPerformance)
			market.GET("/movers/:kind", marketController.GetMovers)
			market.GET("/movers/:kind/history", marketController.GetMoversHistory)
			market.GET("/cache-stats", marketController.GetCacheStats)
			market.POST("/screener", marketController.Screen)

			market.GET("/:symbol/quote", marketController.GetQuote)
			market.GET("/:symbol/bars", marketController.GetBars)
			market.GET("/:symbol/indicators", marketController.GetIndicators)
			market.GET("/:symbol/summary", marketController.GetSummary)
			market.GET("/:symbol/performance-history", marketController.GetPerformanceHistory)
		}

		// Watchlist routes (authenticated)
		watchlists := api.Group("/watchlists", middleware.JWTAuthMiddleware())
		{
			watchlists.GET("", watchlistController.GetWatchlists)
			watchlists.POST("", watchlistController.CreateWatchlist)
			watchlists.DELETE("/:id", watchlistController.DeleteWatchlist)
			watchlists.GET("/:id/table", watchlistController.GetTable)
			watchlists.POST("/:id/entries", watchlistController.AddEntry)
			watchlists.DELETE("/:id/entries/:entryId", watchlistController.RemoveEntry)
		}

		// Alert routes (authenticated)
		alerts := api.Group("/alerts", middleware.JWTAuthMiddleware())
		{
			alerts.GET("", alertController.GetAlerts)
			alerts.POST("", alertController.CreateAlert)
			alerts.PUT("/:id", alertController.UpdateAlert)
			alerts.DELETE("/:id", alertController.DeleteAlert)
		}

		// Portfolio routes (authenticated)
		portfolios := api.Group("/portfolios", middleware.JWTAuthMiddleware())
		{
			portfolios.GET("", portfolioController.GetPortfolios)
			portfolios.POST("", portfolioController.CreatePortfolio)
			portfolios.DELETE("/:id", portfolioController.DeletePortfolio)
			portfolios.GET("/:id/valuation", portfolioController.GetValuation)
			portfolios.POST("/:id/holdings", portfolioController.UpsertHolding)
			portfolios.DELETE("/:id/holdings/:holdingId", portfolioController.RemoveHolding)
		}

		// Admin routes (authenticated, admin role)
		admin := api.Group("/admin", middleware.JWTAuthMiddleware(), middleware.RequireRole("admin"))
		{
			admin.GET("/status", adminController.GetSystemStatus)
			admin.POST("/seed-universe", adminController.SeedUniverse)
			admin.POST("/sync/start", adminController.StartSync)
			admin.POST("/sync/stop", adminController.StopSync)
			admin.GET("/sync/progress", adminController.GetSyncProgress)
			admin.GET("/sync/history", adminController.GetRecentSyncs)
			admin.POST("/quotes/refresh", adminController.RefreshQuotes)
			admin.POST("/instruments/enrich", adminController.EnrichInstruments)
		}
	}

	// Realtime quote stream
	router.GET("/ws/quotes", func(c *gin.Context) {
		if realtime.GlobalHub == nil {
			c.JSON(503, gin.H{"error": "Realtime service not available"})
			return
		}
		realtime.GlobalHub.HandleWebSocket(c.Writer, c.Request)
	})
}
