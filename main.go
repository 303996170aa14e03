package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"marketlens_backend/config"
	"marketlens_backend/middleware"
	"marketlens_backend/models"
	"marketlens_backend/routes"
	"marketlens_backend/scheduler"
	"marketlens_backend/services"
	"marketlens_backend/services/archive"
	"marketlens_backend/services/marketdata"
	"marketlens_backend/services/realtime"
	"marketlens_backend/services/snapshot"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// dbInitialized tracks whether database has been successfully initialized
// This global variable is used for thread-safe access across goroutines to allow
// the /ready health endpoint to dynamically check database status
var dbInitialized bool
var dbInitMutex sync.RWMutex

// jobScheduler is assigned by the background init goroutine and read during
// shutdown, so access goes through the mutex like dbInitialized above
var jobScheduler *scheduler.Scheduler
var jobSchedulerMutex sync.Mutex

func setJobScheduler(s *scheduler.Scheduler) {
	jobSchedulerMutex.Lock()
	jobScheduler = s
	jobSchedulerMutex.Unlock()
}

func currentJobScheduler() *scheduler.Scheduler {
	jobSchedulerMutex.Lock()
	defer jobSchedulerMutex.Unlock()
	return jobScheduler
}

func main() {
	log.Println("==============================================")
	log.Printf("  %s - Starting...", config.AppName)
	log.Println("==============================================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Warning: Config load issue: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middlewares
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestLogger())

	// Setup health check endpoints FIRST so orchestrators can detect the service is up
	// Database and market data provider will be initialized in background
	setupHealthEndpoints(router)

	// Create HTTP server with timeouts for container deployments
	// Bind to 0.0.0.0 explicitly for container networking
	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	// Start server IMMEDIATELY so the platform knows we're listening
	go func() {
		log.Printf("Server listening on 0.0.0.0:%s", cfg.Port)
		log.Println("==============================================")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Initialize database, provider and routes in background
	go func() {
		// Initialize database connection
		db, err := config.InitDB()
		if err != nil {
			log.Printf("ERROR: Database connection failed: %v", err)
			log.Println("Service will continue in limited mode (health check only)")
			return
		}

		// Run database migrations
		log.Println("Running database migrations...")
		if err := runMigrations(); err != nil {
			log.Printf("ERROR: Migration failed: %v", err)
		} else {
			log.Println("Database migrations completed successfully")
		}

		// Seed default admin user
		if err := models.SeedDefaultAdminUser(config.DB); err != nil {
			log.Printf("Warning: Could not seed admin user: %v", err)
		}

		// Initialize global services
		initializeGlobalServices(db)

		// Mark database as ready
		dbInitMutex.Lock()
		dbInitialized = true
		dbInitMutex.Unlock()

		// Setup all API routes
		routes.SetupRoutes(router, db)

		// Start background scheduler
		jobs := scheduler.NewScheduler(db)
		setJobScheduler(jobs)
		go jobs.Start()

		log.Println("Application fully initialized with database")
	}()

	// Graceful shutdown
	gracefulShutdown(server)
}

// runMigrations runs all database migrations
func runMigrations() error {
	db := config.DB

	// Migrate instrument and price models
	if err := models.MigrateInstrumentModels(db); err != nil {
		return err
	}

	// Migrate user models
	if err := models.MigrateUserModels(db); err != nil {
		return err
	}

	// Migrate watchlist models
	if err := models.MigrateWatchlistModels(db); err != nil {
		return err
	}

	// Migrate alert models
	if err := models.MigrateAlertModels(db); err != nil {
		return err
	}

	// Migrate portfolio models
	if err := models.MigratePortfolioModels(db); err != nil {
		return err
	}

	return nil
}

// initializeGlobalServices initializes global service instances
func initializeGlobalServices(db *gorm.DB) {
	cfg := config.AppConfig

	// Market data provider is probed at startup. A failed probe leaves the
	// registry in a disabled state and the service keeps running without
	// live data, mirroring how the rest of the stack degrades.
	marketdata.Init(cfg.ProviderName)
	if !marketdata.GlobalRegistry.Available() {
		log.Println("Market data provider unavailable, live endpoints will report degraded status")
	}

	// Local snapshot store for end-of-day analytics tables
	if err := snapshot.Init(cfg.SnapshotDBPath); err != nil {
		log.Printf("Warning: Snapshot store unavailable: %v", err)
	}

	// MongoDB archive for sync audit records, optional
	if err := archive.Init(cfg.MongoURI, cfg.MongoDatabase); err != nil {
		log.Printf("MongoDB not configured or failed to connect: %v", err)
	}

	// Price sync service over the shared bar store
	services.InitPriceSyncService(db)

	// Login rate limiter
	middleware.InitLoginRateLimiter()

	// Realtime quote hub
	realtime.InitHub(services.GlobalBarStore)

	log.Println("Global services initialized")
}

// setupHealthEndpoints sets up health check endpoints
func setupHealthEndpoints(router *gin.Engine) {
	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": config.AppName,
			"version": "6.0.0",
		})
	})

	// Liveness probe - always returns OK if server is running
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// Readiness probe - checks if service is ready to receive traffic
	router.GET("/ready", func(c *gin.Context) {
		dbInitMutex.RLock()
		isDBReady := dbInitialized
		dbInitMutex.RUnlock()

		if !isDBReady {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database not connected",
			})
			return
		}

		// Check database connection
		sqlDB, err := config.DB.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database connection error",
			})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"message": "Database ping failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})

	// Startup probe - can be used for initial health check
	router.GET("/startup", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "started",
		})
	})
}

// corsMiddleware returns a CORS middleware handler
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLogger returns a request logging middleware
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip logging for health checks to reduce noise
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" || path == "/startup" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Only log errors or slow requests in production
		if c.Writer.Status() >= 400 || duration > 1*time.Second {
			log.Printf("%s %s %d %v", c.Request.Method, path, c.Writer.Status(), duration)
		}
	}
}

// gracefulShutdown handles graceful shutdown of the server
func gracefulShutdown(server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-quit
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	// Stop scheduler first; it may still be nil if background init failed
	if jobs := currentJobScheduler(); jobs != nil {
		jobs.Stop()
	}

	// Stop the realtime hub so websocket clients get close frames
	if realtime.GlobalHub != nil {
		realtime.GlobalHub.Stop()
	}

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Persist the in-memory bar store before exit
	if err := services.GlobalBarStore.SaveToFile(); err != nil {
		log.Printf("Warning: Could not persist bar store: %v", err)
	}

	// Close database connection
	if config.DB != nil {
		sqlDB, err := config.DB.DB()
		if err == nil {
			sqlDB.Close()
			log.Println("Database connection closed")
		}
	}

	// Close archive and snapshot stores
	archive.GlobalArchive.Close()
	if snapshot.GlobalStore != nil {
		snapshot.GlobalStore.Close()
	}

	log.Println("Server shutdown completed")
}
