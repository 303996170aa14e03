package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"marketlens_backend/services"
	"marketlens_backend/services/archive"
	"marketlens_backend/services/realtime"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminController exposes operational actions for administrators
type AdminController struct {
	db          *gorm.DB
	instruments *services.InstrumentService
}

// NewAdminController creates a new admin controller
func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{
		db:          db,
		instruments: services.NewInstrumentService(db),
	}
}

// SeedUniverse seeds the default instrument universe
// POST /api/v1/admin/seed-universe
func (ac *AdminController) SeedUniverse(c *gin.Context) {
	if err := ac.instruments.SeedUniverse(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "seeded"})
}

// StartSync kicks off a full bar sync in the background
// POST /api/v1/admin/sync/start
func (ac *AdminController) StartSync(c *gin.Context) {
	if services.GlobalSyncService.IsRunning() {
		c.JSON(http.StatusConflict, gin.H{"error": "Sync already in progress"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if err := services.GlobalSyncService.RunFullSync(ctx); err != nil {
			log.Printf("Background sync failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// StopSync requests a running sync to stop
// POST /api/v1/admin/sync/stop
func (ac *AdminController) StopSync(c *gin.Context) {
	services.GlobalSyncService.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopping"})
}

// GetSyncProgress returns the current sync progress
// GET /api/v1/admin/sync/progress
func (ac *AdminController) GetSyncProgress(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": services.GlobalSyncService.GetProgress()})
}

// RefreshQuotes forces an immediate quote refresh
// POST /api/v1/admin/quotes/refresh
func (ac *AdminController) RefreshQuotes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 45*time.Second)
	defer cancel()

	if err := services.GlobalSyncService.SyncQuotes(ctx); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

// EnrichInstruments updates instrument metadata from live quotes
// POST /api/v1/admin/instruments/enrich
func (ac *AdminController) EnrichInstruments(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	if err := ac.instruments.EnrichFromQuotes(ctx); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "enriched"})
}

// GetRecentSyncs returns the archived sync audit trail
// GET /api/v1/admin/sync/history?limit=20
func (ac *AdminController) GetRecentSyncs(c *gin.Context) {
	if !archive.GlobalArchive.Enabled() {
		c.JSON(http.StatusOK, gin.H{"data": []interface{}{}, "archive_enabled": false})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := archive.RecentSyncs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query sync history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "archive_enabled": true})
}

// GetSystemStatus reports service-level status for the ops dashboard
// GET /api/v1/admin/status
func (ac *AdminController) GetSystemStatus(c *gin.Context) {
	status := gin.H{
		"bar_store_symbols": services.GlobalBarStore.Count(),
		"sync":              services.GlobalSyncService.GetProgress(),
		"archive_enabled":   archive.GlobalArchive.Enabled(),
	}
	if last := services.GlobalBarStore.LastSyncAt(); last != nil {
		status["last_sync_at"] = last.Format(time.RFC3339)
	}
	if realtime.GlobalHub != nil {
		status["websocket_clients"] = realtime.GlobalHub.ClientCount()
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}
