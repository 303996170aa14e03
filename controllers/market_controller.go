package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketlens_backend/models"
	"marketlens_backend/services"
	"marketlens_backend/services/analytics"
	"marketlens_backend/services/marketdata"
	"marketlens_backend/services/quotecache"
	"marketlens_backend/services/snapshot"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MarketController serves quotes, bars, indicators and analytics tables
type MarketController struct {
	db           *gorm.DB
	tableService *analytics.TableService
	screener     *analytics.Screener
	instruments  *services.InstrumentService
}

// NewMarketController creates a new market controller
func NewMarketController(db *gorm.DB) *MarketController {
	return &MarketController{
		db:           db,
		tableService: analytics.NewTableService(services.GlobalBarStore),
		screener:     analytics.NewScreener(db, services.GlobalBarStore),
		instruments:  services.NewInstrumentService(db),
	}
}

// GetProviderStatus reports market data provider availability
// GET /api/v1/market/provider
func (mc *MarketController) GetProviderStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"provider":  marketdata.GlobalRegistry.Provider().Name(),
		"available": marketdata.GlobalRegistry.Available(),
	})
}

// GetQuote returns the latest quote for a symbol, served from the cache when
// fresh and falling back to the provider, then to the last stored quote
// GET /api/v1/market/:symbol/quote
func (mc *MarketController) GetQuote(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	if quote, ok := quotecache.GlobalCache.Get(symbol); ok {
		c.JSON(http.StatusOK, gin.H{"data": quote, "source": "cache"})
		return
	}

	if marketdata.GlobalRegistry.Available() {
		quote, err := marketdata.GlobalRegistry.Provider().Quote(c.Request.Context(), symbol)
		if err == nil {
			quotecache.GlobalCache.Set(*quote)
			services.GlobalBarStore.SetQuote(*quote)
			c.JSON(http.StatusOK, gin.H{"data": quote, "source": "provider"})
			return
		}
	}

	if quote, ok := services.GlobalBarStore.GetQuote(symbol); ok {
		c.JSON(http.StatusOK, gin.H{"data": quote, "source": "store", "stale": true})
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "No quote data for " + symbol})
}

// GetBars returns the stored daily bars for a symbol
// GET /api/v1/market/:symbol/bars?days=90
func (mc *MarketController) GetBars(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	days, _ := strconv.Atoi(c.DefaultQuery("days", "90"))

	bars := services.GlobalBarStore.GetBars(symbol)
	if len(bars) == 0 {
		// Fall back to Postgres history
		var instrument models.Instrument
		if err := mc.db.Where("symbol = ?", symbol).First(&instrument).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Instrument not found"})
			return
		}

		var rows []models.PriceBar
		if err := mc.db.Where("instrument_id = ?", instrument.ID).
			Order("date DESC").Limit(days).Find(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bars"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows, "source": "database"})
		return
	}

	if days > 0 && len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	c.JSON(http.StatusOK, gin.H{"data": bars, "source": "store"})
}

// GetIndicators returns stored indicator values for a symbol
// GET /api/v1/market/:symbol/indicators?type=RSI
func (mc *MarketController) GetIndicators(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	var instrument models.Instrument
	if err := mc.db.Where("symbol = ?", symbol).First(&instrument).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Instrument not found"})
		return
	}

	query := mc.db.Where("instrument_id = ?", instrument.ID)
	if indicatorType := c.Query("type"); indicatorType != "" {
		query = query.Where("type = ?", strings.ToUpper(indicatorType))
	}

	var indicators []models.IndicatorValue
	if err := query.Order("date DESC").Limit(200).Find(&indicators).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch indicators"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": indicators})
}

// GetSummary returns descriptive statistics for a symbol
// GET /api/v1/market/:symbol/summary
func (mc *MarketController) GetSummary(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	row, err := mc.tableService.Summary(symbol)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": row})
}

// GetIndices returns the latest benchmark index rows
// GET /api/v1/market/indices
func (mc *MarketController) GetIndices(c *gin.Context) {
	indices, err := mc.instruments.LatestIndices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch indices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": indices})
}

// GetMovers returns the gainers/losers/most-active table
// GET /api/v1/market/movers/:kind?limit=10
func (mc *MarketController) GetMovers(c *gin.Context) {
	kind := c.Param("kind")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	rows, err := mc.tableService.TopMovers(kind, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetPerformance returns the multi-window performance table
// GET /api/v1/market/performance
func (mc *MarketController) GetPerformance(c *gin.Context) {
	rows := mc.tableService.PerformanceTable()
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetPerformanceHistory returns snapshot history for a symbol
// GET /api/v1/market/:symbol/performance-history?limit=30
func (mc *MarketController) GetPerformanceHistory(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))

	if snapshot.GlobalStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Snapshot store not available"})
		return
	}

	rows, err := snapshot.GlobalStore.QueryPerformanceHistory(symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query snapshot history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetMoversHistory returns an archived movers snapshot
// GET /api/v1/market/movers/:kind/history?date=2025-08-22
func (mc *MarketController) GetMoversHistory(c *gin.Context) {
	kind := c.Param("kind")

	if snapshot.GlobalStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Snapshot store not available"})
		return
	}

	date := time.Now().UTC()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	rows, err := snapshot.GlobalStore.QueryMovers(date, kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query movers snapshot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// Screen runs the instrument screener
// POST /api/v1/market/screener
func (mc *MarketController) Screen(c *gin.Context) {
	var filter analytics.ScreenerFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter: " + err.Error()})
		return
	}

	results, err := mc.screener.Screen(&filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results, "count": len(results)})
}

// GetCacheStats returns quote cache hit/miss counters
// GET /api/v1/market/cache-stats
func (mc *MarketController) GetCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": quotecache.GlobalCache.Stats()})
}
