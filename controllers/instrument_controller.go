package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"marketlens_backend/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InstrumentController handles instrument universe requests
type InstrumentController struct {
	db *gorm.DB
}

// NewInstrumentController creates a new instrument controller
func NewInstrumentController(db *gorm.DB) *InstrumentController {
	return &InstrumentController{db: db}
}

// GetInstruments returns the instrument universe with pagination
// GET /api/v1/instruments
func (ic *InstrumentController) GetInstruments(c *gin.Context) {
	var instruments []models.Instrument

	exchange := c.Query("exchange")
	sector := c.Query("sector")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	query := ic.db.Model(&models.Instrument{})
	if exchange != "" {
		query = query.Where("exchange = ?", exchange)
	}
	if sector != "" {
		query = query.Where("sector = ?", sector)
	}

	var total int64
	query.Count(&total)

	if err := query.Order("symbol").Limit(limit).Offset(offset).Find(&instruments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch instruments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": instruments,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// SearchInstruments searches by symbol or name
// GET /api/v1/instruments/search?q=...
func (ic *InstrumentController) SearchInstruments(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}

	var instruments []models.Instrument
	pattern := "%" + strings.ToUpper(q) + "%"
	if err := ic.db.Where("UPPER(symbol) LIKE ? OR UPPER(name) LIKE ?", pattern, pattern).
		Order("symbol").Limit(25).Find(&instruments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": instruments})
}

// GetInstrument returns a single instrument by ID or symbol
// GET /api/v1/instruments/:id
func (ic *InstrumentController) GetInstrument(c *gin.Context) {
	id := c.Param("id")

	var instrument models.Instrument
	if err := ic.db.Where("id = ? OR symbol = ?", id, strings.ToUpper(id)).
		First(&instrument).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Instrument not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch instrument"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": instrument})
}
