package controllers

import (
	"net/http"
	"strings"

	"marketlens_backend/middleware"
	"marketlens_backend/models"
	"marketlens_backend/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// WatchlistController handles watchlist CRUD and table views
type WatchlistController struct {
	db *gorm.DB
}

// NewWatchlistController creates a new watchlist controller
func NewWatchlistController(db *gorm.DB) *WatchlistController {
	return &WatchlistController{db: db}
}

// GetWatchlists returns the user's watchlists
// GET /api/v1/watchlists
func (wc *WatchlistController) GetWatchlists(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var lists []models.Watchlist
	if err := wc.db.Where("user_id = ?", userID).
		Preload("Entries.Instrument").Find(&lists).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch watchlists"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lists})
}

// CreateWatchlist creates a new watchlist
// POST /api/v1/watchlists
func (wc *WatchlistController) CreateWatchlist(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	list := models.Watchlist{UserID: userID, Name: body.Name}
	if err := wc.db.Create(&list).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Watchlist already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": list})
}

// DeleteWatchlist removes a watchlist and its entries
// DELETE /api/v1/watchlists/:id
func (wc *WatchlistController) DeleteWatchlist(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")

	var list models.Watchlist
	if err := wc.db.Where("id = ? AND user_id = ?", id, userID).First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist not found"})
		return
	}
	if list.IsDefault {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete the default watchlist"})
		return
	}

	if err := wc.db.Where("watchlist_id = ?", list.ID).Delete(&models.WatchlistEntry{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete entries"})
		return
	}
	if err := wc.db.Delete(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete watchlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// AddEntry adds a symbol to a watchlist
// POST /api/v1/watchlists/:id/entries
func (wc *WatchlistController) AddEntry(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")

	var body struct {
		Symbol string `json:"symbol" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	var list models.Watchlist
	if err := wc.db.Where("id = ? AND user_id = ?", id, userID).First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist not found"})
		return
	}

	var instrument models.Instrument
	if err := wc.db.Where("symbol = ?", strings.ToUpper(body.Symbol)).First(&instrument).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown symbol " + body.Symbol})
		return
	}

	var maxPosition int
	wc.db.Model(&models.WatchlistEntry{}).Where("watchlist_id = ?", list.ID).
		Select("COALESCE(MAX(position), 0)").Scan(&maxPosition)

	entry := models.WatchlistEntry{
		WatchlistID:  list.ID,
		InstrumentID: instrument.ID,
		Position:     maxPosition + 1,
		Notes:        body.Notes,
	}
	if err := wc.db.Create(&entry).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Symbol already on watchlist"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": entry})
}

// RemoveEntry removes a symbol from a watchlist
// DELETE /api/v1/watchlists/:id/entries/:entryId
func (wc *WatchlistController) RemoveEntry(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")
	entryID := c.Param("entryId")

	var list models.Watchlist
	if err := wc.db.Where("id = ? AND user_id = ?", id, userID).First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist not found"})
		return
	}

	result := wc.db.Where("id = ? AND watchlist_id = ?", entryID, list.ID).
		Delete(&models.WatchlistEntry{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove entry"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// watchlistQuoteRow is one row of the watchlist table view
type watchlistQuoteRow struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Notes         string  `json:"notes"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	HasQuote      bool    `json:"has_quote"`
}

// GetTable returns the watchlist as a table with latest quotes
// GET /api/v1/watchlists/:id/table
func (wc *WatchlistController) GetTable(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")

	var list models.Watchlist
	if err := wc.db.Where("id = ? AND user_id = ?", id, userID).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).
		Preload("Entries.Instrument").
		First(&list).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Watchlist not found"})
		return
	}

	rows := make([]watchlistQuoteRow, 0, len(list.Entries))
	for _, entry := range list.Entries {
		row := watchlistQuoteRow{
			Symbol: entry.Instrument.Symbol,
			Name:   entry.Instrument.Name,
			Notes:  entry.Notes,
		}
		if quote, ok := services.GlobalBarStore.GetQuote(entry.Instrument.Symbol); ok {
			row.Price = quote.Price
			row.Change = quote.Change
			row.ChangePercent = quote.ChangePercent
			row.Volume = quote.Volume
			row.HasQuote = true
		}
		rows = append(rows, row)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"watchlist": gin.H{"id": list.ID, "name": list.Name},
			"rows":      rows,
		},
	})
}
