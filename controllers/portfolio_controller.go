package controllers

import (
	"net/http"
	"strings"

	"marketlens_backend/middleware"
	"marketlens_backend/models"
	"marketlens_backend/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PortfolioController handles portfolio tracking and valuation
type PortfolioController struct {
	db *gorm.DB
}

// NewPortfolioController creates a new portfolio controller
func NewPortfolioController(db *gorm.DB) *PortfolioController {
	return &PortfolioController{db: db}
}

// GetPortfolios returns the user's portfolios
// GET /api/v1/portfolios
func (pc *PortfolioController) GetPortfolios(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var portfolios []models.Portfolio
	if err := pc.db.Where("user_id = ?", userID).
		Preload("Holdings.Instrument").Find(&portfolios).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolios"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": portfolios})
}

// CreatePortfolio creates a new portfolio
// POST /api/v1/portfolios
func (pc *PortfolioController) CreatePortfolio(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var body struct {
		Name     string `json:"name" binding:"required"`
		Currency string `json:"currency"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	portfolio := models.Portfolio{UserID: userID, Name: body.Name}
	if body.Currency != "" {
		portfolio.Currency = body.Currency
	}
	if err := pc.db.Create(&portfolio).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Portfolio already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": portfolio})
}

// DeletePortfolio removes a portfolio and its holdings
// DELETE /api/v1/portfolios/:id
func (pc *PortfolioController) DeletePortfolio(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")

	var portfolio models.Portfolio
	if err := pc.db.Where("id = ? AND user_id = ?", id, userID).First(&portfolio).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	if err := pc.db.Where("portfolio_id = ?", portfolio.ID).Delete(&models.Holding{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete holdings"})
		return
	}
	if err := pc.db.Delete(&portfolio).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete portfolio"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// UpsertHoldingRequest is the payload for POST /portfolios/:id/holdings
type UpsertHoldingRequest struct {
	Symbol   string  `json:"symbol" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
	AvgCost  float64 `json:"avg_cost" binding:"required"`
}

// UpsertHolding creates or updates a position
// POST /api/v1/portfolios/:id/holdings
func (pc *PortfolioController) UpsertHolding(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")

	var req UpsertHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Quantity <= 0 || req.AvgCost < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity must be positive and cost non-negative"})
		return
	}

	var portfolio models.Portfolio
	if err := pc.db.Where("id = ? AND user_id = ?", id, userID).First(&portfolio).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	var instrument models.Instrument
	if err := pc.db.Where("symbol = ?", strings.ToUpper(req.Symbol)).First(&instrument).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown symbol " + req.Symbol})
		return
	}

	holding := models.Holding{
		PortfolioID:  portfolio.ID,
		InstrumentID: instrument.ID,
		Quantity:     decimal.NewFromFloat(req.Quantity),
		AvgCost:      decimal.NewFromFloat(req.AvgCost),
	}

	var existing models.Holding
	err := pc.db.Where("portfolio_id = ? AND instrument_id = ?", portfolio.ID, instrument.ID).
		First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if err := pc.db.Create(&holding).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create holding"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": holding})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check holding"})
		return
	}

	if err := pc.db.Model(&existing).Updates(map[string]interface{}{
		"quantity": holding.Quantity,
		"avg_cost": holding.AvgCost,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update holding"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": existing})
}

// RemoveHolding deletes a position
// DELETE /api/v1/portfolios/:id/holdings/:holdingId
func (pc *PortfolioController) RemoveHolding(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")
	holdingID := c.Param("holdingId")

	var portfolio models.Portfolio
	if err := pc.db.Where("id = ? AND user_id = ?", id, userID).First(&portfolio).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	result := pc.db.Where("id = ? AND portfolio_id = ?", holdingID, portfolio.ID).
		Delete(&models.Holding{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove holding"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// GetValuation returns the portfolio valuation table
// GET /api/v1/portfolios/:id/valuation
func (pc *PortfolioController) GetValuation(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")

	var portfolio models.Portfolio
	if err := pc.db.Where("id = ? AND user_id = ?", id, userID).
		Preload("Holdings.Instrument").First(&portfolio).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		return
	}

	rows := make([]models.HoldingValuation, 0, len(portfolio.Holdings))
	totalCost := decimal.Zero
	totalValue := decimal.Zero

	for _, holding := range portfolio.Holdings {
		row := models.HoldingValuation{
			Symbol:   holding.Instrument.Symbol,
			Name:     holding.Instrument.Name,
			Quantity: holding.Quantity,
			AvgCost:  holding.AvgCost,
		}
		row.TotalCost = holding.Quantity.Mul(holding.AvgCost)

		if quote, ok := services.GlobalBarStore.GetQuote(holding.Instrument.Symbol); ok {
			row.LastPrice = decimal.NewFromFloat(quote.Price)
			row.MarketValue = holding.Quantity.Mul(row.LastPrice)
			row.UnrealizedPnL = row.MarketValue.Sub(row.TotalCost)
			if !row.TotalCost.IsZero() {
				row.UnrealizedPnLPercent = row.UnrealizedPnL.
					Div(row.TotalCost).Mul(decimal.NewFromInt(100))
			}
		}

		totalCost = totalCost.Add(row.TotalCost)
		totalValue = totalValue.Add(row.MarketValue)
		rows = append(rows, row)
	}

	totalPnL := totalValue.Sub(totalCost)
	totalPnLPercent := decimal.Zero
	if !totalCost.IsZero() {
		totalPnLPercent = totalPnL.Div(totalCost).Mul(decimal.NewFromInt(100))
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"portfolio": gin.H{"id": portfolio.ID, "name": portfolio.Name, "currency": portfolio.Currency},
			"rows":      rows,
			"totals": gin.H{
				"total_cost":             totalCost,
				"market_value":           totalValue,
				"unrealized_pnl":         totalPnL,
				"unrealized_pnl_percent": totalPnLPercent,
			},
		},
	})
}
