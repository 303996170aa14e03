package controllers

import (
	"net/http"
	"strings"

	"marketlens_backend/middleware"
	"marketlens_backend/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AlertController handles price alert requests
type AlertController struct {
	db *gorm.DB
}

// NewAlertController creates a new alert controller
func NewAlertController(db *gorm.DB) *AlertController {
	return &AlertController{db: db}
}

// GetAlerts returns the user's alerts
// GET /api/v1/alerts?active=true
func (ac *AlertController) GetAlerts(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	query := ac.db.Where("user_id = ?", userID).Preload("Instrument")
	if c.Query("active") == "true" {
		query = query.Where("is_active = ? AND is_triggered = ?", true, false)
	}

	var alerts []models.PriceAlert
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": alerts})
}

// CreateAlertRequest is the payload for POST /alerts
type CreateAlertRequest struct {
	Symbol      string  `json:"symbol" binding:"required"`
	AlertType   string  `json:"alert_type" binding:"required"`
	TargetValue float64 `json:"target_value" binding:"required"`
	NotifyEmail *bool   `json:"notify_email"`
}

// CreateAlert creates a new price alert
// POST /api/v1/alerts
func (ac *AlertController) CreateAlert(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if !models.IsValidAlertType(req.AlertType) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       "Invalid alert type",
			"valid_types": models.ValidAlertTypes(),
		})
		return
	}

	var instrument models.Instrument
	if err := ac.db.Where("symbol = ?", strings.ToUpper(req.Symbol)).First(&instrument).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown symbol " + req.Symbol})
		return
	}

	alert := models.PriceAlert{
		UserID:       userID,
		InstrumentID: instrument.ID,
		AlertType:    req.AlertType,
		TargetValue:  decimal.NewFromFloat(req.TargetValue),
		IsActive:     true,
	}
	if req.NotifyEmail != nil {
		alert.NotifyEmail = *req.NotifyEmail
	} else {
		alert.NotifyEmail = true
	}

	if err := ac.db.Create(&alert).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": alert})
}

// UpdateAlert toggles or retargets an alert
// PUT /api/v1/alerts/:id
func (ac *AlertController) UpdateAlert(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")

	var alert models.PriceAlert
	if err := ac.db.Where("id = ? AND user_id = ?", id, userID).First(&alert).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}

	var body struct {
		IsActive    *bool    `json:"is_active"`
		TargetValue *float64 `json:"target_value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}
	if body.TargetValue != nil {
		updates["target_value"] = decimal.NewFromFloat(*body.TargetValue)
		// Retargeting re-arms a triggered alert
		updates["is_triggered"] = false
		updates["triggered_at"] = nil
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if err := ac.db.Model(&alert).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": alert})
}

// DeleteAlert removes an alert
// DELETE /api/v1/alerts/:id
func (ac *AlertController) DeleteAlert(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")

	result := ac.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.PriceAlert{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete alert"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
