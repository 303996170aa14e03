package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceAlert represents a user-defined price alert
type PriceAlert struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"index" json:"user_id"`
	User         User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	InstrumentID uint            `gorm:"index" json:"instrument_id"`
	Instrument   Instrument      `gorm:"foreignKey:InstrumentID" json:"instrument,omitempty"`
	AlertType    string          `json:"alert_type"` // price_above, price_below, percent_change, volume_spike
	TargetValue  decimal.Decimal `gorm:"type:decimal(15,4)" json:"target_value"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	IsTriggered  bool            `gorm:"default:false" json:"is_triggered"`
	TriggeredAt  *time.Time      `json:"triggered_at"`
	NotifyEmail  bool            `gorm:"default:true" json:"notify_email"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Alert type constants
const (
	AlertTypePriceAbove    = "price_above"
	AlertTypePriceBelow    = "price_below"
	AlertTypePercentChange = "percent_change"
	AlertTypeVolumeSpike   = "volume_spike"
)

// ValidAlertTypes returns the supported alert types
func ValidAlertTypes() []string {
	return []string{
		AlertTypePriceAbove,
		AlertTypePriceBelow,
		AlertTypePercentChange,
		AlertTypeVolumeSpike,
	}
}

// IsValidAlertType checks if the alert type is valid
func IsValidAlertType(alertType string) bool {
	for _, valid := range ValidAlertTypes() {
		if alertType == valid {
			return true
		}
	}
	return false
}

// MigrateAlertModels runs database migrations for alert models
func MigrateAlertModels(db *gorm.DB) error {
	return db.AutoMigrate(&PriceAlert{})
}
