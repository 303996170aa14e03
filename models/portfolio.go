package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Portfolio represents a user's tracked portfolio
type Portfolio struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_user_portfolio_name,unique" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name      string    `gorm:"index:idx_user_portfolio_name,unique" json:"name"`
	Currency  string    `gorm:"default:'USD'" json:"currency"`
	Holdings  []Holding `gorm:"foreignKey:PortfolioID" json:"holdings,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Holding represents one position inside a portfolio
type Holding struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	PortfolioID  uint            `gorm:"index:idx_portfolio_instrument,unique" json:"portfolio_id"`
	InstrumentID uint            `gorm:"index:idx_portfolio_instrument,unique" json:"instrument_id"`
	Instrument   Instrument      `gorm:"foreignKey:InstrumentID" json:"instrument,omitempty"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,6)" json:"quantity"`
	AvgCost      decimal.Decimal `gorm:"type:decimal(15,4)" json:"avg_cost"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// HoldingValuation is a computed row for the portfolio valuation table
type HoldingValuation struct {
	Symbol               string          `json:"symbol"`
	Name                 string          `json:"name"`
	Quantity             decimal.Decimal `json:"quantity"`
	AvgCost              decimal.Decimal `json:"avg_cost"`
	LastPrice            decimal.Decimal `json:"last_price"`
	TotalCost            decimal.Decimal `json:"total_cost"`
	MarketValue          decimal.Decimal `json:"market_value"`
	UnrealizedPnL        decimal.Decimal `json:"unrealized_pnl"`
	UnrealizedPnLPercent decimal.Decimal `json:"unrealized_pnl_percent"`
}

// MigratePortfolioModels runs database migrations for portfolio models
func MigratePortfolioModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Portfolio{},
		&Holding{},
	)
}
