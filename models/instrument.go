package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Instrument represents a tradable symbol known to the universe
type Instrument struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Symbol      string          `gorm:"uniqueIndex;not null" json:"symbol"`
	Name        string          `json:"name"`
	Exchange    string          `json:"exchange"` // NYSE, NASDAQ, AMEX
	Sector      string          `json:"sector"`
	Industry    string          `json:"industry"`
	Currency    string          `gorm:"default:'USD'" json:"currency"`
	MarketCap   decimal.Decimal `gorm:"type:decimal(20,2)" json:"market_cap"`
	ListingDate *time.Time      `json:"listing_date"`
	Status      string          `json:"status"` // active, delisted, suspended
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PriceBar represents one daily OHLCV bar for an instrument
type PriceBar struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	InstrumentID  uint            `gorm:"index:idx_instrument_date" json:"instrument_id"`
	Instrument    Instrument      `gorm:"foreignKey:InstrumentID" json:"instrument,omitempty"`
	Date          time.Time       `gorm:"index:idx_instrument_date" json:"date"`
	Open          decimal.Decimal `gorm:"type:decimal(15,4)" json:"open"`
	High          decimal.Decimal `gorm:"type:decimal(15,4)" json:"high"`
	Low           decimal.Decimal `gorm:"type:decimal(15,4)" json:"low"`
	Close         decimal.Decimal `gorm:"type:decimal(15,4)" json:"close"`
	AdjClose      decimal.Decimal `gorm:"type:decimal(15,4)" json:"adj_close"`
	Volume        int64           `json:"volume"`
	Change        decimal.Decimal `gorm:"type:decimal(15,4)" json:"change"`
	ChangePercent decimal.Decimal `gorm:"type:decimal(10,4)" json:"change_percent"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IndicatorValue stores calculated technical indicators
type IndicatorValue struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	InstrumentID uint            `gorm:"index:idx_instrument_date_type" json:"instrument_id"`
	Instrument   Instrument      `gorm:"foreignKey:InstrumentID" json:"instrument,omitempty"`
	Date         time.Time       `gorm:"index:idx_instrument_date_type" json:"date"`
	Type         string          `gorm:"index:idx_instrument_date_type" json:"type"` // SMA, EMA, RSI, MACD, BBANDS
	Period       int             `json:"period"`                                     // e.g. 20 for SMA20
	Value        decimal.Decimal `gorm:"type:decimal(15,6)" json:"value"`
	Signal       decimal.Decimal `gorm:"type:decimal(15,6)" json:"signal"`    // MACD signal line
	Histogram    decimal.Decimal `gorm:"type:decimal(15,6)" json:"histogram"` // MACD histogram
	CreatedAt    time.Time       `json:"created_at"`
}

// MarketIndex represents benchmark indices (S&P 500, Nasdaq Composite, Dow)
type MarketIndex struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"index" json:"name"` // S&P 500, Nasdaq Composite, Dow Jones
	Code          string          `gorm:"index:idx_index_code_date" json:"code"` // ^GSPC, ^IXIC, ^DJI
	Date          time.Time       `gorm:"index:idx_index_code_date" json:"date"`
	Open          decimal.Decimal `gorm:"type:decimal(15,4)" json:"open"`
	High          decimal.Decimal `gorm:"type:decimal(15,4)" json:"high"`
	Low           decimal.Decimal `gorm:"type:decimal(15,4)" json:"low"`
	Close         decimal.Decimal `gorm:"type:decimal(15,4)" json:"close"`
	Volume        int64           `json:"volume"`
	Change        decimal.Decimal `gorm:"type:decimal(15,4)" json:"change"`
	ChangePercent decimal.Decimal `gorm:"type:decimal(10,4)" json:"change_percent"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MigrateInstrumentModels runs database migrations for market-data models
func MigrateInstrumentModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Instrument{},
		&PriceBar{},
		&IndicatorValue{},
		&MarketIndex{},
	)
}
