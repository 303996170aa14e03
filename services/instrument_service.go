package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"marketlens_backend/models"
	"marketlens_backend/services/marketdata"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Benchmark index codes tracked alongside the instrument universe
var BenchmarkIndices = map[string]string{
	"^GSPC": "S&P 500",
	"^IXIC": "Nasdaq Composite",
	"^DJI":  "Dow Jones Industrial Average",
}

// InstrumentService manages the instrument universe
type InstrumentService struct {
	db *gorm.DB
}

// NewInstrumentService creates a new instrument service
func NewInstrumentService(db *gorm.DB) *InstrumentService {
	return &InstrumentService{db: db}
}

// SeedUniverse inserts the default instrument universe if missing
func (s *InstrumentService) SeedUniverse() error {
	instruments := []models.Instrument{
		{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ", Sector: "Technology", Status: "active"},
		{Symbol: "MSFT", Name: "Microsoft Corporation", Exchange: "NASDAQ", Sector: "Technology", Status: "active"},
		{Symbol: "GOOGL", Name: "Alphabet Inc.", Exchange: "NASDAQ", Sector: "Communication Services", Status: "active"},
		{Symbol: "AMZN", Name: "Amazon.com Inc.", Exchange: "NASDAQ", Sector: "Consumer Cyclical", Status: "active"},
		{Symbol: "NVDA", Name: "NVIDIA Corporation", Exchange: "NASDAQ", Sector: "Technology", Status: "active"},
		{Symbol: "META", Name: "Meta Platforms Inc.", Exchange: "NASDAQ", Sector: "Communication Services", Status: "active"},
		{Symbol: "TSLA", Name: "Tesla Inc.", Exchange: "NASDAQ", Sector: "Consumer Cyclical", Status: "active"},
		{Symbol: "BRK-B", Name: "Berkshire Hathaway Inc.", Exchange: "NYSE", Sector: "Financial Services", Status: "active"},
		{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Exchange: "NYSE", Sector: "Financial Services", Status: "active"},
		{Symbol: "V", Name: "Visa Inc.", Exchange: "NYSE", Sector: "Financial Services", Status: "active"},
		{Symbol: "JNJ", Name: "Johnson & Johnson", Exchange: "NYSE", Sector: "Healthcare", Status: "active"},
		{Symbol: "WMT", Name: "Walmart Inc.", Exchange: "NYSE", Sector: "Consumer Defensive", Status: "active"},
		{Symbol: "XOM", Name: "Exxon Mobil Corporation", Exchange: "NYSE", Sector: "Energy", Status: "active"},
		{Symbol: "UNH", Name: "UnitedHealth Group Inc.", Exchange: "NYSE", Sector: "Healthcare", Status: "active"},
		{Symbol: "PG", Name: "Procter & Gamble Co.", Exchange: "NYSE", Sector: "Consumer Defensive", Status: "active"},
		{Symbol: "KO", Name: "Coca-Cola Co.", Exchange: "NYSE", Sector: "Consumer Defensive", Status: "active"},
		{Symbol: "DIS", Name: "Walt Disney Co.", Exchange: "NYSE", Sector: "Communication Services", Status: "active"},
		{Symbol: "NFLX", Name: "Netflix Inc.", Exchange: "NASDAQ", Sector: "Communication Services", Status: "active"},
		{Symbol: "AMD", Name: "Advanced Micro Devices Inc.", Exchange: "NASDAQ", Sector: "Technology", Status: "active"},
		{Symbol: "INTC", Name: "Intel Corporation", Exchange: "NASDAQ", Sector: "Technology", Status: "active"},
	}

	for _, instrument := range instruments {
		var existing models.Instrument
		if err := s.db.Where("symbol = ?", instrument.Symbol).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := s.db.Create(&instrument).Error; err != nil {
					return fmt.Errorf("failed to create instrument %s: %w", instrument.Symbol, err)
				}
			} else {
				return err
			}
		}
	}

	log.Printf("Instrument universe seeded (%d symbols)", len(instruments))
	return nil
}

// EnrichFromQuotes updates instrument metadata from live quotes
func (s *InstrumentService) EnrichFromQuotes(ctx context.Context) error {
	if !marketdata.GlobalRegistry.Available() {
		return marketdata.ErrProviderUnavailable
	}

	var instruments []models.Instrument
	if err := s.db.Where("status = ?", "active").Find(&instruments).Error; err != nil {
		return fmt.Errorf("failed to load instruments: %w", err)
	}

	symbols := make([]string, len(instruments))
	bySymbol := make(map[string]*models.Instrument, len(instruments))
	for i := range instruments {
		symbols[i] = instruments[i].Symbol
		bySymbol[instruments[i].Symbol] = &instruments[i]
	}

	quotes, err := marketdata.GlobalRegistry.Provider().BatchQuotes(ctx, symbols)
	if err != nil {
		return fmt.Errorf("failed to fetch quotes: %w", err)
	}

	for _, q := range quotes {
		instrument, ok := bySymbol[q.Symbol]
		if !ok {
			continue
		}
		updates := map[string]interface{}{
			"market_cap": decimal.NewFromFloat(q.MarketCap),
		}
		if q.Name != "" {
			updates["name"] = q.Name
		}
		if q.Currency != "" {
			updates["currency"] = q.Currency
		}
		if err := s.db.Model(instrument).Updates(updates).Error; err != nil {
			log.Printf("Failed to enrich instrument %s: %v", q.Symbol, err)
		}
	}

	return nil
}

// FetchMarketIndices fetches benchmark index quotes and stores daily rows
func (s *InstrumentService) FetchMarketIndices(ctx context.Context) error {
	if !marketdata.GlobalRegistry.Available() {
		return marketdata.ErrProviderUnavailable
	}

	codes := make([]string, 0, len(BenchmarkIndices))
	for code := range BenchmarkIndices {
		codes = append(codes, code)
	}

	quotes, err := marketdata.GlobalRegistry.Provider().BatchQuotes(ctx, codes)
	if err != nil {
		return fmt.Errorf("failed to fetch index quotes: %w", err)
	}

	for _, q := range quotes {
		name := BenchmarkIndices[q.Symbol]
		if name == "" {
			name = q.Name
		}

		row := models.MarketIndex{
			Name:          name,
			Code:          q.Symbol,
			Date:          q.Timestamp,
			Open:          decimal.NewFromFloat(q.Open),
			High:          decimal.NewFromFloat(q.High),
			Low:           decimal.NewFromFloat(q.Low),
			Close:         decimal.NewFromFloat(q.Price),
			Volume:        q.Volume,
			Change:        decimal.NewFromFloat(q.Change),
			ChangePercent: decimal.NewFromFloat(q.ChangePercent),
		}

		today := q.Timestamp.Format("2006-01-02")
		var existing models.MarketIndex
		err := s.db.Where("code = ? AND DATE(date) = ?", q.Symbol, today).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := s.db.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create index %s: %w", q.Symbol, err)
			}
		} else if err == nil {
			if err := s.db.Model(&existing).Updates(row).Error; err != nil {
				return fmt.Errorf("failed to update index %s: %w", q.Symbol, err)
			}
		} else {
			return err
		}
	}

	return nil
}

// LatestIndices returns the newest stored row per benchmark index
func (s *InstrumentService) LatestIndices() ([]models.MarketIndex, error) {
	var indices []models.MarketIndex
	for code := range BenchmarkIndices {
		var row models.MarketIndex
		err := s.db.Where("code = ?", code).Order("date DESC").First(&row).Error
		if err == gorm.ErrRecordNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		indices = append(indices, row)
	}
	return indices, nil
}

// CleanupOldData removes stale rows to keep the database small
func (s *InstrumentService) CleanupOldData() error {
	// Keep 5 years of bars
	fiveYearsAgo := time.Now().AddDate(-5, 0, 0)
	if err := s.db.Where("date < ?", fiveYearsAgo).Delete(&models.PriceBar{}).Error; err != nil {
		return fmt.Errorf("failed to clean up old bars: %w", err)
	}

	// Keep 1 year of index rows
	oneYearAgo := time.Now().AddDate(-1, 0, 0)
	if err := s.db.Where("date < ?", oneYearAgo).Delete(&models.MarketIndex{}).Error; err != nil {
		return fmt.Errorf("failed to clean up old index rows: %w", err)
	}

	// Drop triggered alerts older than 30 days
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	if err := s.db.Where("is_triggered = ? AND triggered_at < ?", true, thirtyDaysAgo).
		Delete(&models.PriceAlert{}).Error; err != nil {
		return fmt.Errorf("failed to clean up old alerts: %w", err)
	}

	return nil
}
