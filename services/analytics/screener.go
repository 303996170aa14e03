package analytics

import (
	"fmt"
	"sort"

	"marketlens_backend/models"
	"marketlens_backend/services"
	"marketlens_backend/services/analysis"
	"marketlens_backend/services/marketdata"

	"gorm.io/gorm"
)

// Screener filters the instrument universe on price, volume and indicator
// criteria and returns a ranked table
type Screener struct {
	db    *gorm.DB
	store *services.InMemoryBarStore
}

// NewScreener creates a new screener instance
func NewScreener(db *gorm.DB, store *services.InMemoryBarStore) *Screener {
	return &Screener{db: db, store: store}
}

// ScreenerFilter represents filter criteria
type ScreenerFilter struct {
	Exchange         []string `json:"exchange"` // NYSE, NASDAQ, AMEX
	Sector           []string `json:"sector"`
	MinPrice         *float64 `json:"min_price"`
	MaxPrice         *float64 `json:"max_price"`
	MinVolume        *int64   `json:"min_volume"`
	MinMarketCap     *float64 `json:"min_market_cap"`
	MaxMarketCap     *float64 `json:"max_market_cap"`
	MinChangePercent *float64 `json:"min_change_percent"`
	MaxChangePercent *float64 `json:"max_change_percent"`
	MinRSI           *float64 `json:"min_rsi"`
	MaxRSI           *float64 `json:"max_rsi"`
	AboveSMA20       *bool    `json:"above_sma20"`
	AboveSMA50       *bool    `json:"above_sma50"`
	AboveSMA200      *bool    `json:"above_sma200"`
	MACDBullish      *bool    `json:"macd_bullish"` // MACD histogram positive
	VolumeSpike      *float64 `json:"volume_spike"` // volume N times the 20-day average
	SortBy           string   `json:"sort_by"`      // price, change_percent, volume, rsi
	SortOrder        string   `json:"sort_order"`   // asc, desc
	Limit            int      `json:"limit"`
}

// ScreenerResult represents one matching instrument
type ScreenerResult struct {
	Symbol          string             `json:"symbol"`
	Name            string             `json:"name"`
	Exchange        string             `json:"exchange"`
	Sector          string             `json:"sector"`
	Price           float64            `json:"price"`
	ChangePercent   float64            `json:"change_percent"`
	Volume          int64              `json:"volume"`
	Indicators      map[string]float64 `json:"indicators"`
	MatchedCriteria []string           `json:"matched_criteria"`
}

// Screen applies the filter and returns matching instruments
func (s *Screener) Screen(filter *ScreenerFilter) ([]ScreenerResult, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.SortOrder == "" {
		filter.SortOrder = "desc"
	}
	if filter.SortBy == "" {
		filter.SortBy = "volume"
	}

	query := s.db.Model(&models.Instrument{}).Where("status = ?", "active")
	if len(filter.Exchange) > 0 {
		query = query.Where("exchange IN ?", filter.Exchange)
	}
	if len(filter.Sector) > 0 {
		query = query.Where("sector IN ?", filter.Sector)
	}
	if filter.MinMarketCap != nil {
		query = query.Where("market_cap >= ?", *filter.MinMarketCap)
	}
	if filter.MaxMarketCap != nil {
		query = query.Where("market_cap <= ?", *filter.MaxMarketCap)
	}

	var instruments []models.Instrument
	if err := query.Find(&instruments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch instruments: %w", err)
	}

	var results []ScreenerResult
	for _, instrument := range instruments {
		quote, ok := s.store.GetQuote(instrument.Symbol)
		if !ok {
			continue
		}
		result, ok := evaluateInstrument(filter, instrument, quote, s.store.GetBars(instrument.Symbol))
		if !ok {
			continue
		}
		results = append(results, result)
	}

	sortResults(results, filter.SortBy, filter.SortOrder)
	if len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// evaluateInstrument applies the quote and indicator criteria to one
// instrument. The second return value reports whether it passed every filter.
func evaluateInstrument(filter *ScreenerFilter, instrument models.Instrument, quote *marketdata.Quote, bars []marketdata.Bar) (ScreenerResult, bool) {
	result := ScreenerResult{
		Symbol:        instrument.Symbol,
		Name:          instrument.Name,
		Exchange:      instrument.Exchange,
		Sector:        instrument.Sector,
		Price:         quote.Price,
		ChangePercent: quote.ChangePercent,
		Volume:        quote.Volume,
		Indicators:    make(map[string]float64),
	}

	if filter.MinPrice != nil && quote.Price < *filter.MinPrice {
		return result, false
	}
	if filter.MaxPrice != nil && quote.Price > *filter.MaxPrice {
		return result, false
	}
	if filter.MinVolume != nil && quote.Volume < *filter.MinVolume {
		return result, false
	}
	if filter.MinChangePercent != nil && quote.ChangePercent < *filter.MinChangePercent {
		return result, false
	}
	if filter.MaxChangePercent != nil && quote.ChangePercent > *filter.MaxChangePercent {
		return result, false
	}

	closes := analysis.Closes(bars)
	var matched []string

	if filter.MinRSI != nil || filter.MaxRSI != nil {
		rsi, err := analysis.RSI(closes, analysis.RSIPeriod)
		if err != nil {
			return result, false
		}
		if filter.MinRSI != nil && rsi < *filter.MinRSI {
			return result, false
		}
		if filter.MaxRSI != nil && rsi > *filter.MaxRSI {
			return result, false
		}
		result.Indicators["rsi"] = rsi
		matched = append(matched, "rsi")
	}

	for _, check := range []struct {
		enabled *bool
		period  int
		name    string
	}{
		{filter.AboveSMA20, 20, "above_sma20"},
		{filter.AboveSMA50, 50, "above_sma50"},
		{filter.AboveSMA200, 200, "above_sma200"},
	} {
		if check.enabled == nil || !*check.enabled {
			continue
		}
		sma, err := analysis.SMA(closes, check.period)
		if err != nil || quote.Price <= sma {
			return result, false
		}
		result.Indicators[fmt.Sprintf("sma%d", check.period)] = sma
		matched = append(matched, check.name)
	}

	if filter.MACDBullish != nil && *filter.MACDBullish {
		macd, err := analysis.MACD(closes)
		if err != nil || macd.Histogram <= 0 {
			return result, false
		}
		result.Indicators["macd_hist"] = macd.Histogram
		matched = append(matched, "macd_bullish")
	}

	if filter.VolumeSpike != nil {
		avgVol, err := analysis.AverageVolume(bars, 20)
		if err != nil || avgVol == 0 || float64(quote.Volume) < avgVol*(*filter.VolumeSpike) {
			return result, false
		}
		result.Indicators["avg_volume_20d"] = avgVol
		matched = append(matched, "volume_spike")
	}

	result.MatchedCriteria = matched
	return result, true
}

func sortResults(results []ScreenerResult, sortBy, sortOrder string) {
	var less func(i, j int) bool
	switch sortBy {
	case "price":
		less = func(i, j int) bool { return results[i].Price < results[j].Price }
	case "change_percent":
		less = func(i, j int) bool { return results[i].ChangePercent < results[j].ChangePercent }
	case "rsi":
		less = func(i, j int) bool { return results[i].Indicators["rsi"] < results[j].Indicators["rsi"] }
	default:
		less = func(i, j int) bool { return results[i].Volume < results[j].Volume }
	}

	if sortOrder == "desc" {
		sort.Slice(results, func(i, j int) bool { return less(j, i) })
	} else {
		sort.Slice(results, less)
	}
}
