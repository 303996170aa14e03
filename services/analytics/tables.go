package analytics

import (
	"fmt"
	"sort"
	"time"

	"marketlens_backend/services"
	"marketlens_backend/services/analysis"
	"marketlens_backend/services/snapshot"
)

// Mover table kinds
const (
	MoversGainers    = "gainers"
	MoversLosers     = "losers"
	MoversMostActive = "most_active"
)

// Return windows in trading days
const (
	Window1D = 1
	Window1W = 5
	Window1M = 21
	Window3M = 63
	Window1Y = 252
)

// SummaryRow holds descriptive statistics for one symbol
type SummaryRow struct {
	Symbol         string  `json:"symbol"`
	LastClose      float64 `json:"last_close"`
	Week52High     float64 `json:"week52_high"`
	Week52Low      float64 `json:"week52_low"`
	PctFrom52High  float64 `json:"pct_from_52_high"`
	PctFrom52Low   float64 `json:"pct_from_52_low"`
	MeanClose      float64 `json:"mean_close"`
	Volatility     float64 `json:"volatility"` // annualized, percent
	AvgVolume20D   float64 `json:"avg_volume_20d"`
	BarCount       int     `json:"bar_count"`
	FirstBarDate   string  `json:"first_bar_date"`
	LatestBarDate  string  `json:"latest_bar_date"`
}

// TableService builds the table-shaped analytics views served by the API.
// All output is tabular; chart rendering is out of scope.
type TableService struct {
	store *services.InMemoryBarStore
}

// NewTableService creates a table service over the given bar store
func NewTableService(store *services.InMemoryBarStore) *TableService {
	return &TableService{store: store}
}

// TopMovers builds the gainers/losers/most-active table from stored quotes
func (t *TableService) TopMovers(kind string, limit int) ([]snapshot.MoverRow, error) {
	if limit <= 0 {
		limit = 10
	}

	quotes := t.store.AllQuotes()
	if len(quotes) == 0 {
		return nil, fmt.Errorf("no quote data available")
	}

	switch kind {
	case MoversGainers:
		sort.Slice(quotes, func(i, j int) bool {
			return quotes[i].ChangePercent > quotes[j].ChangePercent
		})
	case MoversLosers:
		sort.Slice(quotes, func(i, j int) bool {
			return quotes[i].ChangePercent < quotes[j].ChangePercent
		})
	case MoversMostActive:
		sort.Slice(quotes, func(i, j int) bool {
			return quotes[i].Volume > quotes[j].Volume
		})
	default:
		return nil, fmt.Errorf("unknown movers kind %q", kind)
	}

	if len(quotes) > limit {
		quotes = quotes[:limit]
	}

	today := time.Now().UTC().Format("2006-01-02")
	rows := make([]snapshot.MoverRow, len(quotes))
	for i, q := range quotes {
		rows[i] = snapshot.MoverRow{
			Date:          today,
			Kind:          kind,
			Rank:          i + 1,
			Symbol:        q.Symbol,
			Price:         q.Price,
			ChangePercent: q.ChangePercent,
			Volume:        q.Volume,
		}
	}
	return rows, nil
}

// PerformanceRows builds multi-window return rows for the given symbols.
// Symbols without enough bar history are skipped.
func (t *TableService) PerformanceRows(symbols []string) []snapshot.PerformanceRow {
	today := time.Now().UTC().Format("2006-01-02")
	rows := make([]snapshot.PerformanceRow, 0, len(symbols))

	for _, symbol := range symbols {
		bars := t.store.GetBars(symbol)
		if len(bars) < 2 {
			continue
		}

		row := snapshot.PerformanceRow{Date: today, Symbol: symbol}
		if r, err := analysis.Return(bars, Window1D); err == nil {
			row.Return1D = r
		}
		if r, err := analysis.Return(bars, Window1W); err == nil {
			row.Return1W = r
		}
		if r, err := analysis.Return(bars, Window1M); err == nil {
			row.Return1M = r
		}
		if r, err := analysis.Return(bars, Window3M); err == nil {
			row.Return3M = r
		}
		if r, err := analysis.Return(bars, Window1Y); err == nil {
			row.Return1Y = r
		}
		if rsi, err := analysis.RSI(analysis.Closes(bars), analysis.RSIPeriod); err == nil {
			row.RSI = rsi
		}
		if avgVol, err := analysis.AverageVolume(bars, 20); err == nil {
			row.AvgVolume = avgVol
		}
		rows = append(rows, row)
	}
	return rows
}

// PerformanceTable builds performance rows for every symbol with bar data,
// sorted by 1-month return descending
func (t *TableService) PerformanceTable() []snapshot.PerformanceRow {
	rows := t.PerformanceRows(t.store.Symbols())
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Return1M > rows[j].Return1M
	})
	return rows
}

// Summary builds descriptive statistics for one symbol
func (t *TableService) Summary(symbol string) (*SummaryRow, error) {
	bars := t.store.GetBars(symbol)
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bar data for %s", symbol)
	}

	window := bars
	if len(window) > Window1Y {
		window = window[len(window)-Window1Y:]
	}

	high := window[0].High
	low := window[0].Low
	sum := 0.0
	for _, bar := range window {
		if bar.High > high {
			high = bar.High
		}
		if bar.Low < low {
			low = bar.Low
		}
		sum += bar.Close
	}

	last := bars[len(bars)-1]
	row := &SummaryRow{
		Symbol:        symbol,
		LastClose:     last.Close,
		Week52High:    high,
		Week52Low:     low,
		MeanClose:     sum / float64(len(window)),
		BarCount:      len(bars),
		FirstBarDate:  bars[0].Date.Format("2006-01-02"),
		LatestBarDate: last.Date.Format("2006-01-02"),
	}
	if high != 0 {
		row.PctFrom52High = (last.Close - high) / high * 100
	}
	if low != 0 {
		row.PctFrom52Low = (last.Close - low) / low * 100
	}
	if vol, err := analysis.Volatility(bars, Window1M); err == nil {
		row.Volatility = vol
	}
	if avgVol, err := analysis.AverageVolume(bars, 20); err == nil {
		row.AvgVolume20D = avgVol
	}

	return row, nil
}
