package analysis

import (
	"fmt"
	"math"
	"time"

	"marketlens_backend/models"
	"marketlens_backend/services/marketdata"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Standard indicator parameters
const (
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	RSIPeriod        = 14
	BollingerPeriod  = 20
)

// TechnicalAnalysis calculates indicators over bar series and persists them
type TechnicalAnalysis struct {
	db *gorm.DB
}

// NewTechnicalAnalysis creates a new technical analysis instance
func NewTechnicalAnalysis(db *gorm.DB) *TechnicalAnalysis {
	return &TechnicalAnalysis{db: db}
}

// Closes extracts the close series from bars in chronological order
func Closes(bars []marketdata.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	return closes
}

// SMA returns the simple moving average of the last `period` values
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("invalid SMA period %d", period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("insufficient data for SMA%d calculation", period)
	}

	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// EMASeries returns the exponential moving average series. The first period
// values are seeded with the SMA of the initial window.
func EMASeries(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("invalid EMA period %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("insufficient data for EMA%d calculation", period)
	}

	multiplier := 2.0 / float64(period+1)
	series := make([]float64, 0, len(values)-period+1)

	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	ema := seed / float64(period)
	series = append(series, ema)

	for _, v := range values[period:] {
		ema = (v-ema)*multiplier + ema
		series = append(series, ema)
	}
	return series, nil
}

// EMA returns the latest exponential moving average value
func EMA(values []float64, period int) (float64, error) {
	series, err := EMASeries(values, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// RSI returns the Wilder-smoothed relative strength index
func RSI(values []float64, period int) (float64, error) {
	if len(values) < period+1 {
		return 0, fmt.Errorf("insufficient data for RSI%d calculation", period)
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 1; i <= period; i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing over the remaining values
	for i := period + 1; i < len(values); i++ {
		change := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// MACDResult holds MACD calculation results
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD calculates the 12/26/9 MACD with a real signal line computed as the
// 9-period EMA of the MACD series
func MACD(values []float64) (*MACDResult, error) {
	if len(values) < MACDSlowPeriod+MACDSignalPeriod {
		return nil, fmt.Errorf("insufficient data for MACD calculation")
	}

	fastSeries, err := EMASeries(values, MACDFastPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate fast EMA: %w", err)
	}
	slowSeries, err := EMASeries(values, MACDSlowPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate slow EMA: %w", err)
	}

	// Align the fast series to the slow series start
	offset := len(fastSeries) - len(slowSeries)
	macdSeries := make([]float64, len(slowSeries))
	for i := range slowSeries {
		macdSeries[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalSeries, err := EMASeries(macdSeries, MACDSignalPeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate signal line: %w", err)
	}

	macd := macdSeries[len(macdSeries)-1]
	signal := signalSeries[len(signalSeries)-1]
	return &MACDResult{
		MACD:      macd,
		Signal:    signal,
		Histogram: macd - signal,
	}, nil
}

// BollingerBands holds Bollinger band values
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Bollinger calculates 2-sigma Bollinger bands over the last `period` values
func Bollinger(values []float64, period int) (*BollingerBands, error) {
	middle, err := SMA(values, period)
	if err != nil {
		return nil, err
	}

	variance := 0.0
	for _, v := range values[len(values)-period:] {
		diff := v - middle
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(period))

	return &BollingerBands{
		Upper:  middle + 2*stdDev,
		Middle: middle,
		Lower:  middle - 2*stdDev,
	}, nil
}

// Return calculates the percent return over the last `tradingDays` bars
func Return(bars []marketdata.Bar, tradingDays int) (float64, error) {
	if tradingDays <= 0 {
		return 0, fmt.Errorf("invalid return window %d", tradingDays)
	}
	if len(bars) < tradingDays+1 {
		return 0, fmt.Errorf("insufficient data for %d-day return", tradingDays)
	}

	latest := bars[len(bars)-1].AdjClose
	base := bars[len(bars)-1-tradingDays].AdjClose
	if base == 0 {
		return 0, fmt.Errorf("zero base price for return calculation")
	}
	return (latest - base) / base * 100, nil
}

// AverageVolume returns the mean volume of the last `period` bars
func AverageVolume(bars []marketdata.Bar, period int) (float64, error) {
	if len(bars) < period || period <= 0 {
		return 0, fmt.Errorf("insufficient data for %d-day average volume", period)
	}

	sum := 0.0
	for _, bar := range bars[len(bars)-period:] {
		sum += float64(bar.Volume)
	}
	return sum / float64(period), nil
}

// Volatility returns the annualized standard deviation of daily returns over
// the last `period` bars, in percent
func Volatility(bars []marketdata.Bar, period int) (float64, error) {
	if len(bars) < period+1 || period <= 1 {
		return 0, fmt.Errorf("insufficient data for %d-day volatility", period)
	}

	window := bars[len(bars)-period-1:]
	returns := make([]float64, 0, period)
	for i := 1; i < len(window); i++ {
		if window[i-1].AdjClose == 0 {
			continue
		}
		returns = append(returns, (window[i].AdjClose-window[i-1].AdjClose)/window[i-1].AdjClose)
	}
	if len(returns) < 2 {
		return 0, fmt.Errorf("insufficient returns for volatility")
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(252) * 100, nil
}

// SaveIndicator upserts a calculated indicator row
func (ta *TechnicalAnalysis) SaveIndicator(instrumentID uint, date time.Time, indicatorType string, period int, value, signal, histogram float64) error {
	indicator := models.IndicatorValue{
		InstrumentID: instrumentID,
		Date:         date,
		Type:         indicatorType,
		Period:       period,
		Value:        decimal.NewFromFloat(value),
		Signal:       decimal.NewFromFloat(signal),
		Histogram:    decimal.NewFromFloat(histogram),
	}

	var existing models.IndicatorValue
	err := ta.db.Where("instrument_id = ? AND date = ? AND type = ? AND period = ?",
		instrumentID, date, indicatorType, period).First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		return ta.db.Create(&indicator).Error
	} else if err != nil {
		return err
	}

	return ta.db.Model(&existing).Updates(indicator).Error
}

// CalculateAllIndicators computes and persists the standard indicator set for
// one instrument from its bar series
func (ta *TechnicalAnalysis) CalculateAllIndicators(instrumentID uint, bars []marketdata.Bar, date time.Time) error {
	if len(bars) == 0 {
		return fmt.Errorf("no bar data for instrument %d", instrumentID)
	}

	closes := Closes(bars)

	for _, period := range []int{10, 20, 50, 200} {
		if sma, err := SMA(closes, period); err == nil {
			ta.SaveIndicator(instrumentID, date, "SMA", period, sma, 0, 0)
		}
	}

	for _, period := range []int{12, 26, 50} {
		if ema, err := EMA(closes, period); err == nil {
			ta.SaveIndicator(instrumentID, date, "EMA", period, ema, 0, 0)
		}
	}

	if rsi, err := RSI(closes, RSIPeriod); err == nil {
		ta.SaveIndicator(instrumentID, date, "RSI", RSIPeriod, rsi, 0, 0)
	}

	if macd, err := MACD(closes); err == nil {
		ta.SaveIndicator(instrumentID, date, "MACD", 0, macd.MACD, macd.Signal, macd.Histogram)
	}

	if bands, err := Bollinger(closes, BollingerPeriod); err == nil {
		ta.SaveIndicator(instrumentID, date, "BBANDS_UPPER", BollingerPeriod, bands.Upper, 0, 0)
		ta.SaveIndicator(instrumentID, date, "BBANDS_LOWER", BollingerPeriod, bands.Lower, 0, 0)
	}

	return nil
}
