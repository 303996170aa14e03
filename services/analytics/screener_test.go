package analytics

import (
	"testing"

	"marketlens_backend/models"
	"marketlens_backend/services/marketdata"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int64) *int64     { return &v }
func bptr(v bool) *bool       { return &v }

func containsCriterion(matched []string, name string) bool {
	for _, m := range matched {
		if m == name {
			return true
		}
	}
	return false
}

// screenerFixture is an instrument whose closes rise 100..159 with constant
// volume 1000, quoted at 160 on 5x the average volume
func screenerFixture() (models.Instrument, *marketdata.Quote, []marketdata.Bar) {
	instrument := models.Instrument{Symbol: "AAA", Name: "Alpha Corp", Exchange: "NYSE", Sector: "Technology"}
	quote := &marketdata.Quote{Symbol: "AAA", Price: 160, ChangePercent: 2.5, Volume: 5000}
	return instrument, quote, risingBars(60, 100)
}

func TestEvaluateInstrumentNoFilters(t *testing.T) {
	instrument, quote, bars := screenerFixture()

	result, ok := evaluateInstrument(&ScreenerFilter{}, instrument, quote, bars)
	if !ok {
		t.Fatal("instrument should pass an empty filter")
	}
	if result.Symbol != "AAA" || result.Name != "Alpha Corp" || result.Exchange != "NYSE" || result.Sector != "Technology" {
		t.Errorf("instrument fields not carried over: %+v", result)
	}
	if result.Price != 160 || result.ChangePercent != 2.5 || result.Volume != 5000 {
		t.Errorf("quote fields not carried over: %+v", result)
	}
	if len(result.MatchedCriteria) != 0 {
		t.Errorf("MatchedCriteria = %v, want empty for an empty filter", result.MatchedCriteria)
	}
}

func TestEvaluateInstrumentPriceBounds(t *testing.T) {
	instrument, quote, bars := screenerFixture()

	if _, ok := evaluateInstrument(&ScreenerFilter{MinPrice: fptr(200)}, instrument, quote, bars); ok {
		t.Error("price 160 should fail min_price 200")
	}
	if _, ok := evaluateInstrument(&ScreenerFilter{MaxPrice: fptr(150)}, instrument, quote, bars); ok {
		t.Error("price 160 should fail max_price 150")
	}
	// Bounds are inclusive
	if _, ok := evaluateInstrument(&ScreenerFilter{MinPrice: fptr(160), MaxPrice: fptr(160)}, instrument, quote, bars); !ok {
		t.Error("price 160 should pass min_price 160 and max_price 160")
	}
}

func TestEvaluateInstrumentVolumeAndChange(t *testing.T) {
	instrument, quote, bars := screenerFixture()

	if _, ok := evaluateInstrument(&ScreenerFilter{MinVolume: iptr(6000)}, instrument, quote, bars); ok {
		t.Error("volume 5000 should fail min_volume 6000")
	}
	if _, ok := evaluateInstrument(&ScreenerFilter{MinChangePercent: fptr(3)}, instrument, quote, bars); ok {
		t.Error("change 2.5 should fail min_change_percent 3")
	}
	if _, ok := evaluateInstrument(&ScreenerFilter{MaxChangePercent: fptr(2)}, instrument, quote, bars); ok {
		t.Error("change 2.5 should fail max_change_percent 2")
	}
	filter := &ScreenerFilter{MinVolume: iptr(5000), MinChangePercent: fptr(2), MaxChangePercent: fptr(3)}
	if _, ok := evaluateInstrument(filter, instrument, quote, bars); !ok {
		t.Error("quote inside the volume and change bands should pass")
	}
}

func TestEvaluateInstrumentRSIBand(t *testing.T) {
	instrument, quote, bars := screenerFixture()

	// Monotonically rising closes saturate RSI at 100
	result, ok := evaluateInstrument(&ScreenerFilter{MinRSI: fptr(90)}, instrument, quote, bars)
	if !ok {
		t.Fatal("RSI 100 should pass min_rsi 90")
	}
	if result.Indicators["rsi"] != 100 {
		t.Errorf("Indicators[rsi] = %v, want 100", result.Indicators["rsi"])
	}
	if !containsCriterion(result.MatchedCriteria, "rsi") {
		t.Errorf("MatchedCriteria = %v, want rsi included", result.MatchedCriteria)
	}

	if _, ok := evaluateInstrument(&ScreenerFilter{MaxRSI: fptr(50)}, instrument, quote, bars); ok {
		t.Error("RSI 100 should fail max_rsi 50")
	}
	// Not enough history to compute RSI excludes the instrument
	if _, ok := evaluateInstrument(&ScreenerFilter{MinRSI: fptr(10)}, instrument, quote, risingBars(5, 100)); ok {
		t.Error("5 bars should not satisfy an RSI filter")
	}
}

func TestEvaluateInstrumentAboveSMA(t *testing.T) {
	instrument, quote, bars := screenerFixture()

	result, ok := evaluateInstrument(&ScreenerFilter{AboveSMA20: bptr(true), AboveSMA50: bptr(true)}, instrument, quote, bars)
	if !ok {
		t.Fatal("price 160 should pass above_sma20 and above_sma50")
	}
	// SMA20 over closes 140..159 is 149.5, SMA50 over 110..159 is 134.5
	if result.Indicators["sma20"] != 149.5 {
		t.Errorf("Indicators[sma20] = %v, want 149.5", result.Indicators["sma20"])
	}
	if result.Indicators["sma50"] != 134.5 {
		t.Errorf("Indicators[sma50] = %v, want 134.5", result.Indicators["sma50"])
	}
	if !containsCriterion(result.MatchedCriteria, "above_sma20") || !containsCriterion(result.MatchedCriteria, "above_sma50") {
		t.Errorf("MatchedCriteria = %v, want both SMA criteria", result.MatchedCriteria)
	}

	below := &marketdata.Quote{Symbol: "AAA", Price: 100, Volume: 5000}
	if _, ok := evaluateInstrument(&ScreenerFilter{AboveSMA20: bptr(true)}, instrument, below, bars); ok {
		t.Error("price 100 below the 20-day SMA should fail above_sma20")
	}
	// 60 bars cannot produce a 200-day SMA
	if _, ok := evaluateInstrument(&ScreenerFilter{AboveSMA200: bptr(true)}, instrument, quote, bars); ok {
		t.Error("60 bars should not satisfy above_sma200")
	}
}

func TestEvaluateInstrumentMACDBullish(t *testing.T) {
	instrument, quote, bars := screenerFixture()

	result, ok := evaluateInstrument(&ScreenerFilter{MACDBullish: bptr(true)}, instrument, quote, bars)
	if !ok {
		t.Fatal("rising closes should have a positive MACD histogram")
	}
	if result.Indicators["macd_hist"] <= 0 {
		t.Errorf("Indicators[macd_hist] = %v, want > 0", result.Indicators["macd_hist"])
	}
	if !containsCriterion(result.MatchedCriteria, "macd_bullish") {
		t.Errorf("MatchedCriteria = %v, want macd_bullish included", result.MatchedCriteria)
	}

	// Reverse the closes so the trend points down
	falling := make([]marketdata.Bar, len(bars))
	for i := range bars {
		falling[i] = bars[len(bars)-1-i]
		falling[i].Date = bars[i].Date
	}
	if _, ok := evaluateInstrument(&ScreenerFilter{MACDBullish: bptr(true)}, instrument, quote, falling); ok {
		t.Error("falling closes should fail macd_bullish")
	}
}

func TestEvaluateInstrumentVolumeSpike(t *testing.T) {
	instrument, quote, bars := screenerFixture()

	// Quote volume 5000 against a 20-day average of 1000
	result, ok := evaluateInstrument(&ScreenerFilter{VolumeSpike: fptr(3)}, instrument, quote, bars)
	if !ok {
		t.Fatal("5x average volume should pass a 3x spike filter")
	}
	if result.Indicators["avg_volume_20d"] != 1000 {
		t.Errorf("Indicators[avg_volume_20d] = %v, want 1000", result.Indicators["avg_volume_20d"])
	}
	if !containsCriterion(result.MatchedCriteria, "volume_spike") {
		t.Errorf("MatchedCriteria = %v, want volume_spike included", result.MatchedCriteria)
	}

	if _, ok := evaluateInstrument(&ScreenerFilter{VolumeSpike: fptr(10)}, instrument, quote, bars); ok {
		t.Error("5x average volume should fail a 10x spike filter")
	}
	if _, ok := evaluateInstrument(&ScreenerFilter{VolumeSpike: fptr(2)}, instrument, quote, nil); ok {
		t.Error("a symbol without bars should fail a volume spike filter")
	}
}

func TestSortResultsByPriceDesc(t *testing.T) {
	results := []ScreenerResult{
		{Symbol: "LOW", Price: 10},
		{Symbol: "HIGH", Price: 30},
		{Symbol: "MID", Price: 20},
	}

	sortResults(results, "price", "desc")
	if results[0].Symbol != "HIGH" || results[2].Symbol != "LOW" {
		t.Errorf("desc order = %s,%s,%s, want HIGH,MID,LOW",
			results[0].Symbol, results[1].Symbol, results[2].Symbol)
	}

	sortResults(results, "price", "asc")
	if results[0].Symbol != "LOW" || results[2].Symbol != "HIGH" {
		t.Errorf("asc order = %s,%s,%s, want LOW,MID,HIGH",
			results[0].Symbol, results[1].Symbol, results[2].Symbol)
	}
}
