package services

import (
	"testing"
	"time"

	"marketlens_backend/services/marketdata"
)

func TestBarStoreSetBarsSortsByDate(t *testing.T) {
	store := NewInMemoryBarStore()
	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	store.SetBars("AAPL", []marketdata.Bar{
		{Date: d3, Close: 3},
		{Date: d1, Close: 1},
		{Date: d2, Close: 2},
	})

	bars := store.GetBars("AAPL")
	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(bars))
	}
	if !bars[0].Date.Equal(d1) || !bars[2].Date.Equal(d3) {
		t.Errorf("bars not in ascending date order: %v, %v, %v",
			bars[0].Date, bars[1].Date, bars[2].Date)
	}
}

func TestBarStoreGetBarsReturnsCopy(t *testing.T) {
	store := NewInMemoryBarStore()
	store.SetBars("AAPL", []marketdata.Bar{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 100},
	})

	bars := store.GetBars("AAPL")
	bars[0].Close = 0

	again := store.GetBars("AAPL")
	if again[0].Close != 100 {
		t.Errorf("mutating returned bars changed stored data, got %v", again[0].Close)
	}
}

func TestBarStoreGetBarsMissingSymbol(t *testing.T) {
	store := NewInMemoryBarStore()
	if bars := store.GetBars("NOPE"); bars != nil {
		t.Errorf("expected nil for missing symbol, got %v", bars)
	}
}

func TestBarStoreQuotes(t *testing.T) {
	store := NewInMemoryBarStore()
	store.SetQuote(marketdata.Quote{Symbol: "AAPL", Price: 190.5})
	store.SetQuote(marketdata.Quote{Symbol: "MSFT", Price: 430.1})

	q, ok := store.GetQuote("AAPL")
	if !ok || q.Price != 190.5 {
		t.Errorf("GetQuote(AAPL) = %v/%v, want 190.5/true", q, ok)
	}
	if _, ok := store.GetQuote("NOPE"); ok {
		t.Error("expected miss for unknown symbol")
	}

	all := store.AllQuotes()
	if len(all) != 2 {
		t.Errorf("AllQuotes returned %d quotes, want 2", len(all))
	}
}

func TestBarStoreSymbolsAndCount(t *testing.T) {
	store := NewInMemoryBarStore()
	store.SetBars("MSFT", []marketdata.Bar{{Close: 1}})
	store.SetBars("AAPL", []marketdata.Bar{{Close: 1}})

	symbols := store.Symbols()
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Errorf("Symbols = %v, want [AAPL MSFT]", symbols)
	}
	if store.Count() != 2 {
		t.Errorf("Count = %d, want 2", store.Count())
	}
}

func TestBarStoreMarkSynced(t *testing.T) {
	store := NewInMemoryBarStore()
	if store.LastSyncAt() != nil {
		t.Error("fresh store should have no last sync time")
	}

	now := time.Now()
	store.MarkSynced(now)

	got := store.LastSyncAt()
	if got == nil || !got.Equal(now) {
		t.Errorf("LastSyncAt = %v, want %v", got, now)
	}
}
