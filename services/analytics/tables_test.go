package analytics

import (
	"testing"
	"time"

	"marketlens_backend/services"
	"marketlens_backend/services/marketdata"
)

func testStore() *services.InMemoryBarStore {
	store := services.NewInMemoryBarStore()
	store.SetQuote(marketdata.Quote{Symbol: "AAA", Price: 10, ChangePercent: 5.0, Volume: 1000})
	store.SetQuote(marketdata.Quote{Symbol: "BBB", Price: 20, ChangePercent: -3.0, Volume: 9000})
	store.SetQuote(marketdata.Quote{Symbol: "CCC", Price: 30, ChangePercent: 1.5, Volume: 4000})
	return store
}

func risingBars(n int, start float64) []marketdata.Bar {
	first := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]marketdata.Bar, n)
	for i := 0; i < n; i++ {
		price := start + float64(i)
		bars[i] = marketdata.Bar{
			Date:     first.AddDate(0, 0, i),
			Open:     price,
			High:     price + 1,
			Low:      price - 1,
			Close:    price,
			AdjClose: price,
			Volume:   1000,
		}
	}
	return bars
}

func TestTopMoversGainers(t *testing.T) {
	svc := NewTableService(testStore())

	rows, err := svc.TopMovers(MoversGainers, 10)
	if err != nil {
		t.Fatalf("TopMovers unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0].Symbol != "AAA" || rows[1].Symbol != "CCC" || rows[2].Symbol != "BBB" {
		t.Errorf("gainers order = %s,%s,%s, want AAA,CCC,BBB",
			rows[0].Symbol, rows[1].Symbol, rows[2].Symbol)
	}
	if rows[0].Rank != 1 || rows[2].Rank != 3 {
		t.Errorf("ranks = %d..%d, want 1..3", rows[0].Rank, rows[2].Rank)
	}
}

func TestTopMoversLosers(t *testing.T) {
	svc := NewTableService(testStore())

	rows, err := svc.TopMovers(MoversLosers, 10)
	if err != nil {
		t.Fatalf("TopMovers unexpected error: %v", err)
	}
	if rows[0].Symbol != "BBB" {
		t.Errorf("top loser = %s, want BBB", rows[0].Symbol)
	}
}

func TestTopMoversMostActive(t *testing.T) {
	svc := NewTableService(testStore())

	rows, err := svc.TopMovers(MoversMostActive, 10)
	if err != nil {
		t.Fatalf("TopMovers unexpected error: %v", err)
	}
	if rows[0].Symbol != "BBB" || rows[0].Volume != 9000 {
		t.Errorf("most active = %s/%d, want BBB/9000", rows[0].Symbol, rows[0].Volume)
	}
}

func TestTopMoversLimit(t *testing.T) {
	svc := NewTableService(testStore())

	rows, err := svc.TopMovers(MoversGainers, 2)
	if err != nil {
		t.Fatalf("TopMovers unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestTopMoversUnknownKind(t *testing.T) {
	svc := NewTableService(testStore())

	if _, err := svc.TopMovers("volume_weighted", 10); err == nil {
		t.Error("expected error for unknown movers kind")
	}
}

func TestTopMoversEmptyStore(t *testing.T) {
	svc := NewTableService(services.NewInMemoryBarStore())

	if _, err := svc.TopMovers(MoversGainers, 10); err == nil {
		t.Error("expected error when no quotes are stored")
	}
}

func TestPerformanceRows(t *testing.T) {
	store := services.NewInMemoryBarStore()
	store.SetBars("AAA", risingBars(30, 100))
	store.SetBars("ONE", risingBars(1, 100)) // too short, must be skipped

	svc := NewTableService(store)
	rows := svc.PerformanceRows([]string{"AAA", "ONE", "MISSING"})

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.Symbol != "AAA" {
		t.Errorf("symbol = %s, want AAA", row.Symbol)
	}

	// Last close 129, previous 128: 1-day return is 1/128 percent
	want1D := 1.0 / 128.0 * 100
	if diff := row.Return1D - want1D; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Return1D = %v, want %v", row.Return1D, want1D)
	}
	// Monotonically rising closes: RSI saturates at 100
	if row.RSI != 100 {
		t.Errorf("RSI = %v, want 100", row.RSI)
	}
	if row.AvgVolume != 1000 {
		t.Errorf("AvgVolume = %v, want 1000", row.AvgVolume)
	}
}

func TestPerformanceTableSorted(t *testing.T) {
	store := services.NewInMemoryBarStore()
	store.SetBars("SLOW", risingBars(40, 1000)) // +1/day on a high base, small percent return
	store.SetBars("FAST", risingBars(40, 10))   // +1/day on a low base, large percent return

	svc := NewTableService(store)
	rows := svc.PerformanceTable()

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Symbol != "FAST" {
		t.Errorf("top performer = %s, want FAST", rows[0].Symbol)
	}
}

func TestSummary(t *testing.T) {
	store := services.NewInMemoryBarStore()
	store.SetBars("AAA", risingBars(30, 100))

	svc := NewTableService(store)
	row, err := svc.Summary("AAA")
	if err != nil {
		t.Fatalf("Summary unexpected error: %v", err)
	}

	if row.LastClose != 129 {
		t.Errorf("LastClose = %v, want 129", row.LastClose)
	}
	if row.Week52High != 130 {
		t.Errorf("Week52High = %v, want 130", row.Week52High)
	}
	if row.Week52Low != 99 {
		t.Errorf("Week52Low = %v, want 99", row.Week52Low)
	}
	if row.BarCount != 30 {
		t.Errorf("BarCount = %d, want 30", row.BarCount)
	}
	if row.FirstBarDate != "2024-01-02" {
		t.Errorf("FirstBarDate = %s, want 2024-01-02", row.FirstBarDate)
	}
	if row.LatestBarDate != "2024-01-31" {
		t.Errorf("LatestBarDate = %s, want 2024-01-31", row.LatestBarDate)
	}
}

func TestSummaryMissingSymbol(t *testing.T) {
	svc := NewTableService(services.NewInMemoryBarStore())

	if _, err := svc.Summary("NOPE"); err == nil {
		t.Error("expected error for symbol without bars")
	}
}
