package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func chartTestProvider(t *testing.T, body string) *YahooProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	p := NewYahooProvider()
	p.chartURL = srv.URL + "/"
	return p
}

func TestDailyBarsTruncatesRaggedSeries(t *testing.T) {
	// Three timestamps, but open has 2 entries and volume only 1; the bar
	// count follows the shortest series instead of indexing past its end
	body := `{"chart":{"result":[{"meta":{"symbol":"AAA"},
		"timestamp":[1704153600,1704240000,1704326400],
		"indicators":{"quote":[{
			"open":[99,100],
			"high":[101,102,103],
			"low":[97,98,99],
			"close":[100,101,102],
			"volume":[1000]}],
		"adjclose":[{"adjclose":[100,101,102]}]}}],"error":null}}`

	p := chartTestProvider(t, body)
	bars, err := p.DailyBars(context.Background(), "AAA", 30)
	if err != nil {
		t.Fatalf("DailyBars unexpected error: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("got %d bars, want 1", len(bars))
	}
	bar := bars[0]
	if bar.Open != 99 || bar.High != 101 || bar.Low != 97 || bar.Close != 100 || bar.Volume != 1000 {
		t.Errorf("bar = %+v, want open=99 high=101 low=97 close=100 volume=1000", bar)
	}
	if bar.AdjClose != 100 {
		t.Errorf("AdjClose = %v, want 100", bar.AdjClose)
	}
}

func TestDailyBarsSkipsZeroCloseSessions(t *testing.T) {
	body := `{"chart":{"result":[{"meta":{"symbol":"AAA"},
		"timestamp":[1704153600,1704240000,1704326400],
		"indicators":{"quote":[{
			"open":[99,0,101],
			"high":[101,0,103],
			"low":[97,0,99],
			"close":[100,0,102],
			"volume":[1000,0,1200]}],
		"adjclose":[{"adjclose":[100,0,102]}]}}],"error":null}}`

	p := chartTestProvider(t, body)
	bars, err := p.DailyBars(context.Background(), "AAA", 30)
	if err != nil {
		t.Fatalf("DailyBars unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[0].Close != 100 || bars[1].Close != 102 {
		t.Errorf("closes = %v,%v, want 100,102", bars[0].Close, bars[1].Close)
	}
}

func TestDailyBarsChartError(t *testing.T) {
	body := `{"chart":{"result":[],"error":{"code":"Not Found","description":"No data found"}}}`

	p := chartTestProvider(t, body)
	if _, err := p.DailyBars(context.Background(), "NOPE", 30); err == nil {
		t.Error("expected error when the chart API reports one")
	}
}
