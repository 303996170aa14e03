package quotecache

import (
	"fmt"
	"testing"
	"time"

	"marketlens_backend/services/marketdata"
)

func TestCacheSetGet(t *testing.T) {
	c := New(time.Minute)
	c.Set(marketdata.Quote{Symbol: "AAPL", Price: 190.5})

	got, ok := c.Get("AAPL")
	if !ok {
		t.Fatal("expected cache hit for AAPL")
	}
	if got.Price != 190.5 {
		t.Errorf("cached price = %v, want 190.5", got.Price)
	}

	if _, ok := c.Get("MSFT"); ok {
		t.Error("expected cache miss for symbol never set")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Set(marketdata.Quote{Symbol: "AAPL", Price: 190.5})

	if _, ok := c.Get("AAPL"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("AAPL"); ok {
		t.Error("expected miss after TTL expired")
	}
}

func TestCacheReturnsCopy(t *testing.T) {
	c := New(time.Minute)
	c.Set(marketdata.Quote{Symbol: "AAPL", Price: 190.5})

	first, _ := c.Get("AAPL")
	first.Price = 0

	second, _ := c.Get("AAPL")
	if second.Price != 190.5 {
		t.Errorf("mutating a returned quote changed the cached value, got %v", second.Price)
	}
}

func TestCacheDelete(t *testing.T) {
	c := New(time.Minute)
	c.Set(marketdata.Quote{Symbol: "AAPL", Price: 190.5})
	c.Delete("AAPL")

	if _, ok := c.Get("AAPL"); ok {
		t.Error("expected miss after delete")
	}
}

func TestCacheSetAll(t *testing.T) {
	c := New(time.Minute)
	c.SetAll([]marketdata.Quote{
		{Symbol: "AAPL", Price: 190.5},
		{Symbol: "MSFT", Price: 430.1},
		{Symbol: "GOOGL", Price: 175.2},
	})

	for _, symbol := range []string{"AAPL", "MSFT", "GOOGL"} {
		if _, ok := c.Get(symbol); !ok {
			t.Errorf("expected hit for %s after SetAll", symbol)
		}
	}
}

func TestCacheStats(t *testing.T) {
	c := New(time.Minute)
	c.Set(marketdata.Quote{Symbol: "AAPL", Price: 190.5})

	c.Get("AAPL") // hit
	c.Get("MSFT") // miss
	c.Get("AAPL") // hit

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
	if stats.Entries != 1 {
		t.Errorf("entries = %d, want 1", stats.Entries)
	}
}

func TestCacheShardDistribution(t *testing.T) {
	c := New(time.Minute)
	for i := 0; i < 200; i++ {
		c.Set(marketdata.Quote{Symbol: fmt.Sprintf("SYM%d", i), Price: float64(i)})
	}

	stats := c.Stats()
	if stats.Entries != 200 {
		t.Errorf("entries = %d, want 200", stats.Entries)
	}

	for i := 0; i < 200; i++ {
		symbol := fmt.Sprintf("SYM%d", i)
		got, ok := c.Get(symbol)
		if !ok {
			t.Fatalf("expected hit for %s", symbol)
		}
		if got.Price != float64(i) {
			t.Errorf("%s price = %v, want %v", symbol, got.Price, float64(i))
		}
	}
}
