package marketdata

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrProviderUnavailable is returned by the disabled placeholder provider and
// by callers that check availability before use.
var ErrProviderUnavailable = errors.New("market data provider unavailable")

// ProbeSymbol is the symbol used to verify upstream connectivity at startup
const ProbeSymbol = "SPY"

// Bar represents a single daily candlestick bar
type Bar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Quote represents a delayed or realtime quote for a symbol
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Exchange      string    `json:"exchange"`
	Currency      string    `json:"currency"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PrevClose     float64   `json:"prev_close"`
	Volume        int64     `json:"volume"`
	AvgVolume3M   int64     `json:"avg_volume_3m"`
	MarketCap     float64   `json:"market_cap"`
	Week52High    float64   `json:"week52_high"`
	Week52Low     float64   `json:"week52_low"`
	Timestamp     time.Time `json:"timestamp"`
}

// Provider defines the interface for fetching market data
type Provider interface {
	DailyBars(ctx context.Context, symbol string, days int) ([]Bar, error)
	Quote(ctx context.Context, symbol string) (*Quote, error)
	BatchQuotes(ctx context.Context, symbols []string) ([]Quote, error)
	Name() string
}

// disabledProvider is the placeholder installed when the upstream provider
// cannot be reached at startup. Every call fails with ErrProviderUnavailable
// so callers can degrade instead of crashing.
type disabledProvider struct{}

func (disabledProvider) DailyBars(ctx context.Context, symbol string, days int) ([]Bar, error) {
	return nil, ErrProviderUnavailable
}

func (disabledProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	return nil, ErrProviderUnavailable
}

func (disabledProvider) BatchQuotes(ctx context.Context, symbols []string) ([]Quote, error) {
	return nil, ErrProviderUnavailable
}

func (disabledProvider) Name() string { return "disabled" }

// Registry holds the active provider and its availability flag
type Registry struct {
	mu        sync.RWMutex
	provider  Provider
	available bool
}

// Global provider registry
var GlobalRegistry = NewRegistry()

// NewRegistry creates a registry with the disabled placeholder installed
func NewRegistry() *Registry {
	return &Registry{provider: disabledProvider{}}
}

// Install sets the active provider and availability flag
func (r *Registry) Install(p Provider, available bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p == nil {
		p = disabledProvider{}
		available = false
	}
	r.provider = p
	r.available = available
}

// Provider returns the active provider. It is never nil; when the upstream
// is unavailable it is the disabled placeholder.
func (r *Registry) Provider() Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.provider
}

// Available reports whether the upstream provider loaded successfully
func (r *Registry) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.available
}

// Init builds the configured provider and probes it. Probe failure is not an
// error: the registry keeps the disabled placeholder and reports
// Available() == false, and the rest of the application checks the flag
// before use.
func Init(providerName string) {
	var p Provider
	switch providerName {
	case "yahoo", "":
		p = NewYahooProvider()
	default:
		log.Printf("Unknown market data provider %q, provider disabled", providerName)
		GlobalRegistry.Install(nil, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := p.Quote(ctx, ProbeSymbol); err != nil {
		log.Printf("Market data provider %s unavailable: %v", p.Name(), err)
		log.Println("Continuing with provider disabled; analytics will serve stored data only")
		GlobalRegistry.Install(nil, false)
		return
	}

	GlobalRegistry.Install(p, true)
	log.Printf("Market data provider %s initialized", p.Name())
}
