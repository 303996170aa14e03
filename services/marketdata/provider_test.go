package marketdata

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct{}

func (stubProvider) DailyBars(ctx context.Context, symbol string, days int) ([]Bar, error) {
	return []Bar{}, nil
}

func (stubProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	return &Quote{Symbol: symbol, Price: 100}, nil
}

func (stubProvider) BatchQuotes(ctx context.Context, symbols []string) ([]Quote, error) {
	return []Quote{}, nil
}

func (stubProvider) Name() string { return "stub" }

func TestNewRegistryStartsDisabled(t *testing.T) {
	r := NewRegistry()

	if r.Available() {
		t.Error("new registry should not be available")
	}
	if r.Provider() == nil {
		t.Fatal("registry provider should never be nil")
	}
	if r.Provider().Name() != "disabled" {
		t.Errorf("new registry provider = %q, want disabled placeholder", r.Provider().Name())
	}
}

func TestDisabledProviderReturnsUnavailable(t *testing.T) {
	r := NewRegistry()
	p := r.Provider()
	ctx := context.Background()

	if _, err := p.Quote(ctx, "SPY"); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("disabled Quote error = %v, want ErrProviderUnavailable", err)
	}
	if _, err := p.DailyBars(ctx, "SPY", 30); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("disabled DailyBars error = %v, want ErrProviderUnavailable", err)
	}
	if _, err := p.BatchQuotes(ctx, []string{"SPY"}); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("disabled BatchQuotes error = %v, want ErrProviderUnavailable", err)
	}
}

func TestRegistryInstall(t *testing.T) {
	r := NewRegistry()

	r.Install(stubProvider{}, true)
	if !r.Available() {
		t.Error("registry should be available after installing a working provider")
	}
	if r.Provider().Name() != "stub" {
		t.Errorf("registry provider = %q, want stub", r.Provider().Name())
	}
}

func TestRegistryInstallNilFallsBackToDisabled(t *testing.T) {
	r := NewRegistry()
	r.Install(stubProvider{}, true)

	// A nil provider must never be exposed, even if marked available
	r.Install(nil, true)
	if r.Available() {
		t.Error("registry with nil provider must report unavailable")
	}
	if r.Provider() == nil {
		t.Fatal("registry provider should never be nil")
	}
	if _, err := r.Provider().Quote(context.Background(), "SPY"); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("fallback provider error = %v, want ErrProviderUnavailable", err)
	}
}

func TestInitUnknownProviderDisablesWithoutError(t *testing.T) {
	Init("no-such-provider")

	if GlobalRegistry.Available() {
		t.Error("unknown provider name should leave the registry unavailable")
	}
	if _, err := GlobalRegistry.Provider().Quote(context.Background(), ProbeSymbol); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("disabled registry Quote error = %v, want ErrProviderUnavailable", err)
	}
}

func TestRangeForDays(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{5, "5d"},
		{22, "1mo"},
		{60, "3mo"},
		{130, "6mo"},
		{270, "1y"},
		{500, "2y"},
		{1500, "5y"},
	}

	for _, tt := range tests {
		if got := rangeForDays(tt.days); got != tt.want {
			t.Errorf("rangeForDays(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}
