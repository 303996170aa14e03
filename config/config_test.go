package config

import "testing"

func TestAppNameConstants(t *testing.T) {
	if AppName == "" {
		t.Error("AppName must not be empty")
	}
	if AppNameLegacy == "" {
		t.Error("AppNameLegacy must not be empty")
	}
	if AppName == AppNameLegacy {
		t.Error("AppName and AppNameLegacy must differ")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("MARKET_TIMEZONE", "")
	t.Setenv("MARKET_DATA_PROVIDER", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("default Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBName != "marketlens_db" {
		t.Errorf("default DBName = %q, want marketlens_db", cfg.DBName)
	}
	if cfg.MarketTimezone != "America/New_York" {
		t.Errorf("default MarketTimezone = %q, want America/New_York", cfg.MarketTimezone)
	}
	if cfg.ProviderName != "yahoo" {
		t.Errorf("default ProviderName = %q, want yahoo", cfg.ProviderName)
	}
	if AppConfig != cfg {
		t.Error("LoadConfig should set the global AppConfig")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MARKET_DATA_PROVIDER", "disabled")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.ProviderName != "disabled" {
		t.Errorf("ProviderName = %q, want disabled", cfg.ProviderName)
	}
}

func TestMaskHost(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"db", "***"},
		{"localhost", "loc***"},
		{"db.internal.example.com", "db.inter***xample.com"},
	}

	for _, tt := range tests {
		if got := maskHost(tt.host); got != tt.want {
			t.Errorf("maskHost(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}
