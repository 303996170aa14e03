package scheduler

import (
	"testing"

	"marketlens_backend/models"
	"marketlens_backend/services/marketdata"

	"github.com/shopspring/decimal"
)

func TestAlertShouldTrigger(t *testing.T) {
	// Down 5 percent on 3x the 3-month average volume
	quote := &marketdata.Quote{
		Symbol:        "AAA",
		Price:         100,
		ChangePercent: -5,
		Volume:        3000,
		AvgVolume3M:   1000,
	}

	tests := []struct {
		name      string
		alertType string
		target    float64
		want      bool
	}{
		{"price above met at the target", models.AlertTypePriceAbove, 100, true},
		{"price above below the target", models.AlertTypePriceAbove, 100.5, false},
		{"price below met at the target", models.AlertTypePriceBelow, 100, true},
		{"price below above the target", models.AlertTypePriceBelow, 99.5, false},
		{"percent change fires on drops", models.AlertTypePercentChange, 5, true},
		{"percent change under the target", models.AlertTypePercentChange, 5.5, false},
		{"volume spike met at the target ratio", models.AlertTypeVolumeSpike, 3, true},
		{"volume spike under the target ratio", models.AlertTypeVolumeSpike, 3.5, false},
		{"unknown alert type never fires", "price_cross", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := &models.PriceAlert{
				AlertType:   tt.alertType,
				TargetValue: decimal.NewFromFloat(tt.target),
			}
			if got := alertShouldTrigger(alert, quote); got != tt.want {
				t.Errorf("alertShouldTrigger(%s, target %v) = %v, want %v",
					tt.alertType, tt.target, got, tt.want)
			}
		})
	}
}

func TestAlertVolumeSpikeWithoutBaseline(t *testing.T) {
	alert := &models.PriceAlert{
		AlertType:   models.AlertTypeVolumeSpike,
		TargetValue: decimal.NewFromFloat(1),
	}
	quote := &marketdata.Quote{Symbol: "AAA", Price: 100, Volume: 5000}

	if alertShouldTrigger(alert, quote) {
		t.Error("volume spike must not fire when the 3-month average volume is unknown")
	}
}
