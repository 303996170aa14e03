package scheduler

import (
	"testing"
	"time"
)

func TestNewMarketCalendarInvalidTimezone(t *testing.T) {
	if _, err := NewMarketCalendar("Not/AZone"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestIsOpenAt(t *testing.T) {
	cal, err := NewMarketCalendar("America/New_York")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}
	ny := cal.Location()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday mid-session", time.Date(2024, 1, 8, 12, 0, 0, 0, ny), true},
		{"monday before open", time.Date(2024, 1, 8, 9, 29, 0, 0, ny), false},
		{"monday at open", time.Date(2024, 1, 8, 9, 30, 0, 0, ny), true},
		{"monday last minute", time.Date(2024, 1, 8, 15, 59, 0, 0, ny), true},
		{"monday at close", time.Date(2024, 1, 8, 16, 0, 0, 0, ny), false},
		{"saturday", time.Date(2024, 1, 6, 12, 0, 0, 0, ny), false},
		{"sunday", time.Date(2024, 1, 7, 12, 0, 0, 0, ny), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.IsOpenAt(tt.at); got != tt.want {
				t.Errorf("IsOpenAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestIsOpenAtConvertsFromUTC(t *testing.T) {
	cal, err := NewMarketCalendar("America/New_York")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}

	// 14:30 UTC on a January Monday is 09:30 EST, the opening minute
	openUTC := time.Date(2024, 1, 8, 14, 30, 0, 0, time.UTC)
	if !cal.IsOpenAt(openUTC) {
		t.Error("expected market open at 14:30 UTC in January")
	}

	// 21:00 UTC is 16:00 EST, already closed
	closedUTC := time.Date(2024, 1, 8, 21, 0, 0, 0, time.UTC)
	if cal.IsOpenAt(closedUTC) {
		t.Error("expected market closed at 21:00 UTC in January")
	}
}
