package scheduler

import (
	"fmt"
	"time"
)

// Regular US equity session, exchange-local time
const (
	MarketOpenHour    = 9
	MarketOpenMinute  = 30
	MarketCloseHour   = 16
	MarketCloseMinute = 0
)

// MarketCalendar answers market-hours questions for one exchange timezone
type MarketCalendar struct {
	location *time.Location
}

// NewMarketCalendar loads the exchange timezone from the tz database
func NewMarketCalendar(timezone string) (*MarketCalendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", timezone, err)
	}
	return &MarketCalendar{location: loc}, nil
}

// IsOpenAt reports whether the regular session is open at the given instant.
// Weekends are closed; exchange holidays are not modeled.
func (c *MarketCalendar) IsOpenAt(t time.Time) bool {
	local := t.In(c.location)

	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	open := MarketOpenHour*60 + MarketOpenMinute
	close := MarketCloseHour*60 + MarketCloseMinute
	return minutes >= open && minutes < close
}

// IsOpen reports whether the regular session is open now
func (c *MarketCalendar) IsOpen() bool {
	return c.IsOpenAt(time.Now())
}

// Location returns the exchange timezone
func (c *MarketCalendar) Location() *time.Location {
	return c.location
}
