package scheduler

// Package scheduler provides scheduled job management for the MarketLens backend.
// It handles:
// - Quote refresh during market hours
// - Daily bar history sync after the close
// - Technical indicator calculations
// - End-of-day analytics snapshots
// - Price alert evaluation
// - Periodic data cleanup
//
// Jobs are defined in jobs.go; the market-hours calendar lives in calendar.go
