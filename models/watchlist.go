package models

import (
	"time"

	"gorm.io/gorm"
)

// Watchlist represents a named group of symbols a user tracks
type Watchlist struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index:idx_user_watchlist_name,unique" json:"user_id"`
	User      User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name      string           `gorm:"index:idx_user_watchlist_name,unique" json:"name"`
	IsDefault bool             `gorm:"default:false" json:"is_default"`
	Entries   []WatchlistEntry `gorm:"foreignKey:WatchlistID" json:"entries,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// WatchlistEntry represents one symbol on a watchlist
type WatchlistEntry struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	WatchlistID  uint       `gorm:"index:idx_watchlist_instrument,unique" json:"watchlist_id"`
	InstrumentID uint       `gorm:"index:idx_watchlist_instrument,unique" json:"instrument_id"`
	Instrument   Instrument `gorm:"foreignKey:InstrumentID" json:"instrument,omitempty"`
	Position     int        `json:"position"` // display order within the list
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// MigrateWatchlistModels runs database migrations for watchlist models
func MigrateWatchlistModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&Watchlist{},
		&WatchlistEntry{},
	)
}
