package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"marketlens_backend/models"
	"marketlens_backend/services/archive"
	"marketlens_backend/services/marketdata"
	"marketlens_backend/services/quotecache"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sync defaults
const (
	DefaultSyncBatchSize    = 20
	DefaultSyncDelayMS      = 200
	DefaultSyncBatchPauseMS = 1000
	DefaultBarDays          = 270 // ~1 year of trading days
)

// SyncConfig holds bar sync configuration
type SyncConfig struct {
	DelayMS      int `json:"delay_ms"`       // Delay between symbols in milliseconds
	BatchSize    int `json:"batch_size"`     // Number of symbols per batch
	BatchPauseMS int `json:"batch_pause_ms"` // Pause between batches
	BarDays      int `json:"bar_days"`       // Number of daily bars to fetch per symbol
}

// SyncProgress represents the state of a running or finished sync
type SyncProgress struct {
	TotalSymbols  int      `json:"total_symbols"`
	Processed     int      `json:"processed"`
	SuccessCount  int      `json:"success_count"`
	FailedCount   int      `json:"failed_count"`
	FailedSymbols []string `json:"failed_symbols"`
	CurrentSymbol string   `json:"current_symbol"`
	StartTime     string   `json:"start_time"`
	ElapsedTime   string   `json:"elapsed_time"`
	Status        string   `json:"status"` // idle, running, completed, stopped, error
}

// PriceSyncService fetches daily bars for the whole universe in batches
type PriceSyncService struct {
	db        *gorm.DB
	config    SyncConfig
	progress  SyncProgress
	mu        sync.RWMutex
	stopChan  chan struct{}
	isRunning bool
}

// Global price sync service instance
var GlobalSyncService *PriceSyncService

// InitPriceSyncService initializes the global sync service
func InitPriceSyncService(db *gorm.DB) {
	GlobalSyncService = NewPriceSyncService(db)
}

// NewPriceSyncService creates a sync service with default configuration
func NewPriceSyncService(db *gorm.DB) *PriceSyncService {
	return &PriceSyncService{
		db: db,
		config: SyncConfig{
			DelayMS:      DefaultSyncDelayMS,
			BatchSize:    DefaultSyncBatchSize,
			BatchPauseMS: DefaultSyncBatchPauseMS,
			BarDays:      DefaultBarDays,
		},
		progress: SyncProgress{Status: "idle"},
	}
}

// SetConfig updates the sync configuration
func (s *PriceSyncService) SetConfig(cfg SyncConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.BatchSize > 0 {
		s.config.BatchSize = cfg.BatchSize
	}
	if cfg.DelayMS > 0 {
		s.config.DelayMS = cfg.DelayMS
	}
	if cfg.BatchPauseMS > 0 {
		s.config.BatchPauseMS = cfg.BatchPauseMS
	}
	if cfg.BarDays > 0 {
		s.config.BarDays = cfg.BarDays
	}
}

// GetProgress returns a copy of the current sync progress
func (s *PriceSyncService) GetProgress() SyncProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress := s.progress
	progress.FailedSymbols = append([]string(nil), s.progress.FailedSymbols...)
	return progress
}

// IsRunning reports whether a sync is in progress
func (s *PriceSyncService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Stop requests a running sync to stop
func (s *PriceSyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning && s.stopChan != nil {
		close(s.stopChan)
		s.stopChan = nil
	}
}

// RunFullSync fetches daily bars for every active instrument, stores them in
// the bar store and upserts them into Postgres. Only one sync runs at a time.
func (s *PriceSyncService) RunFullSync(ctx context.Context) error {
	if !marketdata.GlobalRegistry.Available() {
		return marketdata.ErrProviderUnavailable
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("sync already in progress")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stopChan := s.stopChan
	cfg := s.config
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	var instruments []models.Instrument
	if err := s.db.Where("status = ?", "active").Order("symbol").Find(&instruments).Error; err != nil {
		s.setStatus("error")
		return fmt.Errorf("failed to load instruments: %w", err)
	}

	start := time.Now()
	s.mu.Lock()
	s.progress = SyncProgress{
		TotalSymbols: len(instruments),
		StartTime:    start.Format(time.RFC3339),
		Status:       "running",
	}
	s.mu.Unlock()

	provider := marketdata.GlobalRegistry.Provider()
	log.Printf("Starting full bar sync for %d instruments via %s", len(instruments), provider.Name())

	for i, instrument := range instruments {
		select {
		case <-stopChan:
			s.setStatus("stopped")
			log.Printf("Bar sync stopped after %d/%d symbols", i, len(instruments))
			return nil
		case <-ctx.Done():
			s.setStatus("stopped")
			return ctx.Err()
		default:
		}

		s.mu.Lock()
		s.progress.CurrentSymbol = instrument.Symbol
		s.progress.ElapsedTime = time.Since(start).Round(time.Second).String()
		s.mu.Unlock()

		bars, err := provider.DailyBars(ctx, instrument.Symbol, cfg.BarDays)
		if err != nil {
			log.Printf("Failed to fetch bars for %s: %v", instrument.Symbol, err)
			s.mu.Lock()
			s.progress.Processed++
			s.progress.FailedCount++
			s.progress.FailedSymbols = append(s.progress.FailedSymbols, instrument.Symbol)
			s.mu.Unlock()
			continue
		}

		GlobalBarStore.SetBars(instrument.Symbol, bars)
		if err := s.upsertBars(instrument.ID, bars); err != nil {
			log.Printf("Failed to store bars for %s: %v", instrument.Symbol, err)
		}
		archive.RecordFetch(ctx, provider.Name(), instrument.Symbol, len(bars))

		s.mu.Lock()
		s.progress.Processed++
		s.progress.SuccessCount++
		s.mu.Unlock()

		if cfg.DelayMS > 0 {
			time.Sleep(time.Duration(cfg.DelayMS) * time.Millisecond)
		}
		if cfg.BatchSize > 0 && (i+1)%cfg.BatchSize == 0 && cfg.BatchPauseMS > 0 {
			time.Sleep(time.Duration(cfg.BatchPauseMS) * time.Millisecond)
		}
	}

	GlobalBarStore.MarkSynced(time.Now())
	if err := GlobalBarStore.SaveToFile(); err != nil {
		log.Printf("Failed to persist bar store: %v", err)
	}

	s.mu.Lock()
	s.progress.Status = "completed"
	s.progress.CurrentSymbol = ""
	s.progress.ElapsedTime = time.Since(start).Round(time.Second).String()
	done := s.progress
	s.mu.Unlock()

	archive.RecordSync(ctx, done.TotalSymbols, done.SuccessCount, done.FailedCount, done.ElapsedTime)
	log.Printf("Bar sync completed: %d ok, %d failed, elapsed %s",
		done.SuccessCount, done.FailedCount, done.ElapsedTime)
	return nil
}

// SyncQuotes refreshes quotes for all active instruments and feeds the quote
// cache and bar store
func (s *PriceSyncService) SyncQuotes(ctx context.Context) error {
	if !marketdata.GlobalRegistry.Available() {
		return marketdata.ErrProviderUnavailable
	}

	var symbols []string
	if err := s.db.Model(&models.Instrument{}).
		Where("status = ?", "active").
		Order("symbol").
		Pluck("symbol", &symbols).Error; err != nil {
		return fmt.Errorf("failed to load symbols: %w", err)
	}
	if len(symbols) == 0 {
		return nil
	}

	quotes, err := marketdata.GlobalRegistry.Provider().BatchQuotes(ctx, symbols)
	if err != nil {
		return fmt.Errorf("failed to fetch quotes: %w", err)
	}

	quotecache.GlobalCache.SetAll(quotes)
	for _, q := range quotes {
		GlobalBarStore.SetQuote(q)
	}

	log.Printf("Refreshed quotes for %d symbols", len(quotes))
	return nil
}

// upsertBars writes the fetched bars into the price_bars table
func (s *PriceSyncService) upsertBars(instrumentID uint, bars []marketdata.Bar) error {
	for _, bar := range bars {
		change := bar.Close - bar.Open
		changePercent := 0.0
		if bar.Open != 0 {
			changePercent = change / bar.Open * 100
		}

		row := models.PriceBar{
			InstrumentID:  instrumentID,
			Date:          bar.Date,
			Open:          decimal.NewFromFloat(bar.Open),
			High:          decimal.NewFromFloat(bar.High),
			Low:           decimal.NewFromFloat(bar.Low),
			Close:         decimal.NewFromFloat(bar.Close),
			AdjClose:      decimal.NewFromFloat(bar.AdjClose),
			Volume:        bar.Volume,
			Change:        decimal.NewFromFloat(change),
			ChangePercent: decimal.NewFromFloat(changePercent),
		}

		var existing models.PriceBar
		err := s.db.Where("instrument_id = ? AND date = ?", instrumentID, bar.Date).
			First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := s.db.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create bar: %w", err)
			}
		} else if err != nil {
			return err
		} else {
			if err := s.db.Model(&existing).Updates(row).Error; err != nil {
				return fmt.Errorf("failed to update bar: %w", err)
			}
		}
	}
	return nil
}

// setStatus updates only the progress status
func (s *PriceSyncService) setStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Status = status
}
