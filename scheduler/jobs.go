package scheduler

import (
	"context"
	"log"
	"time"

	"marketlens_backend/config"
	"marketlens_backend/models"
	"marketlens_backend/services"
	"marketlens_backend/services/analysis"
	"marketlens_backend/services/analytics"
	"marketlens_backend/services/marketdata"
	"marketlens_backend/services/snapshot"

	"github.com/go-co-op/gocron"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	cron              *gocron.Scheduler
	db                *gorm.DB
	calendar          *MarketCalendar
	syncService       *services.PriceSyncService
	instrumentService *services.InstrumentService
	tableService      *analytics.TableService
	technicalAnalysis *analysis.TechnicalAnalysis
}

// NewScheduler creates a new scheduler instance
func NewScheduler(db *gorm.DB) *Scheduler {
	timezone := "America/New_York"
	if config.AppConfig != nil && config.AppConfig.MarketTimezone != "" {
		timezone = config.AppConfig.MarketTimezone
	}

	calendar, err := NewMarketCalendar(timezone)
	if err != nil {
		log.Printf("Warning: %v, falling back to UTC market calendar", err)
		calendar = &MarketCalendar{location: time.UTC}
	}

	return &Scheduler{
		cron:              gocron.NewScheduler(calendar.Location()),
		db:                db,
		calendar:          calendar,
		syncService:       services.GlobalSyncService,
		instrumentService: services.NewInstrumentService(db),
		tableService:      analytics.NewTableService(services.GlobalBarStore),
		technicalAnalysis: analysis.NewTechnicalAnalysis(db),
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	log.Println("Starting scheduler...")

	// Refresh quotes every minute during trading hours
	s.cron.Every(1).Minute().Do(func() {
		if s.calendar.IsOpen() {
			s.refreshQuotes()
		}
	})

	// Refresh benchmark indices every 5 minutes during trading hours
	s.cron.Every(5).Minutes().Do(func() {
		if s.calendar.IsOpen() {
			if err := s.instrumentService.FetchMarketIndices(context.Background()); err != nil {
				log.Printf("Error fetching market indices: %v", err)
			}
		}
	})

	// Check price alerts every 5 minutes during trading hours
	s.cron.Every(5).Minutes().Do(func() {
		if s.calendar.IsOpen() {
			s.checkPriceAlerts()
		}
	})

	// Full bar sync daily at 16:30 exchange time (after close)
	s.cron.Every(1).Day().At("16:30").Do(func() {
		s.runDailySync()
	})

	// Calculate indicators daily at 17:00
	s.cron.Every(1).Day().At("17:00").Do(func() {
		s.calculateDailyIndicators()
	})

	// Write end-of-day analytics snapshots at 17:30
	s.cron.Every(1).Day().At("17:30").Do(func() {
		s.writeDailySnapshots()
	})

	// Cleanup old data weekly on Sunday at 01:00
	s.cron.Every(1).Week().Sunday().At("01:00").Do(func() {
		if err := s.instrumentService.CleanupOldData(); err != nil {
			log.Printf("Error cleaning up old data: %v", err)
		} else {
			log.Println("Cleanup completed")
		}
	})

	s.cron.StartAsync()
	log.Println("Scheduler started successfully")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Scheduler stopped")
}

// refreshQuotes pulls fresh quotes into the cache and bar store
func (s *Scheduler) refreshQuotes() {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	if err := s.syncService.SyncQuotes(ctx); err != nil {
		log.Printf("Error refreshing quotes: %v", err)
	}
}

// runDailySync fetches the full bar history for the universe
func (s *Scheduler) runDailySync() {
	log.Println("Running daily bar sync...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := s.syncService.RunFullSync(ctx); err != nil {
		log.Printf("Daily bar sync failed: %v", err)
	}
}

// calculateDailyIndicators computes indicators for all instruments with bars
func (s *Scheduler) calculateDailyIndicators() {
	log.Println("Calculating daily technical indicators...")

	var instruments []models.Instrument
	if err := s.db.Where("status = ?", "active").Find(&instruments).Error; err != nil {
		log.Printf("Error loading instruments: %v", err)
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	calculated := 0
	for _, instrument := range instruments {
		bars := services.GlobalBarStore.GetBars(instrument.Symbol)
		if len(bars) == 0 {
			continue
		}
		if err := s.technicalAnalysis.CalculateAllIndicators(instrument.ID, bars, today); err != nil {
			log.Printf("Error calculating indicators for %s: %v", instrument.Symbol, err)
			continue
		}
		calculated++
	}

	log.Printf("Calculated indicators for %d instruments", calculated)
}

// writeDailySnapshots persists the movers and performance tables to SQLite
func (s *Scheduler) writeDailySnapshots() {
	if snapshot.GlobalStore == nil {
		return
	}

	log.Println("Writing end-of-day analytics snapshots...")
	today := time.Now().UTC()

	for _, kind := range []string{analytics.MoversGainers, analytics.MoversLosers, analytics.MoversMostActive} {
		rows, err := s.tableService.TopMovers(kind, 25)
		if err != nil {
			log.Printf("Error building %s snapshot: %v", kind, err)
			continue
		}
		if err := snapshot.GlobalStore.SaveMovers(today, kind, rows); err != nil {
			log.Printf("Error saving %s snapshot: %v", kind, err)
		}
	}

	perfRows := s.tableService.PerformanceTable()
	if err := snapshot.GlobalStore.SavePerformance(today, perfRows); err != nil {
		log.Printf("Error saving performance snapshot: %v", err)
	}

	log.Printf("Snapshots written for %d performance rows", len(perfRows))
}

// checkPriceAlerts evaluates active alerts against the latest quotes
func (s *Scheduler) checkPriceAlerts() {
	var alerts []models.PriceAlert
	if err := s.db.Where("is_active = ? AND is_triggered = ?", true, false).
		Preload("Instrument").Find(&alerts).Error; err != nil {
		log.Printf("Error loading alerts: %v", err)
		return
	}

	for _, alert := range alerts {
		quote, ok := services.GlobalBarStore.GetQuote(alert.Instrument.Symbol)
		if !ok {
			continue
		}

		if alertShouldTrigger(&alert, quote) {
			now := time.Now()
			s.db.Model(&alert).Updates(map[string]interface{}{
				"is_triggered": true,
				"triggered_at": now,
			})
			log.Printf("Alert %d triggered for user %d, symbol %s", alert.ID, alert.UserID, alert.Instrument.Symbol)
		}
	}
}

// alertShouldTrigger evaluates one alert's condition against the latest quote.
// price_above and price_below include the target itself; percent_change compares
// the magnitude of the move so it fires on drops as well as rallies.
func alertShouldTrigger(alert *models.PriceAlert, quote *marketdata.Quote) bool {
	price := decimal.NewFromFloat(quote.Price)
	changePercent := decimal.NewFromFloat(quote.ChangePercent)

	switch alert.AlertType {
	case models.AlertTypePriceAbove:
		return price.GreaterThanOrEqual(alert.TargetValue)
	case models.AlertTypePriceBelow:
		return price.LessThanOrEqual(alert.TargetValue)
	case models.AlertTypePercentChange:
		return changePercent.Abs().GreaterThanOrEqual(alert.TargetValue)
	case models.AlertTypeVolumeSpike:
		if quote.AvgVolume3M <= 0 {
			return false
		}
		ratio := decimal.NewFromFloat(float64(quote.Volume) / float64(quote.AvgVolume3M))
		return ratio.GreaterThanOrEqual(alert.TargetValue)
	}
	return false
}
