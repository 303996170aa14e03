package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"marketlens_backend/services/marketdata"
)

// BarDataFile is the path used to persist the in-memory bar store
const BarDataFile = "data/bars.json"

// BarDataStore represents the persisted form of the bar store
type BarDataStore struct {
	LastSyncAt *time.Time                   `json:"last_sync_at"`
	Bars       map[string][]marketdata.Bar  `json:"bars"`
	Quotes     map[string]*marketdata.Quote `json:"quotes"`
}

// InMemoryBarStore keeps daily bar series and latest quotes per symbol
type InMemoryBarStore struct {
	mu         sync.RWMutex
	bars       map[string][]marketdata.Bar
	quotes     map[string]*marketdata.Quote
	lastSyncAt *time.Time
}

// Global in-memory bar store
var GlobalBarStore = NewInMemoryBarStore()

// NewInMemoryBarStore creates a bar store and loads persisted data if present
func NewInMemoryBarStore() *InMemoryBarStore {
	store := &InMemoryBarStore{
		bars:   make(map[string][]marketdata.Bar),
		quotes: make(map[string]*marketdata.Quote),
	}
	if err := store.loadFromFile(); err != nil {
		log.Printf("No persisted bar data loaded: %v", err)
	}
	return store
}

// SetBars replaces the bar series for a symbol, kept in ascending date order
func (s *InMemoryBarStore) SetBars(symbol string, bars []marketdata.Bar) {
	sorted := make([]marketdata.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bars[symbol] = sorted
}

// GetBars returns the bar series for a symbol in ascending date order
func (s *InMemoryBarStore) GetBars(symbol string) []marketdata.Bar {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars, ok := s.bars[symbol]
	if !ok {
		return nil
	}
	out := make([]marketdata.Bar, len(bars))
	copy(out, bars)
	return out
}

// SetQuote stores the latest quote for a symbol
func (s *InMemoryBarStore) SetQuote(q marketdata.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quote := q
	s.quotes[q.Symbol] = &quote
}

// GetQuote returns the latest stored quote for a symbol
func (s *InMemoryBarStore) GetQuote(symbol string) (*marketdata.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[symbol]
	if !ok {
		return nil, false
	}
	quote := *q
	return &quote, true
}

// AllQuotes returns a copy of every stored quote
func (s *InMemoryBarStore) AllQuotes() []marketdata.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quotes := make([]marketdata.Quote, 0, len(s.quotes))
	for _, q := range s.quotes {
		quotes = append(quotes, *q)
	}
	return quotes
}

// Symbols returns all symbols with stored bar data
func (s *InMemoryBarStore) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.bars))
	for symbol := range s.bars {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Count returns the number of symbols with bar data
func (s *InMemoryBarStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bars)
}

// MarkSynced records the completion time of the last sync
func (s *InMemoryBarStore) MarkSynced(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyncAt = &t
}

// LastSyncAt returns when the store last completed a sync
func (s *InMemoryBarStore) LastSyncAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSyncAt == nil {
		return nil
	}
	t := *s.lastSyncAt
	return &t
}

// SaveToFile persists the store to BarDataFile
func (s *InMemoryBarStore) SaveToFile() error {
	s.mu.RLock()
	data := BarDataStore{
		LastSyncAt: s.lastSyncAt,
		Bars:       s.bars,
		Quotes:     s.quotes,
	}
	payload, err := json.Marshal(data)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal bar data: %w", err)
	}

	dir := filepath.Dir(BarDataFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmpFile := BarDataFile + ".tmp"
	if err := os.WriteFile(tmpFile, payload, 0644); err != nil {
		return fmt.Errorf("failed to write bar data: %w", err)
	}
	if err := os.Rename(tmpFile, BarDataFile); err != nil {
		return fmt.Errorf("failed to replace bar data file: %w", err)
	}

	log.Printf("Persisted bar data for %d symbols to %s", len(data.Bars), BarDataFile)
	return nil
}

// loadFromFile restores the store from BarDataFile
func (s *InMemoryBarStore) loadFromFile() error {
	payload, err := os.ReadFile(BarDataFile)
	if err != nil {
		return err
	}

	var data BarDataStore
	if err := json.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("failed to parse bar data file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if data.Bars != nil {
		s.bars = data.Bars
	}
	if data.Quotes != nil {
		s.quotes = data.Quotes
	}
	s.lastSyncAt = data.LastSyncAt

	log.Printf("Loaded persisted bar data for %d symbols", len(s.bars))
	return nil
}
