package snapshot

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store keeps end-of-day analytics snapshots in a local SQLite database so
// table history survives restarts without touching Postgres.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// MoverRow is one row of a movers snapshot table
type MoverRow struct {
	Date          string  `json:"date"`
	Kind          string  `json:"kind"` // gainers, losers, most_active
	Rank          int     `json:"rank"`
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
}

// PerformanceRow is one row of a performance snapshot table
type PerformanceRow struct {
	Date      string  `json:"date"`
	Symbol    string  `json:"symbol"`
	Return1D  float64 `json:"return_1d"`
	Return1W  float64 `json:"return_1w"`
	Return1M  float64 `json:"return_1m"`
	Return3M  float64 `json:"return_3m"`
	Return1Y  float64 `json:"return_1y"`
	RSI       float64 `json:"rsi"`
	AvgVolume float64 `json:"avg_volume"`
}

// Global snapshot store
var GlobalStore *Store

// Init opens the snapshot database and creates tables
func Init(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping snapshot database: %w", err)
	}

	store := &Store{db: db}
	if err := store.createTables(); err != nil {
		return fmt.Errorf("failed to create snapshot tables: %w", err)
	}

	GlobalStore = store
	log.Printf("Snapshot store initialized at %s", path)
	return nil
}

// Close closes the snapshot database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) createTables() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	moversTable := `
		CREATE TABLE IF NOT EXISTS movers_snapshot (
			date VARCHAR NOT NULL,
			kind VARCHAR NOT NULL,
			rank INTEGER NOT NULL,
			symbol VARCHAR NOT NULL,
			price REAL,
			change_percent REAL,
			volume INTEGER,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (date, kind, rank)
		)`
	if _, err := s.db.Exec(moversTable); err != nil {
		return err
	}

	performanceTable := `
		CREATE TABLE IF NOT EXISTS performance_snapshot (
			date VARCHAR NOT NULL,
			symbol VARCHAR NOT NULL,
			return_1d REAL,
			return_1w REAL,
			return_1m REAL,
			return_3m REAL,
			return_1y REAL,
			rsi REAL,
			avg_volume REAL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (date, symbol)
		)`
	if _, err := s.db.Exec(performanceTable); err != nil {
		return err
	}

	return nil
}

// SaveMovers replaces the movers snapshot for a date/kind
func (s *Store) SaveMovers(date time.Time, kind string, rows []MoverRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dateStr := date.Format("2006-01-02")

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM movers_snapshot WHERE date = ? AND kind = ?`, dateStr, kind); err != nil {
		return fmt.Errorf("failed to clear movers snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO movers_snapshot (date, kind, rank, symbol, price, change_percent, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.Exec(dateStr, kind, i+1, row.Symbol, row.Price, row.ChangePercent, row.Volume); err != nil {
			return fmt.Errorf("failed to insert mover row: %w", err)
		}
	}

	return tx.Commit()
}

// QueryMovers returns the movers snapshot for a date/kind ordered by rank
func (s *Store) QueryMovers(date time.Time, kind string) ([]MoverRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dateStr := date.Format("2006-01-02")
	rows, err := s.db.Query(`
		SELECT date, kind, rank, symbol, price, change_percent, volume
		FROM movers_snapshot
		WHERE date = ? AND kind = ?
		ORDER BY rank`, dateStr, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query movers snapshot: %w", err)
	}
	defer rows.Close()

	var result []MoverRow
	for rows.Next() {
		var row MoverRow
		if err := rows.Scan(&row.Date, &row.Kind, &row.Rank, &row.Symbol,
			&row.Price, &row.ChangePercent, &row.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan mover row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// SavePerformance upserts performance rows for a date
func (s *Store) SavePerformance(date time.Time, rows []PerformanceRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dateStr := date.Format("2006-01-02")

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO performance_snapshot
			(date, symbol, return_1d, return_1w, return_1m, return_3m, return_1y, rsi, avg_volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(dateStr, row.Symbol, row.Return1D, row.Return1W,
			row.Return1M, row.Return3M, row.Return1Y, row.RSI, row.AvgVolume); err != nil {
			return fmt.Errorf("failed to insert performance row: %w", err)
		}
	}

	return tx.Commit()
}

// QueryPerformanceHistory returns recent performance rows for a symbol,
// newest first
func (s *Store) QueryPerformanceHistory(symbol string, limit int) ([]PerformanceRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 30
	}

	rows, err := s.db.Query(`
		SELECT date, symbol, return_1d, return_1w, return_1m, return_3m, return_1y, rsi, avg_volume
		FROM performance_snapshot
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance history: %w", err)
	}
	defer rows.Close()

	var result []PerformanceRow
	for rows.Next() {
		var row PerformanceRow
		if err := rows.Scan(&row.Date, &row.Symbol, &row.Return1D, &row.Return1W,
			&row.Return1M, &row.Return3M, &row.Return1Y, &row.RSI, &row.AvgVolume); err != nil {
			return nil, fmt.Errorf("failed to scan performance row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
