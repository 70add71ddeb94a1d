package sqlite

import (
	"database/sql"
	"fmt"
	"log"

	"chart-systemv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/chart.db"
}

// Writer maintains the chart history database. It is a tooling-side
// component (seeders, importers); the engine and the server only read.
type Writer struct {
	db *sql.DB
}

// NewWriter creates a Writer, initializing WAL mode and the schema.
func NewWriter(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS samples (
			symbol  TEXT    NOT NULL,
			ts      INTEGER NOT NULL,
			price   REAL    NOT NULL,
			session TEXT,
			PRIMARY KEY (symbol, ts)
		);
		CREATE TABLE IF NOT EXISTS daily_closes (
			symbol TEXT    NOT NULL,
			day    INTEGER NOT NULL,
			close  REAL    NOT NULL,
			PRIMARY KEY (symbol, day)
		);
		CREATE TABLE IF NOT EXISTS catalysts (
			id     TEXT PRIMARY KEY,
			symbol TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			type   TEXT    NOT NULL,
			title  TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_catalysts_symbol_ts ON catalysts(symbol, ts);
	`)
	return err
}

// InsertSamples writes a batch of samples in one transaction.
func (w *Writer) InsertSamples(symbol string, samples []model.PriceSample) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO samples (symbol, ts, price, session) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare samples: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		session := sql.NullString{}
		if s.Tagged {
			session = sql.NullString{String: s.Session.String(), Valid: true}
		}
		if _, err := stmt.Exec(symbol, s.TS.Unix(), s.Price, session); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert sample: %w", err)
		}
	}
	return tx.Commit()
}

// InsertCatalysts writes a batch of catalyst events in one transaction.
func (w *Writer) InsertCatalysts(events []model.CatalystEvent) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalysts (id, symbol, ts, type, title) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare catalysts: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.ID, ev.Symbol, ev.TS.Unix(), string(ev.Type), ev.Title); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert catalyst: %w", err)
		}
	}
	return tx.Commit()
}

// SetDailyClose records the closing price for a trading day (day is the
// midnight instant of that day in market time).
func (w *Writer) SetDailyClose(symbol string, dayUnix int64, close float64) error {
	_, err := w.db.Exec(`INSERT OR REPLACE INTO daily_closes (symbol, day, close) VALUES (?, ?, ?)`,
		symbol, dayUnix, close)
	if err != nil {
		return fmt.Errorf("sqlite set daily close: %w", err)
	}
	return nil
}

// Close closes the writer.
func (w *Writer) Close() error {
	return w.db.Close()
}
