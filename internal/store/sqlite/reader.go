package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"chart-systemv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to the chart history database: price
// samples per resolution window, daily closes, and scheduled catalysts.
// It sits at the engine boundary; the engine itself never touches storage.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// DB returns the underlying sql.DB for health checks.
func (r *Reader) DB() *sql.DB { return r.db }

// ReadSamples reads price samples for a symbol in [from, to), ordered by
// timestamp ascending as the engine expects.
func (r *Reader) ReadSamples(symbol string, from, to time.Time) ([]model.PriceSample, error) {
	rows, err := r.db.Query(`
		SELECT ts, price, session
		FROM samples
		WHERE symbol = ? AND ts >= ? AND ts < ?
		ORDER BY ts ASC
	`, symbol, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("sqlite query samples: %w", err)
	}
	defer rows.Close()

	var samples []model.PriceSample
	for rows.Next() {
		var (
			tsUnix  int64
			price   float64
			session sql.NullString
		)
		if err := rows.Scan(&tsUnix, &price, &session); err != nil {
			return nil, fmt.Errorf("sqlite scan samples: %w", err)
		}
		s := model.PriceSample{TS: time.Unix(tsUnix, 0).UTC(), Price: price}
		if session.Valid {
			if tag, ok := parseSession(session.String); ok {
				s.Session, s.Tagged = tag, true
			}
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// ReadPreviousClose returns the most recent daily close strictly before day.
// The second return is false when no close is recorded.
func (r *Reader) ReadPreviousClose(symbol string, day time.Time) (float64, bool, error) {
	var close float64
	err := r.db.QueryRow(`
		SELECT close FROM daily_closes
		WHERE symbol = ? AND day < ?
		ORDER BY day DESC
		LIMIT 1
	`, symbol, day.Unix()).Scan(&close)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("sqlite read previous close: %w", err)
	}
	return close, true, nil
}

// ReadCatalysts reads scheduled events for a symbol with timestamps before
// until. Order is unspecified; the engine sorts at render time.
func (r *Reader) ReadCatalysts(symbol string, until time.Time) ([]model.CatalystEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, symbol, ts, type, title
		FROM catalysts
		WHERE symbol = ? AND ts < ?
	`, symbol, until.Unix())
	if err != nil {
		return nil, fmt.Errorf("sqlite query catalysts: %w", err)
	}
	defer rows.Close()

	var events []model.CatalystEvent
	for rows.Next() {
		var (
			ev     model.CatalystEvent
			tsUnix int64
			typ    string
		)
		if err := rows.Scan(&ev.ID, &ev.Symbol, &tsUnix, &typ, &ev.Title); err != nil {
			return nil, fmt.Errorf("sqlite scan catalysts: %w", err)
		}
		ev.TS = time.Unix(tsUnix, 0).UTC()
		ev.Type = model.EventType(typ)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}

func parseSession(s string) (model.SessionTag, bool) {
	switch s {
	case "pre_market":
		return model.PreMarket, true
	case "regular":
		return model.Regular, true
	case "after_hours":
		return model.AfterHours, true
	case "closed":
		return model.Closed, true
	}
	return model.Closed, false
}
