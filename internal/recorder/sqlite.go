package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"PriceCheck/internal/model"
)

// SQLiteRecorder persists fetch history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets `-history` read while a watch process writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Debugf("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_readings (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			price       TEXT NOT NULL,
			currency    TEXT,
			source      TEXT,
			quoted_at   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_ts ON price_readings(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_symbol ON price_readings(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS fetch_failures (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			kind        TEXT NOT NULL,
			message     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_ts ON fetch_failures(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordReading(runID string, rd *model.PriceReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO price_readings
		(run_id, timestamp, symbol, price, currency, source, quoted_at)
		VALUES (?,?,?,?,?,?,?)`,
		runID, r.now().UnixNano(), rd.Symbol.String(), rd.Price.String(),
		rd.Currency, rd.Source, rd.Time.Unix(),
	)
	return err
}

func (r *SQLiteRecorder) RecordFailure(runID string, symbol model.Symbol, kind model.ErrorKind, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO fetch_failures
		(run_id, timestamp, symbol, kind, message)
		VALUES (?,?,?,?,?)`,
		runID, r.now().UnixNano(), symbol.String(), string(kind), message,
	)
	return err
}

func (r *SQLiteRecorder) RecentReadings(limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.Query(`SELECT run_id, timestamp, symbol, price, currency, source, quoted_at
		FROM price_readings ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var (
			e                  model.HistoryEntry
			recordedAt, quoted int64
			symbol, price      string
			currency, source   sql.NullString
		)
		if err := rows.Scan(&e.RunID, &recordedAt, &symbol, &price, &currency, &source, &quoted); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("parse stored price %q: %w", price, err)
		}
		e.RecordedAt = time.Unix(0, recordedAt)
		e.Reading = model.PriceReading{
			Symbol:   model.Symbol(symbol),
			Price:    p,
			Currency: currency.String,
			Time:     time.Unix(quoted, 0),
			Source:   source.String,
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) RecentFailures(limit int) ([]model.FailureEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.Query(`SELECT run_id, timestamp, symbol, kind, message
		FROM fetch_failures ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []model.FailureEntry
	for rows.Next() {
		var (
			f            model.FailureEntry
			recordedAt   int64
			symbol, kind string
			message      sql.NullString
		)
		if err := rows.Scan(&f.RunID, &recordedAt, &symbol, &kind, &message); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.Symbol = model.Symbol(symbol)
		f.Kind = model.ErrorKind(kind)
		f.Message = message.String
		f.RecordedAt = time.Unix(0, recordedAt)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Debug("closing sqlite recorder")
	return r.db.Close()
}
