package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const topTickerLimit = 5

// SQLiteRecorder persists the query log to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS queries (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			request_id  TEXT NOT NULL,
			chat_id     INTEGER,
			query       TEXT,
			ticker      TEXT,
			outcome     TEXT NOT NULL,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_queries_ts ON queries(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_queries_ticker ON queries(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordQuery(rec *QueryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO queries
		(timestamp, request_id, chat_id, query, ticker, outcome, duration_ms)
		VALUES (?,?,?,?,?,?,?)`,
		at.Unix(), rec.RequestID, rec.ChatID, rec.Query, rec.Ticker,
		rec.Outcome, rec.Duration.Milliseconds(),
	)
	return err
}

// Prune deletes records older than before and reports how many were removed.
func (r *SQLiteRecorder) Prune(before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`DELETE FROM queries WHERE timestamp < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune queries: %w", err)
	}
	return res.RowsAffected()
}

// Stats counts outcomes and the most answered tickers since the given time.
func (r *SQLiteRecorder) Stats(since time.Time) (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := &Stats{ByOutcome: map[string]int{}}

	rows, err := r.db.Query(`SELECT outcome, COUNT(*) FROM queries
		WHERE timestamp >= ? GROUP BY outcome`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			rows.Close()
			return nil, err
		}
		st.ByOutcome[outcome] = n
		st.Total += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.Query(`SELECT ticker, COUNT(*) AS n FROM queries
		WHERE timestamp >= ? AND outcome = 'ANSWERED'
		GROUP BY ticker ORDER BY n DESC, ticker ASC LIMIT ?`, since.Unix(), topTickerLimit)
	if err != nil {
		return nil, fmt.Errorf("query tickers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc TickerCount
		if err := rows.Scan(&tc.Ticker, &tc.Count); err != nil {
			return nil, err
		}
		st.TopTickers = append(st.TopTickers, tc)
	}
	return st, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
