package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"MarketBrief/internal/model"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			run_id    TEXT,
			symbol    TEXT NOT NULL,
			analysis  TEXT,
			error     TEXT,
			cached    INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_symbol_ts ON analyses(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS batches (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			run_id          TEXT NOT NULL UNIQUE,
			status          TEXT NOT NULL,
			market_analysis TEXT,
			error           TEXT,
			assets          INTEGER,
			failed          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_ts ON batches(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(a *model.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return insertAnalysis(r.db, "", a)
}

// RecordBatch stores the batch and every individual analysis in one transaction.
func (r *SQLiteRecorder) RecordBatch(b *model.BatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO batches
		(timestamp, run_id, status, market_analysis, error, assets, failed)
		VALUES (?,?,?,?,?,?,?)`,
		b.Timestamp.Unix(), b.RunID, string(b.Status), b.MarketAnalysis, b.Error,
		len(b.IndividualAnalyses), strings.Join(b.FailedAnalyses, ","),
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	for _, a := range b.IndividualAnalyses {
		if err := insertAnalysis(tx, b.RunID, a); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertAnalysis(db execer, runID string, a *model.Analysis) error {
	_, err := db.Exec(`INSERT INTO analyses
		(timestamp, run_id, symbol, analysis, error, cached)
		VALUES (?,?,?,?,?,?)`,
		a.Timestamp.Unix(), runID, a.Symbol, a.Analysis, a.Error, a.Cached,
	)
	if err != nil {
		return fmt.Errorf("insert analysis %s: %w", a.Symbol, err)
	}
	return nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
