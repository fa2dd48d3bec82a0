package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/apitrail/apitrail/internal/model"
)

// FileName is the history database file name inside the data directory.
const FileName = "apitrail.db"

// HistoryDB is the SQLite-backed store for past crawl runs.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file on open.
	// When false, opening a missing database is an error.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Run is one stored crawl run.
type Run struct {
	// ID is the auto-assigned run identifier.
	ID int64

	// Seed is the address the crawl started from.
	Seed string

	// Endpoints is the number of records the run produced.
	Endpoints int

	// URLsProcessed is the number of addresses fetched.
	URLsProcessed int

	// FailedRequests is the number of failed fetches.
	FailedRequests int

	// DurationMs is the run's wall-clock duration in milliseconds.
	DurationMs int64

	// CreatedAt is when the run was recorded.
	CreatedAt time.Time
}

// Open opens or creates the history database under dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	} else if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("history database not found at %s: %w", dbPath, err)
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// SQLite supports a single writer; keep the pool to one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return h, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the location of the database file.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		endpoints INTEGER NOT NULL,
		urls_processed INTEGER NOT NULL,
		failed_requests INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		result_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := h.db.Exec(schema)
	return err
}

// SaveRun records one completed crawl and returns its assigned ID.
func (h *HistoryDB) SaveRun(ctx context.Context, result *model.Result) (int64, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("serialize result: %w", err)
	}

	res, err := h.db.ExecContext(ctx, `
		INSERT INTO runs (seed, endpoints, urls_processed, failed_requests, duration_ms, result_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		result.StartURL,
		len(result.Endpoints),
		result.Stats.URLsProcessed,
		result.Stats.FailedRequests,
		result.Stats.TotalTimeMs,
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (h *HistoryDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, seed, endpoints, urls_processed, failed_requests, duration_ms, created_at
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Seed, &r.Endpoints, &r.URLsProcessed,
			&r.FailedRequests, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetResult loads the full stored result for one run.
func (h *HistoryDB) GetResult(ctx context.Context, id int64) (*model.Result, error) {
	var resultJSON string
	err := h.db.QueryRowContext(ctx,
		`SELECT result_json FROM runs WHERE id = ?`, id).Scan(&resultJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %d: %w", id, err)
	}

	var result model.Result
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("parse stored result: %w", err)
	}
	return &result, nil
}
