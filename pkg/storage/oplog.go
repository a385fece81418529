package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/civgo/civd/pkg/logging"
)

// OpLog handles persistent storage of control operations. Every
// request that reaches the radio is recorded with its outcome, which
// is what you want in hand when debugging behavior over a lossy
// serial link after the fact.
type OpLog struct {
	db         *sql.DB
	dbPath     string
	maxEntries int
}

// Entry is one recorded control operation.
type Entry struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Op         string    `json:"op"`
	Detail     string    `json:"detail"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// NewOpLog creates an operation log with a SQLite backend.
func NewOpLog(dbPath string, maxEntries int) (*OpLog, error) {
	ol := &OpLog{
		dbPath:     dbPath,
		maxEntries: maxEntries,
	}

	if err := ol.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize operation log: %w", err)
	}

	return ol, nil
}

// initialize sets up the database connection and creates tables
func (ol *OpLog) initialize() error {
	if ol.dbPath == "" {
		ol.dbPath = "./civd.db"
	}

	if err := os.MkdirAll(filepath.Dir(ol.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	connectionString := ol.dbPath + "?_busy_timeout=10000&_journal_mode=WAL"

	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	ol.db = db

	if err := ol.createTables(); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	logging.Infof("storage", "operation log initialized: %s (max %d entries)", ol.dbPath, ol.maxEntries)
	return nil
}

// createTables creates the database schema
func (ol *OpLog) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS op_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		op TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		ok BOOLEAN NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_op_log_timestamp ON op_log(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_op_log_op ON op_log(op);
	CREATE INDEX IF NOT EXISTS idx_op_log_ok ON op_log(ok);
	`

	_, err := ol.db.Exec(schema)
	return err
}

// Record stores one operation outcome and trims the log when it grows
// past the configured limit.
func (ol *OpLog) Record(e Entry) error {
	tx, err := ol.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO op_log (timestamp, op, detail, ok, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	if _, err := tx.Exec(query, ts, e.Op, e.Detail, e.OK, e.Error, e.DurationMs); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	if err := ol.cleanupOldEntries(tx); err != nil {
		logging.Warnf("storage", "failed to cleanup old entries: %v", err)
	}

	return tx.Commit()
}

// Recent returns the most recent entries, newest first.
func (ol *OpLog) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := ol.db.Query(`
		SELECT id, timestamp, op, detail, ok, error, duration_ms
		FROM op_log
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Op, &e.Detail, &e.OK, &e.Error, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Stats returns the total and failed operation counts.
func (ol *OpLog) Stats() (total, failed int, err error) {
	err = ol.db.QueryRow("SELECT COUNT(*), COALESCE(SUM(CASE WHEN ok THEN 0 ELSE 1 END), 0) FROM op_log").Scan(&total, &failed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query stats: %w", err)
	}
	return total, failed, nil
}

// cleanupOldEntries removes entries beyond the maximum limit
func (ol *OpLog) cleanupOldEntries(tx *sql.Tx) error {
	if ol.maxEntries <= 0 {
		return nil // No limit
	}

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM op_log").Scan(&count); err != nil {
		return err
	}

	if count <= ol.maxEntries {
		return nil // Within limit
	}

	query := `
		DELETE FROM op_log
		WHERE id IN (
			SELECT id FROM op_log
			ORDER BY timestamp ASC, id ASC
			LIMIT ?
		)
	`

	_, err := tx.Exec(query, count-ol.maxEntries)
	return err
}

// Close closes the database connection
func (ol *OpLog) Close() error {
	if ol.db != nil {
		return ol.db.Close()
	}
	return nil
}
