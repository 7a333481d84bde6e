package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database connection
	// Use WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

const schema = `
CREATE TABLE IF NOT EXISTS symbols (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	code       TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS recommendations (
	id          TEXT PRIMARY KEY,
	day         TEXT NOT NULL,
	symbol_id   INTEGER NOT NULL REFERENCES symbols(id),
	reason      TEXT NOT NULL,
	priority    INTEGER NOT NULL,
	confidence  TEXT NOT NULL,
	total_score INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (day, symbol_id)
);

CREATE TABLE IF NOT EXISTS daily_prices (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol_id   INTEGER NOT NULL REFERENCES symbols(id),
	day         TEXT NOT NULL,
	open        REAL NOT NULL,
	high        REAL NOT NULL,
	low         REAL NOT NULL,
	close       REAL NOT NULL,
	volume      INTEGER,
	change_rate REAL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (symbol_id, day)
);

CREATE TABLE IF NOT EXISTS paper_trades (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	day               TEXT NOT NULL,
	symbol_id         INTEGER NOT NULL REFERENCES symbols(id),
	recommendation_id TEXT REFERENCES recommendations(id),
	entry_day         TEXT NOT NULL,
	entry_price       REAL NOT NULL,
	current_price     REAL NOT NULL,
	quantity          INTEGER NOT NULL,
	invested_amount   REAL NOT NULL,
	current_value     REAL NOT NULL,
	pnl               REAL NOT NULL,
	pnl_rate          REAL NOT NULL,
	market_provider   TEXT NOT NULL DEFAULT 'unknown',
	created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (day, symbol_id)
);

CREATE TABLE IF NOT EXISTS metrics_cache (
	code       TEXT NOT NULL,
	day        TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (code, day)
);

CREATE INDEX IF NOT EXISTS idx_recommendations_day ON recommendations(day);
CREATE INDEX IF NOT EXISTS idx_daily_prices_symbol_day ON daily_prices(symbol_id, day);
CREATE INDEX IF NOT EXISTS idx_paper_trades_day ON paper_trades(day);
`

// Migrate creates the schema when it does not exist yet
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}
