package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sheets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		template TEXT NOT NULL,
		processed_at DATETIME NOT NULL,
		page_width INTEGER DEFAULT 0,
		page_height INTEGER DEFAULT 0,
		top_left_x INTEGER DEFAULT 0,
		top_left_y INTEGER DEFAULT 0,
		bottom_right_x INTEGER DEFAULT 0,
		bottom_right_y INTEGER DEFAULT 0,
		low_confidence INTEGER DEFAULT 0,
		defaulted TEXT DEFAULT '',
		directory TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS regions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sheet_id INTEGER NOT NULL,
		idx INTEGER NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		parent INTEGER DEFAULT -1,
		grid_row INTEGER DEFAULT -1,
		grid_col INTEGER DEFAULT -1,
		x INTEGER DEFAULT 0,
		y INTEGER DEFAULT 0,
		width INTEGER DEFAULT 0,
		height INTEGER DEFAULT 0,
		filepath TEXT NOT NULL,
		FOREIGN KEY (sheet_id) REFERENCES sheets(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sheets_template ON sheets(template);
	CREATE INDEX IF NOT EXISTS idx_sheets_processed_at ON sheets(processed_at);
	CREATE INDEX IF NOT EXISTS idx_regions_sheet_id ON regions(sheet_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}
