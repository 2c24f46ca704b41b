package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate runs database migrations
func (db *DB) migrate() error {
	migrations := []string{
		// Settings key/value table
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Upload journal, one row per processing session
		`CREATE TABLE IF NOT EXISTS uploads (
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT DEFAULT '',
			started_at DATETIME NOT NULL,
			finished_at DATETIME
		)`,

		`CREATE INDEX IF NOT EXISTS idx_uploads_started_at ON uploads(started_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := db.conn.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}

	return nil
}

// DBStats represents database statistics
type DBStats struct {
	UploadCount int64
	FailedCount int64
	DBSizeBytes int64
}

// GetStats returns database statistics
func (db *DB) GetStats() (*DBStats, error) {
	stats := &DBStats{}

	err := db.conn.QueryRow("SELECT COUNT(*) FROM uploads").Scan(&stats.UploadCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count uploads: %w", err)
	}

	err = db.conn.QueryRow("SELECT COUNT(*) FROM uploads WHERE status = ?", StatusFailed).Scan(&stats.FailedCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count failed uploads: %w", err)
	}

	// page_count * page_size
	var pageCount, pageSize int64
	if err := db.conn.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return nil, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := db.conn.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return nil, fmt.Errorf("failed to get page size: %w", err)
	}

	stats.DBSizeBytes = pageCount * pageSize

	return stats, nil
}

// Vacuum optimizes the database file
func (db *DB) Vacuum() error {
	if _, err := db.conn.Exec("VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
