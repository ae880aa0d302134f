// Package storage persists the event management data in SQLite, with an
// optional S3 backend for archived import workbooks.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/nikolag/summit/internal/config"
	_ "modernc.org/sqlite"
)

// Storage wraps the SQLite database and the optional S3 archive client.
type Storage struct {
	db      *sql.DB
	s3      *S3Client
	cfg     *config.ServerConfig
	writeMu sync.Mutex // Serialize write operations
}

// New opens the database, applies the schema and, when a bucket is
// configured, initializes the S3 archive client.
func New(cfg *config.ServerConfig) (*Storage, error) {
	dsn := cfg.DBPath + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=10000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{
		db:  db,
		cfg: cfg,
	}

	if cfg.S3Bucket != "" {
		s3Client, err := NewS3Client(cfg)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		s.s3 = s3Client
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Storage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		email TEXT,
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS countries (
		cid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		region TEXT
	);

	CREATE TABLE IF NOT EXISTS participants (
		pid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		gender TEXT NOT NULL,
		grade INTEGER NOT NULL DEFAULT 1,
		representing_country TEXT NOT NULL,
		dob TEXT,
		pob TEXT,
		birth_country TEXT,
		citizenships TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		travel_doc_type TEXT,
		travel_doc_type_other TEXT,
		travel_doc_issue_date TEXT,
		travel_doc_expiry_date TEXT,
		travel_doc_issued_by TEXT,
		transportation TEXT,
		transport_other TEXT,
		travelling_from TEXT,
		returning_to TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		eid TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		location TEXT,
		date_from TEXT NOT NULL,
		date_to TEXT NOT NULL,
		host_country TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS event_participants (
		eid TEXT NOT NULL,
		pid TEXT NOT NULL,
		role TEXT NOT NULL,
		snapshot TEXT NOT NULL,
		PRIMARY KEY (eid, pid),
		FOREIGN KEY (eid) REFERENCES events(eid) ON DELETE CASCADE,
		FOREIGN KEY (pid) REFERENCES participants(pid) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS tests (
		eid TEXT NOT NULL,
		pid TEXT NOT NULL,
		attempt TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (eid, pid, attempt),
		FOREIGN KEY (eid) REFERENCES events(eid) ON DELETE CASCADE,
		FOREIGN KEY (pid) REFERENCES participants(pid) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		size INTEGER NOT NULL,
		compressed_size INTEGER NOT NULL,
		inline_data BLOB,
		s3_key TEXT,
		uploaded_by TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_participants_name ON participants(name);
	CREATE INDEX IF NOT EXISTS idx_events_date_from ON events(date_from);
	CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the storage.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Counts summarizes table sizes for the dashboard.
type Counts struct {
	Participants int `json:"participants"`
	Events       int `json:"events"`
	Countries    int `json:"countries"`
}

// CountAll returns row counts for the dashboard.
func (s *Storage) CountAll(ctx context.Context) (Counts, error) {
	var c Counts
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&c.Participants); err != nil {
		return c, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&c.Events); err != nil {
		return c, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM countries`).Scan(&c.Countries); err != nil {
		return c, err
	}
	return c, nil
}
