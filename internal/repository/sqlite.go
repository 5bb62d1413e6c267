package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	// The batch pipeline and the ops server share one handle.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			hazard_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			start_time DATETIME NOT NULL,
			last_updated DATETIME NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			severity INTEGER,
			report_count INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS observations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			source_event_id TEXT NOT NULL DEFAULT '',
			hazard_type TEXT NOT NULL,
			title TEXT,
			description TEXT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			depth_km REAL,
			magnitude REAL,
			severity INTEGER,
			timestamp DATETIME NOT NULL,
			trust_flag INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			event_id INTEGER REFERENCES events(id) ON DELETE SET NULL,
			created_at DATETIME NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS uq_observations_source_key
			ON observations(source, source_event_id) WHERE source_event_id != '';
		CREATE INDEX IF NOT EXISTS idx_observations_source_ts ON observations(source, timestamp);
		CREATE INDEX IF NOT EXISTS idx_observations_event_id ON observations(event_id);
		CREATE INDEX IF NOT EXISTS idx_events_match ON events(hazard_type, last_updated);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
