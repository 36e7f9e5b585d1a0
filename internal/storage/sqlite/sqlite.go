package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"pomoclock/internal/event"
	"pomoclock/internal/storage"
)

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(dbPath string) storage.Storage {
	return &SQLiteStore{dbPath: dbPath}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL,
	type TEXT NOT NULL,
	run_id TEXT,
	mode TEXT,
	cycle INTEGER,
	value REAL,
	app_name TEXT,
	window_title TEXT,
	notes TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events (timestamp);
CREATE INDEX IF NOT EXISTS idx_events_type ON events (type);

CREATE TABLE IF NOT EXISTS state (
	key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	updated_at DATETIME NOT NULL
);
`

func (s *SQLiteStore) Init(ctx context.Context) error {
	dir := filepath.Dir(s.dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create db directory %s: %w", dir, err)
	}

	log.Info().Str("path", s.dbPath).Msg("Initializing SQLite database")
	db, err := sql.Open("sqlite3", s.dbPath+"?_journal=WAL&_timeout=5000&_fk=true")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	s.db = db

	// Single writer connection.
	s.db.SetMaxOpenConns(1)
	s.db.SetMaxIdleConns(1)
	s.db.SetConnMaxLifetime(time.Minute * 5)

	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}
	log.Debug().Msg("Database initialized")
	return nil
}

func (s *SQLiteStore) SaveEvent(ctx context.Context, e event.Event) (int64, error) {
	query := `INSERT INTO events (timestamp, type, run_id, mode, cycle, value, app_name, window_title, notes)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, query,
		e.Timestamp, e.Type, e.RunID, e.Mode, e.Cycle, e.Value, e.AppName, e.WindowTitle, e.Notes)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetEvents(ctx context.Context, start, end time.Time, eventTypes ...event.EventType) ([]event.Event, error) {
	query := `SELECT id, timestamp, type, run_id, mode, cycle, value, app_name, window_title, notes
	          FROM events
	          WHERE timestamp >= ? AND timestamp <= ?`
	args := []interface{}{start, end}

	if len(eventTypes) > 0 {
		placeholders := strings.Repeat("?,", len(eventTypes)-1) + "?"
		query += fmt.Sprintf(" AND type IN (%s)", placeholders)
		for _, et := range eventTypes {
			args = append(args, et)
		}
	}

	query += " ORDER BY timestamp ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var e event.Event
		var (
			runID, mode, appName, windowTitle, notes sql.NullString
			cycle                                    sql.NullInt64
			value                                    sql.NullFloat64
		)

		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Type, &runID, &mode, &cycle, &value, &appName, &windowTitle, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		e.RunID = runID.String
		e.Mode = mode.String
		e.Cycle = int(cycle.Int64)
		e.Value = value.Float64
		e.AppName = appName.String
		e.WindowTitle = windowTitle.String
		e.Notes = notes.String
		events = append(events, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

func (s *SQLiteStore) SaveState(ctx context.Context, key string, data []byte) error {
	query := `INSERT INTO state (key, data, updated_at) VALUES (?, ?, ?)
	          ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save state %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) LoadState(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM state WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state %q: %w", key, err)
	}
	return data, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		log.Debug().Msg("Closing database connection")
		return s.db.Close()
	}
	return nil
}
