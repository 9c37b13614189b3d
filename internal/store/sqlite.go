// Package store provides storage backends for the check-in event log.
//
// This file implements the SQLite-backed event log.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/medeasy-app/routinecore/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is the SQLite-backed event log.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating directories and tables as needed) the
// SQLite event log at the DSN file path.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("store.NewSQLiteStore: opening", "DSN_set", cfg.DSN != "")
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("store.NewSQLiteStore: failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("store.NewSQLiteStore: failed to open connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("store.NewSQLiteStore: ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("store.NewSQLiteStore: migrations failed", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("store.NewSQLiteStore: ready")
	return &SQLiteStore{db: db}, nil
}

// AddCheckinEvent inserts one event record.
func (s *SQLiteStore) AddCheckinEvent(ev models.CheckinEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO checkin_events (event_id, signature, outcome, schedule_id, doses_ok, doses_fail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.EventID, ev.Signature, string(ev.Outcome), ev.ScheduleID, ev.DosesOK, ev.DosesFail, ev.CreatedAt,
	)
	if err != nil {
		slog.Error("store.SQLiteStore.AddCheckinEvent failed", "error", err, "eventID", ev.EventID)
		return fmt.Errorf("failed to insert check-in event %s: %w", ev.EventID, err)
	}
	slog.Debug("store.SQLiteStore.AddCheckinEvent succeeded", "eventID", ev.EventID, "outcome", ev.Outcome)
	return nil
}

// ListCheckinEvents returns the most recent events, newest first.
func (s *SQLiteStore) ListCheckinEvents(limit int) ([]models.CheckinEvent, error) {
	query := `SELECT event_id, signature, outcome, schedule_id, doses_ok, doses_fail, created_at
		FROM checkin_events ORDER BY created_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		slog.Error("store.SQLiteStore.ListCheckinEvents query failed", "error", err)
		return nil, fmt.Errorf("failed to query check-in events: %w", err)
	}
	defer rows.Close()
	return scanCheckinEvents(rows)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
