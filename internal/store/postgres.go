// Package store provides storage backends for the check-in event log.
//
// This file implements the PostgreSQL-backed event log.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/medeasy-app/routinecore/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the maximum number of open connections.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the maximum number of idle connections.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the maximum time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is the PostgreSQL-backed event log.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens the Postgres event log using the DSN option.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("store.NewPostgresStore: opening", "DSN_set", cfg.DSN != "")
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("store.NewPostgresStore: failed to open connection", "error", err)
		return nil, err
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("store.NewPostgresStore: ping failed", "error", err)
		return nil, err
	}
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("store.NewPostgresStore: migrations failed", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("store.NewPostgresStore: ready")
	return &PostgresStore{db: db}, nil
}

// AddCheckinEvent inserts one event record.
func (s *PostgresStore) AddCheckinEvent(ev models.CheckinEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO checkin_events (event_id, signature, outcome, schedule_id, doses_ok, doses_fail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.EventID, ev.Signature, string(ev.Outcome), ev.ScheduleID, ev.DosesOK, ev.DosesFail, ev.CreatedAt,
	)
	if err != nil {
		slog.Error("store.PostgresStore.AddCheckinEvent failed", "error", err, "eventID", ev.EventID)
		return fmt.Errorf("failed to insert check-in event %s: %w", ev.EventID, err)
	}
	slog.Debug("store.PostgresStore.AddCheckinEvent succeeded", "eventID", ev.EventID, "outcome", ev.Outcome)
	return nil
}

// ListCheckinEvents returns the most recent events, newest first.
func (s *PostgresStore) ListCheckinEvents(limit int) ([]models.CheckinEvent, error) {
	query := `SELECT event_id, signature, outcome, schedule_id, doses_ok, doses_fail, created_at
		FROM checkin_events ORDER BY created_at DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+` LIMIT $1`, limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		slog.Error("store.PostgresStore.ListCheckinEvents query failed", "error", err)
		return nil, fmt.Errorf("failed to query check-in events: %w", err)
	}
	defer rows.Close()
	return scanCheckinEvents(rows)
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
