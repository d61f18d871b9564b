// Package repository provides sqlx-backed data access for agents, sessions,
// audit events, and leads. SQLite serves local development and tests; Postgres
// (Supabase) serves deployments. Queries are written with `?` placeholders and
// rebound per driver.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements data access over a sqlx connection pool.
type Store struct {
	db *sqlx.DB
}

// NewSQLiteStore opens a SQLite database at the given path (":memory:" for tests).
func NewSQLiteStore(dsn string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &Store{db: db}, nil
}

// NewPostgresStore opens a Postgres connection pool for the given DSN.
func NewPostgresStore(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (r *Store) Close() error {
	return r.db.Close()
}

// Ping checks database connectivity.
func (r *Store) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations executes the given migration SQL.
func (r *Store) RunMigrations(migrationSQL string) error {
	_, err := r.db.Exec(migrationSQL)
	return err
}
