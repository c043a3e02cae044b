// Package db provides PostgreSQL database access for the mood recommender.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Common errors.
var (
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Pool returns the underlying connection pool for advanced operations.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Users returns a UserRepository.
func (db *DB) Users() *UserRepository {
	return &UserRepository{pool: db.pool}
}

// Moods returns a MoodRepository.
func (db *DB) Moods() *MoodRepository {
	return &MoodRepository{pool: db.pool}
}

// Migrate creates the schema if it does not exist yet. The mood_records
// table is append-only: rows are inserted and read, never updated.
func (db *DB) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			spotify_access_token TEXT,
			spotify_refresh_token TEXT,
			spotify_token_expiry TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS mood_records (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			happy DOUBLE PRECISION NOT NULL,
			sad DOUBLE PRECISION NOT NULL,
			angry DOUBLE PRECISION NOT NULL,
			relaxed DOUBLE PRECISION NOT NULL,
			note TEXT,
			spotify_track_id TEXT,
			spotify_played_at TIMESTAMPTZ,
			recorded_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_mood_records_user_recorded
			ON mood_records (user_id, recorded_at DESC);
	`
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
