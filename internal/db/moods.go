package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MoodRepository handles mood record database operations. The table is
// append-only: records are inserted and listed, never mutated.
type MoodRepository struct {
	pool *pgxpool.Pool
}

// Insert stores a new mood record.
func (r *MoodRepository) Insert(ctx context.Context, record *MoodRecord) error {
	query := `
		INSERT INTO mood_records (
			id, user_id, happy, sad, angry, relaxed,
			note, spotify_track_id, spotify_played_at, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.Happy,
		record.Sad,
		record.Angry,
		record.Relaxed,
		record.Note,
		record.SpotifyTrackID,
		record.SpotifyPlayedAt,
		record.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting mood record: %w", err)
	}
	return nil
}

const moodColumns = `
	id, user_id, happy, sad, angry, relaxed,
	note, spotify_track_id, spotify_played_at, recorded_at
`

func scanMoodRows(rows pgx.Rows) ([]MoodRecord, error) {
	defer rows.Close()

	var records []MoodRecord
	for rows.Next() {
		var rec MoodRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Happy,
			&rec.Sad,
			&rec.Angry,
			&rec.Relaxed,
			&rec.Note,
			&rec.SpotifyTrackID,
			&rec.SpotifyPlayedAt,
			&rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning mood record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading mood records: %w", err)
	}
	return records, nil
}

// ListRecent returns the user's most recent records, newest first.
func (r *MoodRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]MoodRecord, error) {
	query := `
		SELECT ` + moodColumns + `
		FROM mood_records
		WHERE user_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent mood records: %w", err)
	}
	return scanMoodRows(rows)
}

// ListWindow returns the user's records within [from, to], oldest first.
func (r *MoodRepository) ListWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]MoodRecord, error) {
	query := `
		SELECT ` + moodColumns + `
		FROM mood_records
		WHERE user_id = $1 AND recorded_at >= $2 AND recorded_at <= $3
		ORDER BY recorded_at ASC
	`
	rows, err := r.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying mood records in window: %w", err)
	}
	return scanMoodRows(rows)
}
