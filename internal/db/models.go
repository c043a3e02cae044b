package db

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account, optionally linked to a
// Spotify account through the stored OAuth tokens.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	IsActive     bool

	SpotifyAccessToken  *string    // nullable until the account is connected
	SpotifyRefreshToken *string    // nullable
	SpotifyTokenExpiry  *time.Time // nullable

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SpotifyConnected reports whether the user has linked a Spotify account.
func (u *User) SpotifyConnected() bool {
	return u.SpotifyAccessToken != nil && *u.SpotifyAccessToken != ""
}

// MoodRecord is one emotional snapshot for a user. Records are
// append-only; they are never updated after creation.
type MoodRecord struct {
	ID     uuid.UUID
	UserID uuid.UUID

	Happy   float64
	Sad     float64
	Angry   float64
	Relaxed float64

	Note *string // nullable

	// Provenance for records produced by listening-history analysis.
	SpotifyTrackID  *string    // nullable
	SpotifyPlayedAt *time.Time // nullable

	RecordedAt time.Time
}
