// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for tunable values. All of them can be overridden through
// the corresponding environment variable.
const (
	DefaultAddr             = "127.0.0.1:8000"
	DefaultJWTTTL           = 7 * 24 * time.Hour
	DefaultAdapterTimeout   = 10 * time.Second
	DefaultTrackLimit       = 20
	DefaultConcurrency      = 5
	DefaultCurrentMoodCount = 10
	DefaultStatsDays        = 7
)

// Missing-variable errors.
var (
	ErrMissingDatabaseURL = errors.New("missing DATABASE_URL environment variable")
	ErrMissingJWTSecret   = errors.New("missing JWT_SECRET environment variable")
	ErrMissingSpotify     = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET environment variable")
)

// Config holds all service configuration. It is loaded once at startup
// and injected into constructors; nothing reads the environment after
// Load returns.
type Config struct {
	Addr        string
	DatabaseURL string
	FrontendURL string
	CORSOrigins []string

	JWTSecret string
	JWTTTL    time.Duration

	SpotifyID          string
	SpotifySecret      string
	SpotifyRedirectURI string

	LyricsAPIURL string
	AIAPIURL     string
	AIAPIKey     string

	// Tunables for the analysis pipeline.
	AdapterTimeout   time.Duration // per outbound adapter call
	TrackLimit       int           // N recently played tracks fetched per analysis
	Concurrency      int           // bounded per-track fan-out during analysis
	CurrentMoodCount int           // K most recent records defining "current mood"
	StatsDays        int           // default statistics window in days
}

// Load reads configuration from the environment. It fails on missing
// required variables and on unparseable numeric values.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:               envOr("ADDR", DefaultAddr),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		FrontendURL:        envOr("FRONTEND_URL", "http://localhost:4200"),
		CORSOrigins:        splitList(envOr("CORS_ORIGINS", "http://localhost:4200")),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		JWTTTL:             DefaultJWTTTL,
		SpotifyID:          os.Getenv("SPOTIFY_ID"),
		SpotifySecret:      os.Getenv("SPOTIFY_SECRET"),
		SpotifyRedirectURI: envOr("SPOTIFY_REDIRECT_URI", "http://127.0.0.1:8000/api/v1/spotify/callback"),
		LyricsAPIURL:       envOr("LYRICS_API_URL", "https://api.lyrics.ovh/v1"),
		AIAPIURL:           envOr("AI_API_URL", "http://localhost:5000"),
		AIAPIKey:           os.Getenv("AI_API_KEY"),
		AdapterTimeout:     DefaultAdapterTimeout,
		TrackLimit:         DefaultTrackLimit,
		Concurrency:        DefaultConcurrency,
		CurrentMoodCount:   DefaultCurrentMoodCount,
		StatsDays:          DefaultStatsDays,
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.SpotifyID == "" || cfg.SpotifySecret == "" {
		return nil, ErrMissingSpotify
	}

	var err error
	if cfg.JWTTTL, err = durationEnv("JWT_TTL", cfg.JWTTTL); err != nil {
		return nil, err
	}
	if cfg.AdapterTimeout, err = durationEnv("ADAPTER_TIMEOUT", cfg.AdapterTimeout); err != nil {
		return nil, err
	}
	if cfg.TrackLimit, err = intEnv("ANALYSIS_TRACK_LIMIT", cfg.TrackLimit); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = intEnv("ANALYSIS_CONCURRENCY", cfg.Concurrency); err != nil {
		return nil, err
	}
	if cfg.CurrentMoodCount, err = intEnv("CURRENT_MOOD_RECORDS", cfg.CurrentMoodCount); err != nil {
		return nil, err
	}
	if cfg.StatsDays, err = intEnv("STATS_DEFAULT_DAYS", cfg.StatsDays); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}
