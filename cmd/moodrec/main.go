// Command moodrec runs the mood recommendation API server.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vchernysh/go-mood-recommender/internal/auth"
	"github.com/vchernysh/go-mood-recommender/internal/config"
	"github.com/vchernysh/go-mood-recommender/internal/db"
	"github.com/vchernysh/go-mood-recommender/internal/lyrics"
	"github.com/vchernysh/go-mood-recommender/internal/moodai"
	"github.com/vchernysh/go-mood-recommender/internal/recommend"
	"github.com/vchernysh/go-mood-recommender/internal/spotify"
	"github.com/vchernysh/go-mood-recommender/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	tokens := auth.NewService(cfg.JWTSecret, cfg.JWTTTL)
	spotifySvc := spotify.NewService(spotify.Config{
		ClientID:     cfg.SpotifyID,
		ClientSecret: cfg.SpotifySecret,
		RedirectURI:  cfg.SpotifyRedirectURI,
		Timeout:      cfg.AdapterTimeout,
	}, database.Users(), log)

	lyricsClient := lyrics.NewClient(cfg.LyricsAPIURL, cfg.AdapterTimeout)
	aiClient := moodai.NewClient(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AdapterTimeout)

	orchestrator := recommend.NewService(
		spotifySvc,
		lyricsClient,
		aiClient,
		aiClient,
		database.Moods(),
		log,
		recommend.WithTrackLimit(cfg.TrackLimit),
		recommend.WithConcurrency(cfg.Concurrency),
		recommend.WithCurrentMoodCount(cfg.CurrentMoodCount),
	)

	handlers := web.NewHandlers(
		database.Users(),
		database.Moods(),
		tokens,
		spotifySvc,
		orchestrator,
		log,
		web.HandlersConfig{
			FrontendURL: cfg.FrontendURL,
			StatsDays:   cfg.StatsDays,
			TrackLimit:  cfg.TrackLimit,
		},
	)

	server := web.NewServer(web.ServerConfig{
		Addr:        cfg.Addr,
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, log)

	return server.Run()
}
