// Package recommend drives the mood analysis and recommendation
// workflow: recent tracks in, a persisted mood record and ranked song
// suggestions out.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vchernysh/go-mood-recommender/internal/db"
	"github.com/vchernysh/go-mood-recommender/internal/mood"
	"github.com/vchernysh/go-mood-recommender/internal/moodai"
	"github.com/vchernysh/go-mood-recommender/internal/spotify"
)

// Common errors.
var (
	// ErrNoTracks is returned when the streaming account has no
	// recently played tracks to analyze.
	ErrNoTracks = errors.New("no recently played tracks")

	// ErrNoAnalyzableTracks is returned when every per-track lyric or
	// prediction step failed, leaving nothing to aggregate.
	ErrNoAnalyzableTracks = errors.New("no tracks could be analyzed")

	// ErrNoMoodData is returned when a user has no mood records yet.
	ErrNoMoodData = errors.New("no mood data recorded")
)

// StreamingAdapter is the playback-history boundary.
type StreamingAdapter interface {
	RecentTracks(ctx context.Context, user *db.User, limit int) ([]spotify.Track, error)
	Queue(ctx context.Context, user *db.User, trackID string) error
}

// LyricsAdapter fetches lyric text for a track.
type LyricsAdapter interface {
	Lyrics(ctx context.Context, artist, title string) (string, error)
}

// PredictionAdapter predicts a mood vector from lyric text.
type PredictionAdapter interface {
	PredictMood(ctx context.Context, lyricsText, artist, title string) (mood.Vector, error)
}

// RecommendationAdapter queries songs matching a mood vector.
type RecommendationAdapter interface {
	Recommend(ctx context.Context, vector mood.Vector) ([]moodai.RecommendedSong, error)
}

// MoodStore is the persistence boundary for mood records.
type MoodStore interface {
	Insert(ctx context.Context, record *db.MoodRecord) error
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]db.MoodRecord, error)
}

// Defaults for tunable parameters.
const (
	DefaultTrackLimit       = 20
	DefaultConcurrency      = 5
	DefaultCurrentMoodCount = 10
)

// Service orchestrates the analysis pipeline across the streaming,
// lyrics, and AI adapters.
type Service struct {
	streaming   StreamingAdapter
	lyrics      LyricsAdapter
	predictor   PredictionAdapter
	recommender RecommendationAdapter
	moods       MoodStore
	log         *zap.Logger

	trackLimit       int
	concurrency      int
	currentMoodCount int
}

// Option configures a Service.
type Option func(*Service)

// WithTrackLimit sets how many recently played tracks one analysis fetches.
func WithTrackLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.trackLimit = n
		}
	}
}

// WithConcurrency bounds the per-track fan-out during analysis.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithCurrentMoodCount sets how many recent records define "current mood".
func WithCurrentMoodCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.currentMoodCount = n
		}
	}
}

// NewService creates the orchestrator.
func NewService(
	streaming StreamingAdapter,
	lyricsClient LyricsAdapter,
	predictor PredictionAdapter,
	recommender RecommendationAdapter,
	moods MoodStore,
	log *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		streaming:        streaming,
		lyrics:           lyricsClient,
		predictor:        predictor,
		recommender:      recommender,
		moods:            moods,
		log:              log.Named("recommend"),
		trackLimit:       DefaultTrackLimit,
		concurrency:      DefaultConcurrency,
		currentMoodCount: DefaultCurrentMoodCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrackOutcome records what happened to one track during analysis.
type TrackOutcome struct {
	Track   spotify.Track `json:"track"`
	Mood    *mood.Vector  `json:"mood,omitempty"`
	Skipped string        `json:"skipped,omitempty"` // reason, empty on success
}

// AnalysisResult is the outcome of one analysis run.
type AnalysisResult struct {
	Record         db.MoodRecord  `json:"record"`
	AverageMood    mood.Vector    `json:"average_mood"`
	TracksFetched  int            `json:"tracks_fetched"`
	TracksAnalyzed int            `json:"tracks_analyzed"`
	Outcomes       []TrackOutcome `json:"outcomes"`
}

// AnalyzeRecentTracks runs the full pipeline: fetch the user's recent
// tracks, fetch lyrics and predict a mood per track, aggregate the
// successful predictions, and persist the aggregate as a new mood
// record. A track whose lyrics are missing or whose prediction fails
// is skipped; the batch only fails when every track is skipped. A
// non-positive limit falls back to the configured track limit.
func (s *Service) AnalyzeRecentTracks(ctx context.Context, user *db.User, limit int) (*AnalysisResult, error) {
	if limit <= 0 {
		limit = s.trackLimit
	}
	tracks, err := s.streaming.RecentTracks(ctx, user, limit)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	outcomes := s.analyzeTracks(ctx, tracks)

	// Tracks arrive newest first; the first analyzed one identifies
	// the record's source.
	var sourceTrackID *string
	var sourcePlayedAt *time.Time
	var vectors []mood.Vector
	for _, o := range outcomes {
		if o.Mood == nil {
			continue
		}
		if sourceTrackID == nil {
			id := o.Track.ID
			sourceTrackID = &id
			sourcePlayedAt = o.Track.PlayedAt
		}
		vectors = append(vectors, *o.Mood)
	}

	avg, err := mood.Aggregate(vectors)
	if errors.Is(err, mood.ErrEmptyInput) {
		return nil, ErrNoAnalyzableTracks
	}
	if err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Generated from %d of %d recent tracks", len(vectors), len(tracks))
	record := db.MoodRecord{
		UserID:          user.ID,
		Happy:           avg.Happy,
		Sad:             avg.Sad,
		Angry:           avg.Angry,
		Relaxed:         avg.Relaxed,
		Note:            &note,
		SpotifyTrackID:  sourceTrackID,
		SpotifyPlayedAt: sourcePlayedAt,
		RecordedAt:      time.Now().UTC(),
	}
	if err := s.moods.Insert(ctx, &record); err != nil {
		return nil, fmt.Errorf("persisting mood record: %w", err)
	}

	return &AnalysisResult{
		Record:         record,
		AverageMood:    avg,
		TracksFetched:  len(tracks),
		TracksAnalyzed: len(vectors),
		Outcomes:       outcomes,
	}, nil
}

// analyzeTracks runs the per-track lyrics and prediction steps with
// bounded concurrency. Per-track failures are captured in the outcome,
// never returned; the group joins before aggregation.
func (s *Service) analyzeTracks(ctx context.Context, tracks []spotify.Track) []TrackOutcome {
	outcomes := make([]TrackOutcome, len(tracks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, track := range tracks {
		i, track := i, track
		g.Go(func() error {
			outcomes[i] = s.analyzeTrack(ctx, track)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return outcomes
}

// analyzeTrack fetches lyrics and predicts a mood for one track.
func (s *Service) analyzeTrack(ctx context.Context, track spotify.Track) TrackOutcome {
	outcome := TrackOutcome{Track: track}

	lyricsText, err := s.lyrics.Lyrics(ctx, track.Artist, track.Name)
	if err != nil {
		s.log.Debug("skipping track without lyrics",
			zap.String("track", track.Name),
			zap.String("artist", track.Artist),
			zap.Error(err))
		outcome.Skipped = "lyrics unavailable"
		return outcome
	}

	vector, err := s.predictor.PredictMood(ctx, lyricsText, track.Artist, track.Name)
	if err != nil {
		s.log.Warn("skipping track after failed prediction",
			zap.String("track", track.Name),
			zap.String("artist", track.Artist),
			zap.Error(err))
		outcome.Skipped = "prediction failed"
		return outcome
	}

	outcome.Mood = &vector
	return outcome
}

// CurrentMood aggregates the user's most recent mood records into a
// single vector. Returns ErrNoMoodData when the user has no records.
func (s *Service) CurrentMood(ctx context.Context, userID uuid.UUID) (mood.Vector, error) {
	records, err := s.moods.ListRecent(ctx, userID, s.currentMoodCount)
	if err != nil {
		return mood.Vector{}, fmt.Errorf("loading mood records: %w", err)
	}

	vectors := make([]mood.Vector, len(records))
	for i, rec := range records {
		vectors[i] = mood.FromRecord(rec)
	}

	current, err := mood.Aggregate(vectors)
	if errors.Is(err, mood.ErrEmptyInput) {
		return mood.Vector{}, ErrNoMoodData
	}
	return current, err
}

// Recommendations returns songs matching either the caller-supplied
// mood override or, when override is nil, the user's current mood,
// along with the vector the songs were matched against. The override
// path never touches the mood history. Ordering is the AI service's;
// this service does not re-rank.
func (s *Service) Recommendations(ctx context.Context, userID uuid.UUID, override *mood.Vector) ([]moodai.RecommendedSong, mood.Vector, error) {
	var vector mood.Vector
	if override != nil {
		if err := override.Validate(); err != nil {
			return nil, mood.Vector{}, err
		}
		vector = *override
	} else {
		var err error
		vector, err = s.CurrentMood(ctx, userID)
		if err != nil {
			return nil, mood.Vector{}, err
		}
	}

	songs, err := s.recommender.Recommend(ctx, vector)
	if err != nil {
		return nil, mood.Vector{}, err
	}
	return songs, vector, nil
}

// QueueTrack enqueues a track on the user's active playback device.
func (s *Service) QueueTrack(ctx context.Context, user *db.User, trackID string) error {
	return s.streaming.Queue(ctx, user, trackID)
}
