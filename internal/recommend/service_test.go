package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vchernysh/go-mood-recommender/internal/db"
	"github.com/vchernysh/go-mood-recommender/internal/lyrics"
	"github.com/vchernysh/go-mood-recommender/internal/mood"
	"github.com/vchernysh/go-mood-recommender/internal/moodai"
	"github.com/vchernysh/go-mood-recommender/internal/spotify"
)

// fakeStreaming returns a fixed track list or error.
type fakeStreaming struct {
	tracks   []spotify.Track
	err      error
	queueErr error
	queued   []string
	gotLimit int
}

func (f *fakeStreaming) RecentTracks(_ context.Context, _ *db.User, limit int) ([]spotify.Track, error) {
	f.gotLimit = limit
	return f.tracks, f.err
}

func (f *fakeStreaming) Queue(_ context.Context, _ *db.User, trackID string) error {
	if f.queueErr != nil {
		return f.queueErr
	}
	f.queued = append(f.queued, trackID)
	return nil
}

// fakeLyrics maps track name to lyric text; missing entries fail with
// the configured error.
type fakeLyrics struct {
	byTitle map[string]string
	missErr error
}

func (f *fakeLyrics) Lyrics(_ context.Context, _, title string) (string, error) {
	text, ok := f.byTitle[title]
	if !ok {
		return "", f.missErr
	}
	return text, nil
}

// fakePredictor maps lyric text to a vector.
type fakePredictor struct {
	byLyrics map[string]mood.Vector
	err      error
}

func (f *fakePredictor) PredictMood(_ context.Context, lyricsText, _, _ string) (mood.Vector, error) {
	if f.err != nil {
		return mood.Vector{}, f.err
	}
	v, ok := f.byLyrics[lyricsText]
	if !ok {
		return mood.Vector{}, moodai.ErrPrediction
	}
	return v, nil
}

// fakeRecommender records the vector it was called with.
type fakeRecommender struct {
	songs  []moodai.RecommendedSong
	err    error
	gotVec *mood.Vector
}

func (f *fakeRecommender) Recommend(_ context.Context, vector mood.Vector) ([]moodai.RecommendedSong, error) {
	f.gotVec = &vector
	return f.songs, f.err
}

// fakeMoodStore is an in-memory append-only store.
type fakeMoodStore struct {
	records   []db.MoodRecord
	insertErr error
	listCalls int
}

func (f *fakeMoodStore) Insert(_ context.Context, record *db.MoodRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeMoodStore) ListRecent(_ context.Context, userID uuid.UUID, limit int) ([]db.MoodRecord, error) {
	f.listCalls++
	var out []db.MoodRecord
	for i := len(f.records) - 1; i >= 0 && len(out) < limit; i-- {
		if f.records[i].UserID == userID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func testUser() *db.User {
	token := "access-token"
	return &db.User{ID: uuid.New(), Email: "user@example.com", SpotifyAccessToken: &token}
}

func trackNamed(name string) spotify.Track {
	return spotify.Track{ID: "id-" + name, Name: name, Artist: "Artist"}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAnalyzeRecentTracksSkipsMissingLyrics(t *testing.T) {
	// 5 tracks, 2 without lyrics: the record must be the mean of the
	// 3 successful predictions and the request must not fail.
	streaming := &fakeStreaming{tracks: []spotify.Track{
		trackNamed("one"), trackNamed("two"), trackNamed("three"),
		trackNamed("four"), trackNamed("five"),
	}}
	lyricsClient := &fakeLyrics{
		byTitle: map[string]string{
			"one":   "lyrics one",
			"three": "lyrics three",
			"five":  "lyrics five",
		},
		missErr: lyrics.ErrNotFound,
	}
	predictor := &fakePredictor{byLyrics: map[string]mood.Vector{
		"lyrics one":   {Happy: 0.9, Sad: 0.0, Angry: 0.0, Relaxed: 0.3},
		"lyrics three": {Happy: 0.3, Sad: 0.6, Angry: 0.3, Relaxed: 0.0},
		"lyrics five":  {Happy: 0.6, Sad: 0.3, Angry: 0.6, Relaxed: 0.6},
	}}
	store := &fakeMoodStore{}

	svc := NewService(streaming, lyricsClient, predictor, &fakeRecommender{}, store, zap.NewNop())

	result, err := svc.AnalyzeRecentTracks(context.Background(), testUser(), 0)
	if err != nil {
		t.Fatalf("AnalyzeRecentTracks() error = %v", err)
	}

	if result.TracksFetched != 5 || result.TracksAnalyzed != 3 {
		t.Errorf("fetched/analyzed = %d/%d, want 5/3", result.TracksFetched, result.TracksAnalyzed)
	}
	if !almostEqual(result.AverageMood.Happy, 0.6) ||
		!almostEqual(result.AverageMood.Sad, 0.3) ||
		!almostEqual(result.AverageMood.Angry, 0.3) ||
		!almostEqual(result.AverageMood.Relaxed, 0.3) {
		t.Errorf("AverageMood = %+v, want mean of the 3 predictions", result.AverageMood)
	}
	if len(store.records) != 1 {
		t.Fatalf("persisted %d records, want 1", len(store.records))
	}
	if !almostEqual(store.records[0].Happy, 0.6) {
		t.Errorf("persisted Happy = %g, want 0.6", store.records[0].Happy)
	}

	skipped := 0
	for _, o := range result.Outcomes {
		if o.Skipped != "" {
			skipped++
		}
	}
	if skipped != 2 {
		t.Errorf("skipped outcomes = %d, want 2", skipped)
	}
}

func TestAnalyzeRecentTracksRecordsSourceTrack(t *testing.T) {
	// The persisted record names the newest analyzed track, not the
	// newest fetched one when that was skipped.
	playedAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	analyzed := trackNamed("two")
	analyzed.PlayedAt = &playedAt

	streaming := &fakeStreaming{tracks: []spotify.Track{trackNamed("one"), analyzed}}
	lyricsClient := &fakeLyrics{
		byTitle: map[string]string{"two": "lyrics two"},
		missErr: lyrics.ErrNotFound,
	}
	predictor := &fakePredictor{byLyrics: map[string]mood.Vector{
		"lyrics two": {Happy: 0.4, Sad: 0.2, Angry: 0.1, Relaxed: 0.5},
	}}
	store := &fakeMoodStore{}

	svc := NewService(streaming, lyricsClient, predictor, &fakeRecommender{}, store, zap.NewNop())

	if _, err := svc.AnalyzeRecentTracks(context.Background(), testUser(), 0); err != nil {
		t.Fatalf("AnalyzeRecentTracks() error = %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("persisted %d records, want 1", len(store.records))
	}

	rec := store.records[0]
	if rec.SpotifyTrackID == nil || *rec.SpotifyTrackID != "id-two" {
		t.Errorf("SpotifyTrackID = %v, want id-two", rec.SpotifyTrackID)
	}
	if rec.SpotifyPlayedAt == nil || !rec.SpotifyPlayedAt.Equal(playedAt) {
		t.Errorf("SpotifyPlayedAt = %v, want %v", rec.SpotifyPlayedAt, playedAt)
	}
}

func TestAnalyzeRecentTracksAllFail(t *testing.T) {
	streaming := &fakeStreaming{tracks: []spotify.Track{trackNamed("one"), trackNamed("two")}}
	lyricsClient := &fakeLyrics{byTitle: map[string]string{}, missErr: lyrics.ErrServiceUnavailable}
	store := &fakeMoodStore{}

	svc := NewService(streaming, lyricsClient, &fakePredictor{}, &fakeRecommender{}, store, zap.NewNop())

	_, err := svc.AnalyzeRecentTracks(context.Background(), testUser(), 0)
	if !errors.Is(err, ErrNoAnalyzableTracks) {
		t.Fatalf("AnalyzeRecentTracks() error = %v, want ErrNoAnalyzableTracks", err)
	}
	if len(store.records) != 0 {
		t.Errorf("persisted %d records, want none on total failure", len(store.records))
	}
}

func TestAnalyzeRecentTracksPredictionFailureTolerated(t *testing.T) {
	streaming := &fakeStreaming{tracks: []spotify.Track{trackNamed("good"), trackNamed("bad")}}
	lyricsClient := &fakeLyrics{byTitle: map[string]string{
		"good": "good lyrics",
		"bad":  "bad lyrics",
	}}
	predictor := &fakePredictor{byLyrics: map[string]mood.Vector{
		"good lyrics": {Happy: 0.5, Sad: 0.1, Angry: 0.1, Relaxed: 0.3},
		// "bad lyrics" absent: prediction fails for that track
	}}
	store := &fakeMoodStore{}

	svc := NewService(streaming, lyricsClient, predictor, &fakeRecommender{}, store, zap.NewNop())

	result, err := svc.AnalyzeRecentTracks(context.Background(), testUser(), 0)
	if err != nil {
		t.Fatalf("AnalyzeRecentTracks() error = %v", err)
	}
	if result.TracksAnalyzed != 1 {
		t.Errorf("TracksAnalyzed = %d, want 1", result.TracksAnalyzed)
	}
}

func TestAnalyzeRecentTracksNoTracks(t *testing.T) {
	svc := NewService(&fakeStreaming{}, &fakeLyrics{}, &fakePredictor{}, &fakeRecommender{}, &fakeMoodStore{}, zap.NewNop())

	if _, err := svc.AnalyzeRecentTracks(context.Background(), testUser(), 0); !errors.Is(err, ErrNoTracks) {
		t.Errorf("AnalyzeRecentTracks() error = %v, want ErrNoTracks", err)
	}
}

func TestAnalyzeRecentTracksLimit(t *testing.T) {
	streaming := &fakeStreaming{}
	svc := NewService(streaming, &fakeLyrics{}, &fakePredictor{}, &fakeRecommender{}, &fakeMoodStore{}, zap.NewNop(), WithTrackLimit(15))

	_, _ = svc.AnalyzeRecentTracks(context.Background(), testUser(), 0)
	if streaming.gotLimit != 15 {
		t.Errorf("default limit = %d, want 15", streaming.gotLimit)
	}

	_, _ = svc.AnalyzeRecentTracks(context.Background(), testUser(), 5)
	if streaming.gotLimit != 5 {
		t.Errorf("explicit limit = %d, want 5", streaming.gotLimit)
	}
}

func TestAnalyzeRecentTracksStreamingErrorPropagates(t *testing.T) {
	streaming := &fakeStreaming{err: spotify.ErrAuthExpired}
	svc := NewService(streaming, &fakeLyrics{}, &fakePredictor{}, &fakeRecommender{}, &fakeMoodStore{}, zap.NewNop())

	if _, err := svc.AnalyzeRecentTracks(context.Background(), testUser(), 0); !errors.Is(err, spotify.ErrAuthExpired) {
		t.Errorf("AnalyzeRecentTracks() error = %v, want ErrAuthExpired", err)
	}
}

func TestAnalyzeRecentTracksPersistenceError(t *testing.T) {
	streaming := &fakeStreaming{tracks: []spotify.Track{trackNamed("one")}}
	lyricsClient := &fakeLyrics{byTitle: map[string]string{"one": "text"}}
	predictor := &fakePredictor{byLyrics: map[string]mood.Vector{
		"text": {Happy: 0.5},
	}}
	insertErr := fmt.Errorf("connection lost")
	store := &fakeMoodStore{insertErr: insertErr}

	svc := NewService(streaming, lyricsClient, predictor, &fakeRecommender{}, store, zap.NewNop())

	if _, err := svc.AnalyzeRecentTracks(context.Background(), testUser(), 0); !errors.Is(err, insertErr) {
		t.Errorf("AnalyzeRecentTracks() error = %v, want persistence error", err)
	}
}

func TestCurrentMood(t *testing.T) {
	userID := uuid.New()
	store := &fakeMoodStore{records: []db.MoodRecord{
		{UserID: userID, Happy: 0.2, Sad: 0.4, Angry: 0.0, Relaxed: 0.6},
		{UserID: userID, Happy: 0.6, Sad: 0.2, Angry: 0.4, Relaxed: 0.2},
		{UserID: uuid.New(), Happy: 1.0, Sad: 1.0, Angry: 1.0, Relaxed: 1.0}, // other user
	}}

	svc := NewService(&fakeStreaming{}, &fakeLyrics{}, &fakePredictor{}, &fakeRecommender{}, store, zap.NewNop())

	got, err := svc.CurrentMood(context.Background(), userID)
	if err != nil {
		t.Fatalf("CurrentMood() error = %v", err)
	}
	if !almostEqual(got.Happy, 0.4) || !almostEqual(got.Sad, 0.3) ||
		!almostEqual(got.Angry, 0.2) || !almostEqual(got.Relaxed, 0.4) {
		t.Errorf("CurrentMood() = %+v, want means over the user's records only", got)
	}
}

func TestCurrentMoodNoData(t *testing.T) {
	svc := NewService(&fakeStreaming{}, &fakeLyrics{}, &fakePredictor{}, &fakeRecommender{}, &fakeMoodStore{}, zap.NewNop())

	if _, err := svc.CurrentMood(context.Background(), uuid.New()); !errors.Is(err, ErrNoMoodData) {
		t.Errorf("CurrentMood() error = %v, want ErrNoMoodData", err)
	}
}

func TestRecommendationsWithOverrideSkipsHistory(t *testing.T) {
	store := &fakeMoodStore{}
	recommender := &fakeRecommender{songs: []moodai.RecommendedSong{
		{Artist: "Nina Simone", Title: "Feeling Good"},
	}}

	svc := NewService(&fakeStreaming{}, &fakeLyrics{}, &fakePredictor{}, recommender, store, zap.NewNop())

	override := &mood.Vector{Happy: 0.9, Relaxed: 0.1}
	songs, vec, err := svc.Recommendations(context.Background(), uuid.New(), override)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if vec != *override {
		t.Errorf("resolved vector = %+v, want the override", vec)
	}

	if store.listCalls != 0 {
		t.Errorf("mood history queried %d times with an explicit override, want 0", store.listCalls)
	}
	if recommender.gotVec == nil || *recommender.gotVec != *override {
		t.Errorf("recommender called with %+v, want the override", recommender.gotVec)
	}
	if len(songs) != 1 || songs[0].Title != "Feeling Good" {
		t.Errorf("songs = %+v", songs)
	}
}

func TestRecommendationsInvalidOverride(t *testing.T) {
	svc := NewService(&fakeStreaming{}, &fakeLyrics{}, &fakePredictor{}, &fakeRecommender{}, &fakeMoodStore{}, zap.NewNop())

	override := &mood.Vector{Happy: 1.5}
	if _, _, err := svc.Recommendations(context.Background(), uuid.New(), override); err == nil {
		t.Error("Recommendations() with out-of-range override succeeded, want error")
	}
}

func TestRecommendationsFromCurrentMood(t *testing.T) {
	userID := uuid.New()
	store := &fakeMoodStore{records: []db.MoodRecord{
		{UserID: userID, Happy: 0.8, Sad: 0.0, Angry: 0.0, Relaxed: 0.4},
	}}
	recommender := &fakeRecommender{}

	svc := NewService(&fakeStreaming{}, &fakeLyrics{}, &fakePredictor{}, recommender, store, zap.NewNop())

	if _, _, err := svc.Recommendations(context.Background(), userID, nil); err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if recommender.gotVec == nil || !almostEqual(recommender.gotVec.Happy, 0.8) {
		t.Errorf("recommender called with %+v, want current mood", recommender.gotVec)
	}
}

func TestRecommendationsNoHistoryNoOverride(t *testing.T) {
	svc := NewService(&fakeStreaming{}, &fakeLyrics{}, &fakePredictor{}, &fakeRecommender{}, &fakeMoodStore{}, zap.NewNop())

	if _, _, err := svc.Recommendations(context.Background(), uuid.New(), nil); !errors.Is(err, ErrNoMoodData) {
		t.Errorf("Recommendations() error = %v, want ErrNoMoodData", err)
	}
}

func TestQueueTrack(t *testing.T) {
	streaming := &fakeStreaming{}
	svc := NewService(streaming, &fakeLyrics{}, &fakePredictor{}, &fakeRecommender{}, &fakeMoodStore{}, zap.NewNop())

	if err := svc.QueueTrack(context.Background(), testUser(), "track-123"); err != nil {
		t.Fatalf("QueueTrack() error = %v", err)
	}
	if len(streaming.queued) != 1 || streaming.queued[0] != "track-123" {
		t.Errorf("queued = %v", streaming.queued)
	}
}

func TestQueueTrackNoActiveDevice(t *testing.T) {
	streaming := &fakeStreaming{queueErr: spotify.ErrNoActiveDevice}
	svc := NewService(streaming, &fakeLyrics{}, &fakePredictor{}, &fakeRecommender{}, &fakeMoodStore{}, zap.NewNop())

	if err := svc.QueueTrack(context.Background(), testUser(), "track-123"); !errors.Is(err, spotify.ErrNoActiveDevice) {
		t.Errorf("QueueTrack() error = %v, want ErrNoActiveDevice", err)
	}
}
