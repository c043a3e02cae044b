package web

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vchernysh/go-mood-recommender/internal/auth"
	"github.com/vchernysh/go-mood-recommender/internal/db"
	"github.com/vchernysh/go-mood-recommender/internal/mood"
	"github.com/vchernysh/go-mood-recommender/internal/moodai"
	"github.com/vchernysh/go-mood-recommender/internal/recommend"
	"github.com/vchernysh/go-mood-recommender/internal/spotify"
)

func zapUserID(id uuid.UUID) zap.Field {
	return zap.String("user_id", id.String())
}

// UserStore abstracts user persistence for the handlers.
type UserStore interface {
	Create(ctx context.Context, user *db.User) error
	Get(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetByEmail(ctx context.Context, email string) (*db.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, email, passwordHash *string) (*db.User, error)
}

// MoodStore abstracts mood record persistence for the handlers.
type MoodStore interface {
	Insert(ctx context.Context, record *db.MoodRecord) error
	ListWindow(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]db.MoodRecord, error)
}

// SpotifyConnector is the subset of the Spotify service the handlers use.
type SpotifyConnector interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, user *db.User, code string) error
	RecentTracks(ctx context.Context, user *db.User, limit int) ([]spotify.Track, error)
}

// Orchestrator is the analysis and recommendation workflow boundary.
type Orchestrator interface {
	AnalyzeRecentTracks(ctx context.Context, user *db.User, limit int) (*recommend.AnalysisResult, error)
	CurrentMood(ctx context.Context, userID uuid.UUID) (mood.Vector, error)
	Recommendations(ctx context.Context, userID uuid.UUID, override *mood.Vector) ([]moodai.RecommendedSong, mood.Vector, error)
	QueueTrack(ctx context.Context, user *db.User, trackID string) error
}

// HandlersConfig carries the handler tunables.
type HandlersConfig struct {
	FrontendURL string
	StatsDays   int // default statistics window
	TrackLimit  int // default/max recent-tracks fetch
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	users        UserStore
	moods        MoodStore
	tokens       *auth.Service
	spotify      SpotifyConnector
	orchestrator Orchestrator
	states       *stateStore
	log          *zap.Logger
	cfg          HandlersConfig
}

// NewHandlers creates a Handlers instance.
func NewHandlers(
	users UserStore,
	moods MoodStore,
	tokens *auth.Service,
	spotifySvc SpotifyConnector,
	orchestrator Orchestrator,
	log *zap.Logger,
	cfg HandlersConfig,
) *Handlers {
	if cfg.StatsDays <= 0 {
		cfg.StatsDays = 7
	}
	if cfg.TrackLimit <= 0 {
		cfg.TrackLimit = 20
	}
	return &Handlers{
		users:        users,
		moods:        moods,
		tokens:       tokens,
		spotify:      spotifySvc,
		orchestrator: orchestrator,
		states:       newStateStore(),
		log:          log.Named("web"),
		cfg:          cfg,
	}
}
