// Package spotify wraps the Spotify Web API for per-user playback
// history and queueing, with OAuth tokens stored per user.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/vchernysh/go-mood-recommender/internal/db"
)

// Sentinel errors.
var (
	// ErrNotConnected is returned when the user has never linked a
	// Spotify account.
	ErrNotConnected = errors.New("spotify account not connected")

	// ErrAuthExpired is returned when the stored token is invalid and
	// cannot be refreshed; the user must re-run the connect flow.
	ErrAuthExpired = errors.New("spotify authorization expired")

	// ErrNoActiveDevice is returned when queueing fails because no
	// playback device is active.
	ErrNoActiveDevice = errors.New("no active spotify device")
)

// Track is a reference to a Spotify track. Transient: used to request
// lyrics and queueing, never persisted as-is.
type Track struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Artist     string     `json:"artist"` // comma-separated artist names
	Album      string     `json:"album"`
	URI        string     `json:"uri"`
	PlayedAt   *time.Time `json:"played_at,omitempty"`
	PreviewURL string     `json:"preview_url,omitempty"`
}

// DefaultTimeout bounds outbound Spotify API calls when Config.Timeout
// is zero.
const DefaultTimeout = 10 * time.Second

// Config holds the Spotify application credentials.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Timeout      time.Duration // per API call, DefaultTimeout when zero
}

// Service builds per-user Spotify clients from tokens stored in the
// users table and persists refreshed tokens back.
type Service struct {
	auth    *spotifyauth.Authenticator
	users   *db.UserRepository
	log     *zap.Logger
	timeout time.Duration
}

// NewService creates a Spotify service.
func NewService(cfg Config, users *db.UserRepository, log *zap.Logger) *Service {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadRecentlyPlayed,
			spotifyauth.ScopeUserModifyPlaybackState,
		),
	)
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		auth:    auth,
		users:   users,
		log:     log.Named("spotify"),
		timeout: timeout,
	}
}

// callContext bounds a single outbound API call. The token refresh a
// call may trigger runs inside the same deadline.
func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// AuthURL returns the Spotify consent URL for the given state.
func (s *Service) AuthURL(state string) string {
	return s.auth.AuthURL(state)
}

// Exchange trades an authorization code for tokens and stores them on
// the user.
func (s *Service) Exchange(ctx context.Context, user *db.User, code string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	token, err := s.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}
	if err := s.users.UpdateSpotifyTokens(ctx, user.ID, token.AccessToken, token.RefreshToken, token.Expiry); err != nil {
		return fmt.Errorf("storing spotify tokens: %w", err)
	}
	return nil
}

// clientFor builds an authenticated API client for the user. The
// underlying oauth2 transport refreshes the access token as needed;
// the refreshed token is persisted after the API call by saveToken.
func (s *Service) clientFor(ctx context.Context, user *db.User) (*spotify.Client, *oauth2.Token, error) {
	if !user.SpotifyConnected() {
		return nil, nil, ErrNotConnected
	}

	token := &oauth2.Token{
		AccessToken: *user.SpotifyAccessToken,
		TokenType:   "Bearer",
	}
	if user.SpotifyRefreshToken != nil {
		token.RefreshToken = *user.SpotifyRefreshToken
	}
	if user.SpotifyTokenExpiry != nil {
		token.Expiry = *user.SpotifyTokenExpiry
	}

	return spotify.New(s.auth.Client(ctx, token), spotify.WithRetry(true)), token, nil
}

// saveToken persists the client's current token when the transport
// refreshed it during a call.
func (s *Service) saveToken(ctx context.Context, user *db.User, client *spotify.Client, old *oauth2.Token) {
	current, err := client.Token()
	if err != nil || current.AccessToken == old.AccessToken {
		return
	}
	refresh := current.RefreshToken
	if refresh == "" {
		refresh = old.RefreshToken
	}
	if err := s.users.UpdateSpotifyTokens(ctx, user.ID, current.AccessToken, refresh, current.Expiry); err != nil {
		s.log.Warn("persisting refreshed spotify token failed", zap.Error(err))
	}
}

// RecentTracks fetches the user's most recently played tracks, newest
// first, up to limit.
func (s *Service) RecentTracks(ctx context.Context, user *db.User, limit int) ([]Track, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	client, token, err := s.clientFor(ctx, user)
	if err != nil {
		return nil, err
	}

	items, err := client.PlayerRecentlyPlayedOpt(ctx, recentlyPlayedOptions(limit))
	if err != nil {
		return nil, translateError(err, "fetching recently played tracks")
	}
	s.saveToken(ctx, user, client, token)

	tracks := make([]Track, 0, len(items))
	for _, item := range items {
		track := convertTrack(item.Track)
		if !item.PlayedAt.IsZero() {
			playedAt := item.PlayedAt
			track.PlayedAt = &playedAt
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// recentlyPlayedOptions builds the API options for a history fetch.
// The client library counts in its own numeric type.
func recentlyPlayedOptions(limit int) *spotify.RecentlyPlayedOptions {
	return &spotify.RecentlyPlayedOptions{Limit: spotify.Numeric(limit)}
}

// Queue adds a track to the user's active playback queue.
func (s *Service) Queue(ctx context.Context, user *db.User, trackID string) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	client, token, err := s.clientFor(ctx, user)
	if err != nil {
		return err
	}

	if err := client.QueueSong(ctx, spotify.ID(trackID)); err != nil {
		return translateError(err, "queueing track")
	}
	s.saveToken(ctx, user, client, token)
	return nil
}

// convertTrack flattens a Spotify track into a Track reference.
func convertTrack(st spotify.SimpleTrack) Track {
	artists := make([]string, len(st.Artists))
	for i, a := range st.Artists {
		artists[i] = a.Name
	}
	return Track{
		ID:         st.ID.String(),
		Name:       st.Name,
		Artist:     strings.Join(artists, ", "),
		Album:      st.Album.Name,
		URI:        string(st.URI),
		PreviewURL: st.PreviewURL,
	}
}

// translateError maps Spotify API failures onto the package sentinels.
func translateError(err error, op string) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
			return ErrAuthExpired
		case apiErr.Status == http.StatusNotFound && strings.Contains(strings.ToLower(apiErr.Message), "device"):
			return ErrNoActiveDevice
		}
	}
	// A failed token refresh surfaces as an oauth2 retrieve error.
	var oauthErr *oauth2.RetrieveError
	if errors.As(err, &oauthErr) {
		return ErrAuthExpired
	}
	return fmt.Errorf("%s: %w", op, err)
}
