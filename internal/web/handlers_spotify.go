package web

import (
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/vchernysh/go-mood-recommender/internal/spotify"
)

const maxTrackLimit = 50

type spotifyAuthResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// spotifyAuth issues an OAuth authorization URL bound to the current
// user through a short-lived state.
func (h *Handlers) spotifyAuth(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	state, err := h.states.Issue(user.ID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, spotifyAuthResponse{
		AuthURL: h.spotify.AuthURL(state),
		State:   state,
	})
}

// spotifyCallback completes the OAuth flow. Spotify redirects the
// browser here, so success and failure both redirect to the frontend
// instead of returning JSON.
func (h *Handlers) spotifyCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errCode := q.Get("error"); errCode != "" {
		h.log.Warn("spotify authorization denied", zap.String("reason", errCode))
		h.redirectToFrontend(w, r, "error")
		return
	}

	state, code := q.Get("state"), q.Get("code")
	if state == "" || code == "" {
		h.redirectToFrontend(w, r, "error")
		return
	}

	userID, ok := h.states.Redeem(state)
	if !ok {
		h.log.Warn("spotify callback with unknown or expired state")
		h.redirectToFrontend(w, r, "error")
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		h.log.Error("spotify callback user lookup failed", zap.Error(err))
		h.redirectToFrontend(w, r, "error")
		return
	}

	if err := h.spotify.Exchange(r.Context(), user, code); err != nil {
		h.log.Error("spotify code exchange failed", zap.Error(err), zapUserID(user.ID))
		h.redirectToFrontend(w, r, "error")
		return
	}

	h.log.Info("spotify account connected", zapUserID(user.ID))
	h.redirectToFrontend(w, r, "connected")
}

func (h *Handlers) redirectToFrontend(w http.ResponseWriter, r *http.Request, status string) {
	target := h.cfg.FrontendURL + "?spotify=" + url.QueryEscape(status)
	http.Redirect(w, r, target, http.StatusFound)
}

type recentTracksResponse struct {
	Tracks []spotify.Track `json:"tracks"`
	Count  int             `json:"count"`
}

func (h *Handlers) recentTracks(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	limit, ok := h.limitParam(r)
	if !ok {
		writeValidationError(w, "limit must be an integer between 1 and 50")
		return
	}

	tracks, err := h.spotify.RecentTracks(r.Context(), user, limit)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if tracks == nil {
		tracks = []spotify.Track{}
	}

	writeJSON(w, http.StatusOK, recentTracksResponse{Tracks: tracks, Count: len(tracks)})
}

// limitParam parses an optional ?limit query, bounded to [1, 50].
func (h *Handlers) limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.cfg.TrackLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxTrackLimit {
		return 0, false
	}
	return limit, true
}
