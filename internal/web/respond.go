package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/vchernysh/go-mood-recommender/internal/auth"
	"github.com/vchernysh/go-mood-recommender/internal/db"
	"github.com/vchernysh/go-mood-recommender/internal/lyrics"
	"github.com/vchernysh/go-mood-recommender/internal/moodai"
	"github.com/vchernysh/go-mood-recommender/internal/recommend"
	"github.com/vchernysh/go-mood-recommender/internal/spotify"
)

// errorBody is the JSON error envelope returned on every failure.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorCode writes the error envelope with an explicit code.
func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

// writeValidationError reports malformed or out-of-range input.
func writeValidationError(w http.ResponseWriter, message string) {
	writeErrorCode(w, http.StatusBadRequest, "VALIDATION", message)
}

// classify maps domain errors onto an HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, db.ErrEmailTaken):
		return http.StatusBadRequest, "EMAIL_TAKEN"
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, spotify.ErrNotConnected):
		return http.StatusBadRequest, "SPOTIFY_NOT_CONNECTED"
	case errors.Is(err, spotify.ErrAuthExpired):
		return http.StatusUnauthorized, "SPOTIFY_AUTH_EXPIRED"
	case errors.Is(err, spotify.ErrNoActiveDevice):
		return http.StatusConflict, "NO_ACTIVE_DEVICE"
	case errors.Is(err, recommend.ErrNoTracks):
		return http.StatusNotFound, "NO_TRACKS"
	case errors.Is(err, recommend.ErrNoAnalyzableTracks):
		return http.StatusUnprocessableEntity, "NO_ANALYZABLE_TRACKS"
	case errors.Is(err, recommend.ErrNoMoodData):
		return http.StatusNotFound, "NO_MOOD_DATA"
	case errors.Is(err, lyrics.ErrServiceUnavailable),
		errors.Is(err, moodai.ErrPrediction),
		errors.Is(err, moodai.ErrRecommendation):
		return http.StatusBadGateway, "UPSTREAM"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// writeError translates a domain error into the JSON envelope. Internal
// failures are logged with the cause but reported without it.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		message = "internal server error"
	}
	writeErrorCode(w, status, code, message)
}
