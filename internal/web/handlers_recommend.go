package web

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/vchernysh/go-mood-recommender/internal/mood"
	"github.com/vchernysh/go-mood-recommender/internal/moodai"
	"github.com/vchernysh/go-mood-recommender/internal/recommend"
)

type analyzeResponse struct {
	Record         moodRecordResponse      `json:"record"`
	Mood           mood.Vector             `json:"mood"`
	TracksFetched  int                     `json:"tracks_fetched"`
	TracksAnalyzed int                     `json:"tracks_analyzed"`
	Tracks         []recommend.TrackOutcome `json:"tracks"`
}

// analyzeRecentTracks runs the listening analysis pipeline and returns
// the persisted aggregate along with the per-track outcomes.
func (h *Handlers) analyzeRecentTracks(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	limit, ok := h.limitParam(r)
	if !ok {
		writeValidationError(w, "limit must be an integer between 1 and 50")
		return
	}

	result, err := h.orchestrator.AnalyzeRecentTracks(r.Context(), user, limit)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Record:         toMoodRecordResponse(result.Record),
		Mood:           result.AverageMood,
		TracksFetched:  result.TracksFetched,
		TracksAnalyzed: result.TracksAnalyzed,
		Tracks:         result.Outcomes,
	})
}

type recommendationsResponse struct {
	Mood  mood.Vector              `json:"mood"`
	Songs []moodai.RecommendedSong `json:"songs"`
	Count int                      `json:"count"`
}

// getRecommendations returns songs matching either an explicit mood
// override from the query string or the user's current mood.
func (h *Handlers) getRecommendations(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	override, err := moodOverride(r.URL.Query())
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	songs, vec, err := h.orchestrator.Recommendations(r.Context(), user.ID, override)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if songs == nil {
		songs = []moodai.RecommendedSong{}
	}

	writeJSON(w, http.StatusOK, recommendationsResponse{Mood: vec, Songs: songs, Count: len(songs)})
}

// moodOverride parses the optional happy/sad/angry/relaxed query
// parameters. Either all four are present or none.
func moodOverride(q url.Values) (*mood.Vector, error) {
	names := []string{"happy", "sad", "angry", "relaxed"}
	values := make([]float64, len(names))
	seen := 0
	for i, name := range names {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &overrideError{name}
		}
		values[i] = v
		seen++
	}
	if seen == 0 {
		return nil, nil
	}
	if seen != len(names) {
		return nil, &overrideError{}
	}

	vec := mood.Vector{Happy: values[0], Sad: values[1], Angry: values[2], Relaxed: values[3]}
	if err := vec.Validate(); err != nil {
		return nil, err
	}
	return &vec, nil
}

type overrideError struct {
	param string
}

func (e *overrideError) Error() string {
	if e.param != "" {
		return e.param + " must be a number between 0 and 1"
	}
	return "mood override requires all of happy, sad, angry and relaxed"
}

type queueSongRequest struct {
	TrackID string `json:"track_id"`
}

type queueSongResponse struct {
	Queued  bool   `json:"queued"`
	TrackID string `json:"track_id"`
}

// queueSong adds a track to the user's active Spotify playback queue.
func (h *Handlers) queueSong(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	var req queueSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "malformed request body")
		return
	}
	req.TrackID = strings.TrimSpace(req.TrackID)
	if req.TrackID == "" {
		writeValidationError(w, "track_id is required")
		return
	}

	if err := h.orchestrator.QueueTrack(r.Context(), user, req.TrackID); err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, queueSongResponse{Queued: true, TrackID: req.TrackID})
}
