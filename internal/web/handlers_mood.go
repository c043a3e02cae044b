package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/vchernysh/go-mood-recommender/internal/db"
	"github.com/vchernysh/go-mood-recommender/internal/mood"
	"github.com/vchernysh/go-mood-recommender/internal/recommend"
)

type recordMoodRequest struct {
	mood.Vector
	Note *string `json:"note"`
}

type moodRecordResponse struct {
	ID         string      `json:"id"`
	Mood       mood.Vector `json:"mood"`
	Note       *string     `json:"note,omitempty"`
	RecordedAt time.Time   `json:"recorded_at"`
}

func toMoodRecordResponse(rec db.MoodRecord) moodRecordResponse {
	return moodRecordResponse{
		ID:         rec.ID.String(),
		Mood:       mood.FromRecord(rec),
		Note:       rec.Note,
		RecordedAt: rec.RecordedAt,
	}
}

// recordMood stores a manually entered mood vector.
func (h *Handlers) recordMood(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	var req recordMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "malformed request body")
		return
	}
	if err := req.Vector.Validate(); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	record := db.MoodRecord{
		UserID:     user.ID,
		Happy:      req.Happy,
		Sad:        req.Sad,
		Angry:      req.Angry,
		Relaxed:    req.Relaxed,
		Note:       req.Note,
		RecordedAt: time.Now().UTC(),
	}
	if err := h.moods.Insert(r.Context(), &record); err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMoodRecordResponse(record))
}

// moodStatistics summarizes the mood records of the last ?days days.
func (h *Handlers) moodStatistics(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	days, ok := daysParam(r, h.cfg.StatsDays)
	if !ok {
		writeValidationError(w, "days must be an integer between 1 and 365")
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	records, err := h.moods.ListWindow(r.Context(), user.ID, from, to)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, mood.Summarize(records, from, to))
}

type currentMoodResponse struct {
	Mood mood.Vector `json:"mood"`
}

func (h *Handlers) currentMood(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	vec, err := h.orchestrator.CurrentMood(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, currentMoodResponse{Mood: vec})
}

type moodPhasesResponse struct {
	Phases []mood.Phase `json:"phases"`
	Count  int          `json:"count"`
}

// moodPhases clusters the mood history of the last ?days days into
// named phases.
func (h *Handlers) moodPhases(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	days, ok := daysParam(r, 90)
	if !ok {
		writeValidationError(w, "days must be an integer between 1 and 365")
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	records, err := h.moods.ListWindow(r.Context(), user.ID, from, to)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if len(records) == 0 {
		writeError(w, h.log, recommend.ErrNoMoodData)
		return
	}

	phases, err := mood.DetectPhases(records, mood.DefaultPhaseConfig())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if phases == nil {
		phases = []mood.Phase{}
	}

	writeJSON(w, http.StatusOK, moodPhasesResponse{Phases: phases, Count: len(phases)})
}

// daysParam parses an optional ?days query, bounded to [1, 365].
func daysParam(r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return fallback, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 1 || days > 365 {
		return 0, false
	}
	return days, true
}
