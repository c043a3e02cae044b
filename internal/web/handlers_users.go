package web

import (
	"encoding/json"
	"net/http"

	"github.com/vchernysh/go-mood-recommender/internal/auth"
)

func (h *Handlers) getMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(currentUser(r.Context())))
}

type updateProfileRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// updateMe applies a partial profile update. Absent fields keep their
// current value.
func (h *Handlers) updateMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "malformed request body")
		return
	}
	if req.Email == nil && req.Password == nil {
		writeValidationError(w, "nothing to update")
		return
	}

	if req.Email != nil {
		email, ok := normalizeEmail(*req.Email)
		if !ok {
			writeValidationError(w, "invalid email address")
			return
		}
		req.Email = &email
	}

	var passwordHash *string
	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			writeValidationError(w, "password must be at least 8 characters")
			return
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		passwordHash = &hash
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, req.Email, passwordHash)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	h.log.Info("profile updated", zapUserID(user.ID))
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}
