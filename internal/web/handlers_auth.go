package web

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/vchernysh/go-mood-recommender/internal/auth"
	"github.com/vchernysh/go-mood-recommender/internal/db"
)

const minPasswordLength = 8

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	IsActive         bool      `json:"is_active"`
	SpotifyConnected bool      `json:"spotify_connected"`
	CreatedAt        time.Time `json:"created_at"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(user *db.User) userResponse {
	return userResponse{
		ID:               user.ID.String(),
		Email:            user.Email,
		IsActive:         user.IsActive,
		SpotifyConnected: user.SpotifyConnected(),
		CreatedAt:        user.CreatedAt,
	}
}

func normalizeEmail(email string) (string, bool) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", false
	}
	return email, true
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "malformed request body")
		return
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		writeValidationError(w, "invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeValidationError(w, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	user := &db.User{Email: email, PasswordHash: hash, IsActive: true}
	if err := h.users.Create(r.Context(), user); err != nil {
		writeError(w, h.log, err)
		return
	}

	token, err := h.tokens.IssueToken(user.ID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	h.log.Info("user registered", zapUserID(user.ID))
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: toUserResponse(user)})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "malformed request body")
		return
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		writeError(w, h.log, auth.ErrInvalidCredentials)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		// Unknown email reports the same error as a wrong password.
		writeError(w, h.log, auth.ErrInvalidCredentials)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, h.log, err)
		return
	}

	token, err := h.tokens.IssueToken(user.ID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: toUserResponse(user)})
}
