package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vchernysh/go-mood-recommender/internal/auth"
	"github.com/vchernysh/go-mood-recommender/internal/db"
)

type contextKey string

const userContextKey contextKey = "user"

// currentUser returns the authenticated user stored by requireAuth.
func currentUser(ctx context.Context) *db.User {
	user, _ := ctx.Value(userContextKey).(*db.User)
	return user
}

// requireAuth validates the bearer token and loads the user it
// identifies into the request context.
func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
			writeErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}

		userID, err := h.tokens.VerifyToken(header[7:])
		if err != nil {
			writeError(w, h.log, err)
			return
		}

		user, err := h.users.Get(r.Context(), userID)
		if err != nil {
			// A valid token for a deleted user is still unauthorized.
			writeError(w, h.log, auth.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one structured line per request.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
