// Package middleware holds the handler wrappers applied by the router.
package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"squirrelwiki/internal/auth"
	wikierrors "squirrelwiki/internal/errors"
	"squirrelwiki/internal/models"
)

// WithUser places the session user on the request context.
func WithUser(authService *auth.Service) func(http.Handler) http.Handler {
	return authService.WithUser
}

// RequireRole rejects requests without a logged-in user carrying the role.
// Admins pass every role check.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.UserFromContext(r.Context())
			if user == nil {
				writeError(w, wikierrors.Unauthorized("login required"))
				return
			}
			if !user.HasRole(role) && !user.HasRole(models.RoleAdmin) {
				writeError(w, wikierrors.Forbidden("requires the "+role+" role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Logger writes one structured line per request.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// Recover turns a handler panic into a 500 instead of killing the
// connection.
func Recover(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
					writeError(w, wikierrors.Internal("internal server error", nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(wikierrors.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    wikierrors.CodeOf(err),
			"message": wikierrors.PublicMessage(err),
		},
	})
}
