package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/malwarebo/dealhub/models"
	"github.com/malwarebo/dealhub/services"
	"github.com/malwarebo/dealhub/utils"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionFromContext returns the logged-in user attached by TokenRefresh, or
// nil when the request is anonymous.
func SessionFromContext(ctx context.Context) *models.SessionUser {
	if session, ok := ctx.Value(sessionKey).(*models.SessionUser); ok {
		return session
	}
	return nil
}

// TokenRefreshMiddleware resolves the bearer token to a session and attaches
// it to the request context, sliding the session TTL as a side effect. It
// never rejects: anonymous requests pass through and RequireLogin decides
// which routes need a user.
func TokenRefreshMiddleware(users *services.UserService) func(http.Handler) http.Handler {
	logger := utils.NewLogger("auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := users.GetSession(r.Context(), token)
			if err != nil {
				logger.Warn(r.Context(), "session lookup failed", map[string]interface{}{
					"error": err.Error(),
				})
				next.ServeHTTP(w, r)
				return
			}
			if session == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			ctx = utils.WithUserID(ctx, session.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLoginMiddleware rejects requests that TokenRefresh did not resolve
// to a session, in the same JSON error shape the handlers emit.
func RequireLoginMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(utils.ErrUnauthorized.Code)
			json.NewEncoder(w).Encode(map[string]string{"error": utils.ErrUnauthorized.Message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
