package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/models"
	"github.com/rs/zerolog/log"
)

type contextKey string

// UserContextKey is the context key for the authenticated user.
const UserContextKey = contextKey("user")

// UserLookup resolves the subject of a verified token.
type UserLookup interface {
	GetUser(ctx context.Context, username string) (models.User, error)
}

// Middleware creates a middleware for protecting routes with bearer tokens.
func Middleware(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				Unauthorized(w, "Not authenticated")
				return
			}

			username, err := tokens.VerifyToken(tokenStr)
			if err != nil {
				log.Debug().Err(err).Msg("Rejected bearer token")
				Unauthorized(w, "Could not validate credentials")
				return
			}

			user, err := users.GetUser(r.Context(), username)
			if err != nil {
				if !errors.Is(err, apperrors.ErrNotFound) {
					log.Error().Err(err).Str("username", username).Msg("Failed to load user for token")
					writeDetail(w, http.StatusInternalServerError, "Internal server error")
					return
				}
				Unauthorized(w, "Could not validate credentials")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the user placed in ctx by Middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(models.User)
	return user, ok
}

// Unauthorized writes the 401 body shared by every protected endpoint.
func Unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
