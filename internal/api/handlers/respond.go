package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/auth"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// WriteError translates an error from the service layer or a middleware
// into a status code and a {"detail": ...} body. Errors without a known kind
// become a 500 and are logged with the route that produced them.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	detail, ok := apperrors.Detail(err)
	if !ok {
		detail = err.Error()
	}

	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrAlreadyExists):
		writeDetail(w, http.StatusBadRequest, detail)
	case errors.Is(err, apperrors.ErrUnauthenticated):
		auth.Unauthorized(w, detail)
	case errors.Is(err, apperrors.ErrRateLimited):
		writeDetail(w, http.StatusTooManyRequests, detail)
	case errors.Is(err, apperrors.ErrRender):
		writeDetail(w, http.StatusBadGateway, detail)
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		writeDetail(w, http.StatusInternalServerError, "Internal server error")
	}
}
