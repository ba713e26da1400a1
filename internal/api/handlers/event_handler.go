package handlers

import (
	"net/http"
	"strconv"

	"github.com/isdelr/codeshot-be/internal/auth"
	"github.com/isdelr/codeshot-be/internal/services"
	"github.com/rs/zerolog/log"
)

// EventHandler handles HTTP requests related to the audit log.
type EventHandler struct {
	service services.EventServiceProvider
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(service services.EventServiceProvider) *EventHandler {
	return &EventHandler{service: service}
}

// GetRecent returns the caller's most recent events.
func (h *EventHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		auth.Unauthorized(w, "Not authenticated")
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = services.DefaultEventLimit
	}

	events, err := h.service.GetRecentEvents(r.Context(), user.Username, limit)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("Failed to retrieve events")
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}
