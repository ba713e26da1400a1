package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/isdelr/codeshot-be/internal/auth"
	"github.com/isdelr/codeshot-be/internal/services"
	"github.com/rs/zerolog/log"
)

// ImageHandler handles code image requests.
type ImageHandler struct {
	service services.ImageServiceProvider
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(service services.ImageServiceProvider) *ImageHandler {
	return &ImageHandler{service: service}
}

// ImagePayload is the body of POST /images.
type ImagePayload struct {
	Code       string            `json:"code"`
	Parameters map[string]string `json:"parameters"`
}

// Create renders the submitted code and responds with the PNG itself.
func (h *ImageHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		auth.Unauthorized(w, "Not authenticated")
		return
	}

	var payload ImagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	img, err := h.service.CreateImage(r.Context(), user.Username, payload.Code, payload.Parameters)
	if err != nil {
		log.Warn().Err(err).Str("username", user.Username).Msg("Failed to create image")
		WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("X-Image-Location", img.Location)
	w.WriteHeader(http.StatusCreated)
	if _, err := w.Write(img.Data); err != nil {
		log.Warn().Err(err).Str("key", img.Key).Msg("Failed to write image response")
	}
}
