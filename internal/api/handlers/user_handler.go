package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/services"
	"github.com/rs/zerolog/log"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	IssueToken(username string, ttl time.Duration) (string, error)
}

// UserHandler handles signup and token requests.
type UserHandler struct {
	service services.UserServiceProvider
	tokens  TokenIssuer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens TokenIssuer) *UserHandler {
	return &UserHandler{service: service, tokens: tokens}
}

// SignupPayload defines the structure for signup requests.
type SignupPayload struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// TokenResponse is returned by a successful token request.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Signup handles new user registration.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// A taken username is reported before a password mismatch.
	if _, err := h.service.GetUser(r.Context(), payload.Username); err == nil {
		writeDetail(w, http.StatusBadRequest, "User already exists")
		return
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		log.Error().Err(err).Str("username", payload.Username).Msg("Failed to look up user")
		WriteError(w, r, err)
		return
	}

	if payload.Password != payload.Password2 {
		writeDetail(w, http.StatusBadRequest, "The two passwords should match")
		return
	}

	user, err := h.service.CreateUser(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Token exchanges a username and password for a bearer token. The
// credentials are read from an urlencoded or multipart form, or from a JSON
// body when the request says so.
func (h *UserHandler) Token(w http.ResponseWriter, r *http.Request) {
	username, password, err := readCredentials(r)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), username, password)
	if err != nil {
		log.Warn().Err(err).Str("username", username).Msg("Failed authentication attempt")
		WriteError(w, r, err)
		return
	}

	token, err := h.tokens.IssueToken(user.Username, 0)
	if err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("Failed to generate JWT")
		WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func readCredentials(r *http.Request) (username, password string, err error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var payload struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			return "", "", err
		}
		return payload.Username, payload.Password, nil
	}

	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(1 << 20)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return "", "", err
	}
	return r.PostFormValue("username"), r.PostFormValue("password"), nil
}
