package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[string]models.User

func (f fakeUsers) GetUser(_ context.Context, username string) (models.User, error) {
	u, ok := f[username]
	if !ok {
		return models.User{}, errors.Wrap(apperrors.ErrNotFound, username)
	}
	return u, nil
}

func protected(t *testing.T, s *TokenService, users UserLookup) http.Handler {
	t.Helper()
	return Middleware(s, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(user.Username))
	}))
}

func TestMiddleware(t *testing.T) {
	s := newTestTokenService(t, "k", "HS256")
	users := fakeUsers{"bob": {ID: "1", Username: "bob"}}

	valid, err := s.IssueToken("bob", time.Hour)
	require.NoError(t, err)
	ghost, err := s.IssueToken("ghost", time.Hour)
	require.NoError(t, err)
	// IssueToken treats a non-positive ttl as the default, so issue in the past instead.
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := s.IssueToken("bob", time.Minute)
	require.NoError(t, err)
	s.now = time.Now

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "lower-case scheme", header: "bearer " + valid, wantStatus: http.StatusOK},
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized, wantBody: "Not authenticated"},
		{name: "basic scheme", header: "Basic Ym9iOnNlY3JldA==", wantStatus: http.StatusUnauthorized, wantBody: "Not authenticated"},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantBody: "Could not validate credentials"},
		{name: "expired token", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized, wantBody: "Could not validate credentials"},
		{name: "unknown user", header: "Bearer " + ghost, wantStatus: http.StatusUnauthorized, wantBody: "Could not validate credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/images", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected(t, s, users).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "bob", rec.Body.String())
				return
			}
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, map[string]string{"detail": tt.wantBody}, body)
		})
	}
}

type failingUsers struct{ err error }

func (f failingUsers) GetUser(context.Context, string) (models.User, error) {
	return models.User{}, f.err
}

func TestMiddleware_LookupFailureIsServerError(t *testing.T) {
	s := newTestTokenService(t, "k", "HS256")
	token, err := s.IssueToken("bob", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/images", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protected(t, s, failingUsers{err: errors.New("database is locked")}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"detail": "Internal server error"}, body)
}
