package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/database"
	"github.com/isdelr/codeshot-be/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// memUsers is an in-memory repository.UserRepository.
type memUsers struct {
	mu        sync.Mutex
	users     map[string]models.User
	createErr error
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]models.User{}}
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.users[user.Username]; ok {
		return apperrors.New(apperrors.ErrAlreadyExists, "User already exists")
	}
	m.users[user.Username] = *user
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return models.User{}, errors.Wrapf(apperrors.ErrNotFound, "user %s", username)
	}
	return u, nil
}

// recordedEvents captures events instead of writing them.
type recordedEvents struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recordedEvents) CreateEvent(_ context.Context, eventType, level, message string, username *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, models.Event{Type: eventType, Level: level, Message: message, Username: username})
	return nil
}

func (r *recordedEvents) GetRecentEvents(context.Context, string, int) ([]models.Event, error) {
	return nil, nil
}

func (r *recordedEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
