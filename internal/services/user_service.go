package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/metrics"
	"github.com/isdelr/codeshot-be/internal/models"
	"github.com/isdelr/codeshot-be/internal/repository"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, username, password string) (models.User, error)
	GetUser(ctx context.Context, username string) (models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (models.User, error)
}

// UserService provides credential management on top of a UserRepository.
type UserService struct {
	repo     repository.UserRepository
	events   EventServiceProvider
	hashCost int
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService creates a new UserService.
func NewUserService(repo repository.UserRepository, events EventServiceProvider) *UserService {
	return &UserService{
		repo:     repo,
		events:   events,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// CreateUser creates a new user, hashing their password. It fails with
// apperrors.ErrAlreadyExists when the username is taken.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (models.User, error) {
	if strings.TrimSpace(username) == "" {
		return models.User{}, apperrors.New(apperrors.ErrValidation, "username must not be empty")
	}
	if password == "" {
		return models.User{}, apperrors.New(apperrors.ErrValidation, "password must not be empty")
	}

	_, err := s.repo.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return models.User{}, apperrors.New(apperrors.ErrAlreadyExists, "User already exists")
	case !errors.Is(err, apperrors.ErrNotFound):
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return models.User{}, pkgerrors.Wrap(err, "failed to hash password")
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now().UTC(),
	}
	// The unique index still catches a concurrent signup that passed the check above.
	if err := s.repo.Create(ctx, &user); err != nil {
		return models.User{}, err
	}

	metrics.Signups.Inc()
	recordEvent(ctx, s.events, models.EventUserSignup, "info", "User "+username+" signed up", &username)

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// GetUser retrieves a user by exact username.
func (s *UserService) GetUser(ctx context.Context, username string) (models.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// AuthenticateUser verifies a user's credentials. Unknown users and wrong
// passwords both yield apperrors.ErrUnauthenticated.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return models.User{}, err
		}
		// Spend the same bcrypt time as for a real user.
		VerifyPassword(password, s.placeholderHash())
		return models.User{}, s.loginFailed(ctx, username)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return models.User{}, s.loginFailed(ctx, username)
	}

	metrics.Logins.WithLabelValues("success").Inc()
	user.PasswordHash = ""
	return user, nil
}

// VerifyPassword reports whether plain matches the bcrypt hash.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (s *UserService) loginFailed(ctx context.Context, username string) error {
	metrics.Logins.WithLabelValues("failure").Inc()
	recordEvent(ctx, s.events, models.EventLoginFailed, "warn", "Failed login for "+username, &username)
	return apperrors.New(apperrors.ErrUnauthenticated, "Incorrect username or password")
}

func (s *UserService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder"), s.hashCost)
	})
	return string(s.dummyHash)
}

// recordEvent writes to the audit log. Failures are logged, not returned.
func recordEvent(ctx context.Context, events EventServiceProvider, eventType, level, message string, username *string) {
	if events == nil {
		return
	}
	if err := events.CreateEvent(ctx, eventType, level, message, username); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
