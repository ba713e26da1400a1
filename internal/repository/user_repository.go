package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/database"
	"github.com/isdelr/codeshot-be/internal/models"
	pkgerrors "github.com/pkg/errors"
)

// UserRepository persists user records.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// SQLUserRepository is a UserRepository over database/sql.
type SQLUserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new SQLUserRepository.
func NewUserRepository(db *database.DB) *SQLUserRepository {
	return &SQLUserRepository{db: db}
}

// Create inserts user. A duplicate username yields apperrors.ErrAlreadyExists.
func (r *SQLUserRepository) Create(ctx context.Context, user *models.User) error {
	query := r.db.Rebind("INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)")
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.New(apperrors.ErrAlreadyExists, "User already exists")
		}
		return pkgerrors.Wrap(err, "insert user")
	}
	return nil
}

// GetByUsername looks a user up by exact username, including the password hash.
func (r *SQLUserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	query := r.db.Rebind("SELECT id, username, password_hash, created_at FROM users WHERE username = ?")
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, pkgerrors.Wrapf(apperrors.ErrNotFound, "user %s", username)
		}
		return models.User{}, pkgerrors.Wrap(err, "select user")
	}
	return user, nil
}
