// internal/store/users.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/models"

	"github.com/lib/pq"
)

var (
	ErrUserExists   = errors.New("USER_EXISTS")
	ErrUserNotFound = errors.New("USER_NOT_FOUND")
)

// uniqueViolation is the postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// UserStore persists registered accounts.
type UserStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewUserStore(db *sql.DB, log logger.Logger) *UserStore {
	return &UserStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "user-store"}),
	}
}

// Create inserts a new account and fills in the generated ID and creation
// time. Email and username collisions surface as ErrUserExists.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, username, hashed_password, full_name, is_active, is_verified)
		VALUES ($1, $2, $3, $4, TRUE, FALSE)
		RETURNING id, created_at`,
		user.Email,
		user.Username,
		user.HashedPassword,
		user.FullName,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrUserExists, pqErr.Constraint)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.IsActive = true
	s.logger.Info("user created", map[string]interface{}{
		"userId":   user.ID,
		"username": user.Username,
	})
	return nil
}

// GetByLogin looks an account up by username first, then by email, so the
// login form accepts either.
func (s *UserStore) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	user, err := s.getWhere(ctx, "username = $1", login)
	if errors.Is(err, ErrUserNotFound) {
		return s.getWhere(ctx, "email = $1", login)
	}
	return user, err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getWhere(ctx, "email = $1", email)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getWhere(ctx, "username = $1", username)
}

func (s *UserStore) getWhere(ctx context.Context, clause string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, hashed_password, full_name, is_active, is_verified, created_at
		FROM users WHERE `+clause,
		arg,
	).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.HashedPassword,
		&user.FullName,
		&user.IsActive,
		&user.IsVerified,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// UpdatePassword replaces the stored hash for an account.
func (s *UserStore) UpdatePassword(ctx context.Context, userID int64, hashedPassword string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET hashed_password = $1 WHERE id = $2`,
		hashedPassword, userID,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("password updated", map[string]interface{}{"userId": userID})
	return nil
}
