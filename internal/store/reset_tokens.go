// internal/store/reset_tokens.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"loan-approval-api/internal/common/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrResetTokenInvalid = errors.New("TOKEN_INVALID")

const resetTokenPrefix = "reset-token:"

// ResetTokenStore keeps password-reset tokens in Redis. The TTL is the
// whole expiry mechanism: an expired token is simply gone.
type ResetTokenStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewResetTokenStore(rdb *redis.Client, ttl time.Duration, log logger.Logger) *ResetTokenStore {
	return &ResetTokenStore{
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "reset-token-store"}),
	}
}

// Issue creates an opaque single-use token bound to an email address.
func (s *ResetTokenStore) Issue(ctx context.Context, email string) (string, error) {
	token := uuid.New().String()
	if err := s.rdb.Set(ctx, resetTokenPrefix+token, email, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	s.logger.Info("reset token issued", map[string]interface{}{
		"email":     email,
		"expiresIn": s.ttl.String(),
	})
	return token, nil
}

// Redeem consumes a token and returns the email it was issued for. The
// delete is atomic with the read so a token cannot be redeemed twice.
func (s *ResetTokenStore) Redeem(ctx context.Context, token string) (string, error) {
	email, err := s.rdb.GetDel(ctx, resetTokenPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrResetTokenInvalid
	}
	if err != nil {
		return "", fmt.Errorf("redeem reset token: %w", err)
	}
	return email, nil
}
