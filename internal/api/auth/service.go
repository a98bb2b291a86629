// internal/api/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"

	commonauth "loan-approval-api/internal/common/auth"
	apperrors "loan-approval-api/internal/common/errors"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/models"
	"loan-approval-api/internal/notify"
	"loan-approval-api/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// Service implements account registration, login and the password flows.
type Service struct {
	users       *store.UserStore
	tokens      *commonauth.TokenManager
	resetTokens *store.ResetTokenStore
	mailer      *notify.Mailer
	bcryptCost  int
	logger      logger.Logger
}

func NewService(
	users *store.UserStore,
	tokens *commonauth.TokenManager,
	resetTokens *store.ResetTokenStore,
	mailer *notify.Mailer,
	bcryptCost int,
	log logger.Logger,
) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:       users,
		tokens:      tokens,
		resetTokens: resetTokens,
		mailer:      mailer,
		bcryptCost:  bcryptCost,
		logger:      log.WithFields(map[string]interface{}{"component": "auth-service"}),
	}
}

// Register creates an account and returns a token response so the client is
// signed in immediately.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:          req.Email,
		Username:       req.Username,
		HashedPassword: string(hash),
		FullName:       req.FullName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, apperrors.NewUserExistsError("email or username already registered")
		}
		return nil, apperrors.NewDatabaseInsertError(err.Error())
	}

	return s.issueToken(user)
}

// Login authenticates by username or email.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	user, err := s.users.GetByLogin(ctx, req.Username)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, apperrors.NewInvalidCredentialsError()
	}
	if err != nil {
		return nil, apperrors.NewDatabaseQueryError(err.Error())
	}

	if !user.IsActive {
		return nil, apperrors.NewInvalidCredentialsError()
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		return nil, apperrors.NewInvalidCredentialsError()
	}

	return s.issueToken(user)
}

// ForgotPassword issues a reset token for a known email. Unknown emails are
// ignored without error so the endpoint does not leak which accounts exist.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrUserNotFound) {
		s.logger.Info("reset requested for unknown email", map[string]interface{}{"email": email})
		return nil
	}
	if err != nil {
		return apperrors.NewDatabaseQueryError(err.Error())
	}

	token, err := s.resetTokens.Issue(ctx, user.Email)
	if err != nil {
		return apperrors.NewDatabaseInsertError(err.Error())
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		// The token is already in place; an email failure should not reveal
		// anything to the caller either.
		s.logger.Error("reset email failed", map[string]interface{}{
			"email": user.Email,
			"error": err.Error(),
		})
	}
	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error {
	email, err := s.resetTokens.Redeem(ctx, req.Token)
	if errors.Is(err, store.ErrResetTokenInvalid) {
		return apperrors.NewTokenInvalidError("reset token is invalid or expired")
	}
	if err != nil {
		return apperrors.NewDatabaseQueryError(err.Error())
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return apperrors.NewTokenInvalidError("account no longer exists")
	}

	return s.setPassword(ctx, user.ID, req.NewPassword)
}

// ChangePassword verifies the current password before replacing it.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, req *models.ChangePasswordRequest) error {
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.OldPassword)) != nil {
		return apperrors.NewInvalidCredentialsError()
	}
	return s.setPassword(ctx, user.ID, req.NewPassword)
}

func (s *Service) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperrors.NewDatabaseQueryError(err.Error())
	}
	return nil
}

func (s *Service) issueToken(user *models.User) (*models.TokenResponse, error) {
	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	}, nil
}
