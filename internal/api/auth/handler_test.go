// internal/api/auth/handler_test.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	commonauth "loan-approval-api/internal/common/auth"
	"loan-approval-api/internal/common/config"
	apperrors "loan-approval-api/internal/common/errors"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/models"
	"loan-approval-api/internal/notify"
	"loan-approval-api/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// Test Helper Functions
// ==========================

var userColumns = []string{"id", "email", "username", "hashed_password", "full_name", "is_active", "is_verified", "created_at"}

type testEnv struct {
	handler *Handler
	service *Service
	mock    sqlmock.Sqlmock
	redis   *miniredis.Miniredis
	tokens  *commonauth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.NewTestLogger(t)
	tokens := commonauth.NewTokenManager("test-secret", 60, "loan-approval-api")
	mailer := notify.NewMailer(nil, config.SESConfig{Enabled: false}, log)

	service := NewService(
		store.NewUserStore(db, log),
		tokens,
		store.NewResetTokenStore(rdb, 15*time.Minute, log),
		mailer,
		bcrypt.MinCost,
		log,
	)
	handler := NewHandler(service, apperrors.NewErrorHandler(logger.NewNoOpLogger()), log)

	return &testEnv{handler: handler, service: service, mock: mock, redis: mr, tokens: tokens}
}

func (e *testEnv) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/register", e.handler.Register)
	r.POST("/login", e.handler.Login)
	r.POST("/auth/forgot-password", e.handler.ForgotPassword)
	r.POST("/auth/reset-password", e.handler.ResetPassword)
	return r
}

func postJSON(r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func hashed(t *testing.T, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

// ==========================
// Registration Tests
// ==========================

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("jane@example.com", "jane", sqlmock.AnyArg(), "Jane Doe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), time.Now()))

	w := postJSON(env.router(), "/register", map[string]interface{}{
		"email":     "jane@example.com",
		"username":  "jane",
		"password":  "s3cret-pass",
		"full_name": "Jane Doe",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "jane", resp.User.Username)

	// The token is immediately verifiable.
	subject, err := env.tokens.Verify(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jane", subject)
}

func TestRegister_DuplicateUser(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_username_key"})

	w := postJSON(env.router(), "/register", map[string]interface{}{
		"email":    "jane@example.com",
		"username": "jane",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "USER_EXISTS")
}

func TestRegister_WeakPasswordRejected(t *testing.T) {
	env := newTestEnv(t)

	w := postJSON(env.router(), "/register", map[string]interface{}{
		"email":    "jane@example.com",
		"username": "jane",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")
}

func TestRegister_BadEmailRejected(t *testing.T) {
	env := newTestEnv(t)

	w := postJSON(env.router(), "/register", map[string]interface{}{
		"email":    "not-an-email",
		"username": "jane",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

// ==========================
// Login Tests
// ==========================

func TestLogin_WithUsername(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).
		WithArgs("jane").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "jane@example.com", "jane", hashed(t, "s3cret-pass"), "Jane Doe", true, false, time.Now()))

	w := postJSON(env.router(), "/login", map[string]interface{}{
		"username": "jane",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "access_token")
}

func TestLogin_WithEmail(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))
	env.mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "jane@example.com", "jane", hashed(t, "s3cret-pass"), "Jane Doe", true, false, time.Now()))

	w := postJSON(env.router(), "/login", map[string]interface{}{
		"username": "jane@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "jane@example.com", "jane", hashed(t, "s3cret-pass"), "Jane Doe", true, false, time.Now()))

	w := postJSON(env.router(), "/login", map[string]interface{}{
		"username": "jane",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
}

func TestLogin_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))
	env.mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	w := postJSON(env.router(), "/login", map[string]interface{}{
		"username": "ghost",
		"password": "whatever1",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_InactiveUser(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`SELECT .+ FROM users WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "jane@example.com", "jane", hashed(t, "s3cret-pass"), "Jane Doe", false, false, time.Now()))

	w := postJSON(env.router(), "/login", map[string]interface{}{
		"username": "jane",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// ==========================
// Password Reset Tests
// ==========================

func TestForgotPassword_KnownEmail(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "jane@example.com", "jane", "hash", "Jane Doe", true, false, time.Now()))

	w := postJSON(env.router(), "/auth/forgot-password", map[string]interface{}{
		"email": "jane@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// A token landed in redis.
	keys := env.redis.Keys()
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "reset-token:")
}

func TestForgotPassword_UnknownEmailSameResponse(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	w := postJSON(env.router(), "/auth/forgot-password", map[string]interface{}{
		"email": "ghost@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.redis.Keys())
}

func TestResetPassword_FullFlow(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.service.resetTokens.Issue(context.Background(), "jane@example.com")
	require.NoError(t, err)

	env.mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(7), "jane@example.com", "jane", "old-hash", "Jane Doe", true, false, time.Now()))
	env.mock.ExpectExec(`UPDATE users SET hashed_password`).
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := postJSON(env.router(), "/auth/reset-password", map[string]interface{}{
		"token":        token,
		"new_password": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, env.mock.ExpectationsWereMet())

	// The token is consumed.
	w = postJSON(env.router(), "/auth/reset-password", map[string]interface{}{
		"token":        token,
		"new_password": "brand-new-pass",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_INVALID")
}

func TestResetPassword_BadToken(t *testing.T) {
	env := newTestEnv(t)

	w := postJSON(env.router(), "/auth/reset-password", map[string]interface{}{
		"token":        "bogus",
		"new_password": "brand-new-pass",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// ==========================
// Change Password Tests
// ==========================

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user := &models.User{ID: 7, Username: "jane", HashedPassword: hashed(t, "old-pass-123"), IsActive: true}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/change-password", func(c *gin.Context) { env.handler.ChangePassword(c, user) })

	env.mock.ExpectExec(`UPDATE users SET hashed_password`).
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := postJSON(r, "/auth/change-password", map[string]interface{}{
		"old_password": "old-pass-123",
		"new_password": "new-pass-456",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Wrong current password is rejected without touching the database.
	w = postJSON(r, "/auth/change-password", map[string]interface{}{
		"old_password": "not-the-password",
		"new_password": "new-pass-456",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
