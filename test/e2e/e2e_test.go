// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loan-approval-api/internal/api"
	commonauth "loan-approval-api/internal/common/auth"
	"loan-approval-api/internal/common/config"
	"loan-approval-api/internal/common/database"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/common/observability"
	"loan-approval-api/internal/notify"
	"loan-approval-api/internal/predictor"
	"loan-approval-api/internal/search"
	"loan-approval-api/internal/store"
)

// Requires live PostgreSQL and Redis (see configs/config.yaml). Run with:
//
//	E2E_TESTS=1 go test ./test/e2e/...
//
// Elasticsearch is exercised only when elasticsearch.enabled is set.

const classifierJSON = `{
	"model_type": "random_forest",
	"classes": [0, 1],
	"n_features": 11,
	"trees": [
		{
			"feature": [2, -2, -2],
			"threshold": [650, -2, -2],
			"children_left": [1, -1, -1],
			"children_right": [2, -1, -1],
			"value": [[0, 0], [8, 2], [1, 9]]
		},
		{
			"feature": [2, -2, -2],
			"threshold": [650, -2, -2],
			"children_left": [1, -1, -1],
			"children_right": [2, -1, -1],
			"value": [[0, 0], [7, 3], [2, 8]]
		}
	]
}`

const scalerJSON = `{
	"mean": [0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0],
	"scale": [1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1]
}`

type env struct {
	server *httptest.Server
	cfg    *config.Config
	redis  *redis.Client
}

func setup(t *testing.T) *env {
	t.Helper()
	if os.Getenv("E2E_TESTS") != "1" {
		t.Skip("set E2E_TESTS=1 to run against live PostgreSQL and Redis")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	zapLog := logger.New("warn", "console")
	log := logger.NewZapAdapter(zapLog)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), []byte(classifierJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scaler.json"), []byte(scalerJSON), 0o644))
	artifacts := predictor.Load(dir, log)
	require.True(t, artifacts.Usable())

	ctx := context.Background()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })
	require.NoError(t, pg.Ping(ctx), "PostgreSQL must be reachable")
	require.NoError(t, store.EnsureSchema(ctx, pg.DB))

	redisClient, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	t.Cleanup(func() { redisClient.Close() })
	require.NoError(t, redisClient.Ping(ctx), "Redis must be reachable")

	var esClient *elasticsearch.Client
	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		require.NoError(t, err)
		require.NoError(t, es.Ping(), "Elasticsearch must be reachable when enabled")
		esClient = es.Client
	}

	deps := api.Deps{
		Config:      cfg,
		Logger:      log,
		Artifacts:   artifacts,
		Users:       store.NewUserStore(pg.DB, log),
		Predictions: store.NewPredictionStore(pg.DB, log),
		ResetTokens: store.NewResetTokenStore(
			redisClient.Client,
			time.Duration(cfg.Auth.ResetTokenTTL)*time.Minute,
			log,
		),
		Cache:  store.NewHistoryCache(redisClient.Client, time.Minute, log),
		Index:  search.NewPredictionIndex(esClient, cfg.Database.Elasticsearch.Index, log),
		Mailer: notify.NewMailer(nil, cfg.Notifications.SES, log),
		Tokens: commonauth.NewTokenManager(
			cfg.Auth.JWTSecret,
			cfg.Auth.TokenExpiryMinutes,
			cfg.App.Name,
		),
		Obs: observability.New("loan-approval-api-e2e"),
	}

	srv := httptest.NewServer(api.New(deps))
	t.Cleanup(srv.Close)

	zapLog.Info("e2e server ready", zap.String("url", srv.URL))
	return &env{server: srv, cfg: cfg, redis: redisClient.Client}
}

func (e *env) request(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

// errCode digs the standardized code out of the error envelope.
func errCode(body map[string]interface{}) string {
	env, ok := body["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := env["code"].(string)
	return code
}

func approvedApplication() map[string]interface{} {
	return map[string]interface{}{
		"name":                 "Jordan Miles",
		"annual_income":        85000,
		"debt_to_income_ratio": 0.3,
		"credit_score":         720,
		"loan_amount":          15000,
		"interest_rate":        11.5,
		"gender":               "Female",
		"marital_status":       "Married",
		"education_level":      "Master's",
		"employment_status":    "Employed",
		"loan_purpose":         "Home",
		"grade_subgrade":       "B2",
	}
}

func TestFullE2E(t *testing.T) {
	e := setup(t)

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	username := "e2e_" + suffix
	email := fmt.Sprintf("e2e_%s@example.com", suffix)
	password := "initial-password-1"

	var token string

	t.Run("Healthz", func(t *testing.T) {
		status, body := e.request(t, http.MethodGet, "/healthz", "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["model_loaded"])
	})

	t.Run("Register", func(t *testing.T) {
		status, body := e.request(t, http.MethodPost, "/register", "", map[string]interface{}{
			"username":  username,
			"email":     email,
			"password":  password,
			"full_name": "E2E Tester",
		})
		require.Equal(t, http.StatusCreated, status)
		require.NotEmpty(t, body["access_token"])
		assert.Equal(t, "bearer", body["token_type"])
	})

	t.Run("DuplicateRegisterRejected", func(t *testing.T) {
		status, body := e.request(t, http.MethodPost, "/register", "", map[string]interface{}{
			"username": username,
			"email":    email,
			"password": password,
		})
		require.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "USER_EXISTS", errCode(body))
	})

	t.Run("Login", func(t *testing.T) {
		status, body := e.request(t, http.MethodPost, "/login", "", map[string]interface{}{
			"username": username,
			"password": password,
		})
		require.Equal(t, http.StatusOK, status)
		token = body["access_token"].(string)
		require.NotEmpty(t, token)
	})

	t.Run("Me", func(t *testing.T) {
		status, body := e.request(t, http.MethodGet, "/auth/me", token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, username, body["username"])
		assert.Equal(t, email, body["email"])
	})

	t.Run("UnauthenticatedPredictRejected", func(t *testing.T) {
		status, _ := e.request(t, http.MethodPost, "/predict/single", "", approvedApplication())
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("PredictSingleApproved", func(t *testing.T) {
		status, body := e.request(t, http.MethodPost, "/predict/single", token, approvedApplication())
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(1), body["prediction"])
		assert.InDelta(t, 0.85, body["probability"].(float64), 1e-9)
	})

	t.Run("PredictSingleDenied", func(t *testing.T) {
		app := approvedApplication()
		app["credit_score"] = 540
		status, body := e.request(t, http.MethodPost, "/predict/single", token, app)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(0), body["prediction"])
	})

	t.Run("PredictUnknownCategoryRejected", func(t *testing.T) {
		app := approvedApplication()
		app["loan_purpose"] = "Yacht"
		status, body := e.request(t, http.MethodPost, "/predict/single", token, app)
		require.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, "ENCODING_FAILED", errCode(body))
	})

	t.Run("PredictBatch", func(t *testing.T) {
		csv := "name,annual_income,debt_to_income_ratio,credit_score,loan_amount,interest_rate," +
			"gender,marital_status,education_level,employment_status,loan_purpose,grade_subgrade\n" +
			"Alice,85000,0.3,720,15000,11.5,Female,Married,Master's,Employed,Home,B2\n" +
			"Bob,42000,0.6,540,9000,18.0,Male,Single,High School,Unemployed,Car,D1\n"

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("file", "applications.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csv))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req, err := http.NewRequest(http.MethodPost, e.server.URL+"/predict/batch", &buf)
		require.NoError(t, err)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := e.server.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(2), body["count"])
		assert.Equal(t, float64(2), body["succeeded"])
		assert.NotEmpty(t, body["batch_id"])
	})

	t.Run("History", func(t *testing.T) {
		status, body := e.request(t, http.MethodGet, "/predictions/history?limit=10", token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(4), body["total"])
		records := body["records"].([]interface{})
		require.Len(t, records, 4)
		first := records[0].(map[string]interface{})
		assert.NotEmpty(t, first["id"])
	})

	t.Run("Search", func(t *testing.T) {
		if !e.cfg.Database.Elasticsearch.Enabled {
			status, body := e.request(t, http.MethodGet, "/predictions/search?q=Alice", token, nil)
			require.Equal(t, http.StatusServiceUnavailable, status)
			assert.Equal(t, "SEARCH_UNAVAILABLE", errCode(body))
			return
		}

		// The index is refreshed asynchronously.
		time.Sleep(2 * time.Second)
		status, body := e.request(t, http.MethodGet, "/predictions/search?q=Alice", token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.GreaterOrEqual(t, body["total"].(float64), float64(1))
	})

	t.Run("ChangePassword", func(t *testing.T) {
		password2 := "rotated-password-2"
		status, _ := e.request(t, http.MethodPost, "/auth/change-password", token, map[string]interface{}{
			"old_password": password,
			"new_password": password2,
		})
		require.Equal(t, http.StatusOK, status)

		status, _ = e.request(t, http.MethodPost, "/login", "", map[string]interface{}{
			"username": username,
			"password": password,
		})
		require.Equal(t, http.StatusUnauthorized, status)

		status, body := e.request(t, http.MethodPost, "/login", "", map[string]interface{}{
			"username": username,
			"password": password2,
		})
		require.Equal(t, http.StatusOK, status)
		token = body["access_token"].(string)
		password = password2
	})

	t.Run("PasswordResetFlow", func(t *testing.T) {
		status, _ := e.request(t, http.MethodPost, "/auth/forgot-password", "", map[string]interface{}{
			"email": email,
		})
		require.Equal(t, http.StatusOK, status)

		resetToken := findResetToken(t, e.redis, email)
		require.NotEmpty(t, resetToken, "reset token should be stored in Redis")

		password3 := "reset-password-3"
		status, _ = e.request(t, http.MethodPost, "/auth/reset-password", "", map[string]interface{}{
			"token":        resetToken,
			"new_password": password3,
		})
		require.Equal(t, http.StatusOK, status)

		// Single use: a second redemption must fail.
		status, body := e.request(t, http.MethodPost, "/auth/reset-password", "", map[string]interface{}{
			"token":        resetToken,
			"new_password": "another-password-4",
		})
		require.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_INVALID", errCode(body))

		status, body = e.request(t, http.MethodPost, "/login", "", map[string]interface{}{
			"username": username,
			"password": password3,
		})
		require.Equal(t, http.StatusOK, status)
		token = body["access_token"].(string)
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := e.server.Client().Get(e.server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "http_request_duration_seconds")
	})
}

// findResetToken scans Redis for the reset token issued to email. The API
// never returns the token, it only leaves the mail (or, with mail disabled,
// a log line) behind, so the test recovers it from the store directly.
func findResetToken(t *testing.T, rdb *redis.Client, email string) string {
	t.Helper()
	ctx := context.Background()

	var cursor uint64
	for {
		keys, next, err := rdb.Scan(ctx, cursor, "reset-token:*", 100).Result()
		require.NoError(t, err)
		for _, key := range keys {
			value, err := rdb.Get(ctx, key).Result()
			if err == nil && value == email {
				return strings.TrimPrefix(key, "reset-token:")
			}
		}
		if next == 0 {
			return ""
		}
		cursor = next
	}
}
