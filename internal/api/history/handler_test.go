// internal/api/history/handler_test.go
package history

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "loan-approval-api/internal/common/errors"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/models"
	"loan-approval-api/internal/search"
	"loan-approval-api/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var predictionColumns = []string{
	"id", "user_id", "batch_id", "application", "prediction_type", "prediction", "probability", "created_at",
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.NewTestLogger(t)
	service := NewService(
		store.NewPredictionStore(db, log),
		store.NewHistoryCache(rdb, time.Minute, log),
		search.NewPredictionIndex(nil, "predictions", log),
		log,
	)
	return NewHandler(service, apperrors.NewErrorHandler(logger.NewNoOpLogger()), log), mock
}

func testRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	user := &models.User{ID: 7, Username: "jane", IsActive: true}

	r := gin.New()
	r.GET("/predictions/history", func(c *gin.Context) { h.History(c, user) })
	r.GET("/predictions/search", func(c *gin.Context) { h.Search(c, user) })
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func appJSON(t *testing.T) []byte {
	data, err := json.Marshal(models.LoanApplication{Name: "Jane Doe", CreditScore: 720})
	require.NoError(t, err)
	return data
}

func TestHistory_ReturnsPage(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM predictions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT .+ FROM predictions WHERE user_id = \$1`).
		WithArgs(int64(7), 20, 0).
		WillReturnRows(sqlmock.NewRows(predictionColumns).
			AddRow("pred-2", int64(7), nil, appJSON(t), "single", 1, 0.85, time.Now()).
			AddRow("pred-1", int64(7), "batch-1", appJSON(t), "batch", 0, 0.25, time.Now()))

	w := get(testRouter(h), "/predictions/history")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var page Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 20, page.Limit)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "pred-2", page.Records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_SecondCallServedFromCache(t *testing.T) {
	h, mock := newTestHandler(t)

	// The count runs on both calls; the row query only on the first.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM predictions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT .+ FROM predictions WHERE user_id = \$1`).
		WillReturnRows(sqlmock.NewRows(predictionColumns).
			AddRow("pred-1", int64(7), nil, appJSON(t), "single", 1, 0.85, time.Now()))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM predictions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	r := testRouter(h)
	require.Equal(t, http.StatusOK, get(r, "/predictions/history").Code)
	require.Equal(t, http.StatusOK, get(r, "/predictions/history").Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_LimitClamped(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM predictions`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT .+ FROM predictions WHERE user_id = \$1`).
		WithArgs(int64(7), 100, 0).
		WillReturnRows(sqlmock.NewRows(predictionColumns))

	w := get(testRouter(h), "/predictions/history?limit=5000")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistory_BadLimit(t *testing.T) {
	h, _ := newTestHandler(t)

	w := get(testRouter(h), "/predictions/history?limit=abc")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")
}

func TestSearch_UnavailableWithoutElasticsearch(t *testing.T) {
	h, _ := newTestHandler(t)

	w := get(testRouter(h), "/predictions/search?q=Home")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "SEARCH_UNAVAILABLE")
}

func TestSearch_BadDecision(t *testing.T) {
	h, _ := newTestHandler(t)

	w := get(testRouter(h), "/predictions/search?decision=2")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
