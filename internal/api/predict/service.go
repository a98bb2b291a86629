// internal/api/predict/service.go
package predict

import (
	"context"
	"errors"
	"strconv"
	"time"

	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/common/metrics"
	"loan-approval-api/internal/common/observability"
	"loan-approval-api/internal/models"
	"loan-approval-api/internal/predictor"
	"loan-approval-api/internal/search"
	"loan-approval-api/internal/store"

	"github.com/google/uuid"
)

// Service runs predictions and persists the results.
type Service struct {
	artifacts   *predictor.Store
	predictions *store.PredictionStore
	index       *search.PredictionIndex
	cache       *store.HistoryCache
	obs         *observability.Observability
	logger      logger.Logger
}

func NewService(
	artifacts *predictor.Store,
	predictions *store.PredictionStore,
	index *search.PredictionIndex,
	cache *store.HistoryCache,
	obs *observability.Observability,
	log logger.Logger,
) *Service {
	return &Service{
		artifacts:   artifacts,
		predictions: predictions,
		index:       index,
		cache:       cache,
		obs:         obs,
		logger:      log.WithFields(map[string]interface{}{"component": "predict-service"}),
	}
}

// Single runs one application through the pipeline and records the result.
func (s *Service) Single(ctx context.Context, userID int64, app *models.LoanApplication) (*models.Prediction, error) {
	record, err := s.predict(ctx, userID, app, models.PredictionTypeSingle, "")
	if err != nil {
		return nil, err
	}

	if err := s.predictions.Insert(ctx, record); err != nil {
		return nil, err
	}
	s.afterSave(ctx, record)
	return record, nil
}

// Batch runs every parsed CSV row, persists the successful ones under a
// shared batch id and reports per-row outcomes. An unavailable model aborts
// the whole batch; anything row-scoped only fails its row.
func (s *Service) Batch(ctx context.Context, userID int64, rows []Row) (*BatchResponse, error) {
	batchID := uuid.New().String()
	resp := &BatchResponse{BatchID: batchID, Count: len(rows)}

	var saved []*models.Prediction
	for _, row := range rows {
		result := RowResult{Row: row.Line}

		switch {
		case row.Err != nil:
			result.Error = row.Err.Error()
		default:
			if vr := validateApplication(row.App); !vr.Valid {
				result.Error = vr.Errors[0].Field + ": " + vr.Errors[0].Message
				break
			}

			record, err := s.predict(ctx, userID, row.App, models.PredictionTypeBatch, batchID)
			if errors.Is(err, predictor.ErrModelUnavailable) {
				return nil, err
			}
			if err != nil {
				result.Error = err.Error()
				break
			}

			result.ID = record.ID
			result.Prediction = &record.Prediction
			result.Probability = &record.Probability
			saved = append(saved, record)
		}

		resp.Results = append(resp.Results, result)
	}

	if len(saved) > 0 {
		if err := s.predictions.InsertBatch(ctx, saved); err != nil {
			return nil, err
		}
		for _, record := range saved {
			s.indexRecord(ctx, record)
		}
		s.cache.Invalidate(ctx, userID)
	}

	resp.Succeeded = len(saved)
	metrics.BatchRows.Observe(float64(len(rows)))
	return resp, nil
}

func (s *Service) predict(ctx context.Context, userID int64, app *models.LoanApplication, predictionType, batchID string) (*models.Prediction, error) {
	start := time.Now()
	result, err := s.artifacts.PredictApplication(app)
	if err != nil {
		var encErr *predictor.EncodingError
		if errors.As(err, &encErr) {
			metrics.EncodingFailures.WithLabelValues(encErr.Column).Inc()
		}
		if s.obs != nil {
			s.obs.RecordPrediction(ctx, "error")
		}
		return nil, err
	}
	metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	metrics.PredictionsTotal.WithLabelValues(strconv.Itoa(result.Decision), predictionType).Inc()
	if s.obs != nil {
		s.obs.RecordPrediction(ctx, "ok")
		s.obs.RecordPredictionDuration(ctx, time.Since(start), "ok")
	}

	return &models.Prediction{
		ID:             uuid.New().String(),
		UserID:         userID,
		BatchID:        batchID,
		Application:    *app,
		PredictionType: predictionType,
		Prediction:     result.Decision,
		Probability:    result.Probability,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (s *Service) afterSave(ctx context.Context, record *models.Prediction) {
	s.indexRecord(ctx, record)
	s.cache.Invalidate(ctx, record.UserID)
}

// indexRecord mirrors a saved prediction into the search index. Best
// effort: postgres already holds the record.
func (s *Service) indexRecord(ctx context.Context, record *models.Prediction) {
	if !s.index.Enabled() {
		return
	}
	if err := s.index.Index(ctx, record); err != nil {
		s.logger.Warn("search indexing failed", map[string]interface{}{
			"predictionId": record.ID,
			"error":        err.Error(),
		})
	}
}
