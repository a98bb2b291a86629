// internal/api/history/service.go
package history

import (
	"context"
	"errors"

	apperrors "loan-approval-api/internal/common/errors"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/models"
	"loan-approval-api/internal/search"
	"loan-approval-api/internal/store"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service reads back a user's prediction history.
type Service struct {
	predictions *store.PredictionStore
	cache       *store.HistoryCache
	index       *search.PredictionIndex
	logger      logger.Logger
}

func NewService(
	predictions *store.PredictionStore,
	cache *store.HistoryCache,
	index *search.PredictionIndex,
	log logger.Logger,
) *Service {
	return &Service{
		predictions: predictions,
		cache:       cache,
		index:       index,
		logger:      log.WithFields(map[string]interface{}{"component": "history-service"}),
	}
}

// Page is one slice of history plus the user's total record count.
type Page struct {
	Records []*models.Prediction `json:"records"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// History returns a page of the user's predictions, newest first, served
// from the cache when a fresh copy exists.
func (s *Service) History(ctx context.Context, userID int64, limit, offset int) (*Page, error) {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	total, err := s.predictions.CountByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryError(err.Error())
	}

	if records, ok := s.cache.Get(ctx, userID, limit, offset); ok {
		return &Page{Records: records, Total: total, Limit: limit, Offset: offset}, nil
	}

	records, err := s.predictions.History(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryError(err.Error())
	}
	s.cache.Set(ctx, userID, limit, offset, records)

	return &Page{Records: records, Total: total, Limit: limit, Offset: offset}, nil
}

// Search queries the Elasticsearch mirror of the user's history.
func (s *Service) Search(ctx context.Context, userID int64, params search.Params) (*search.Result, error) {
	params.Size = clampLimit(params.Size)

	result, err := s.index.Search(ctx, userID, params)
	if errors.Is(err, search.ErrSearchUnavailable) {
		return nil, apperrors.NewSearchUnavailableError("search backend is not configured")
	}
	if err != nil {
		return nil, apperrors.NewSearchQueryError(err.Error())
	}
	return result, nil
}
