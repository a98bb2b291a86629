// internal/search/predictions.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrSearchUnavailable = errors.New("SEARCH_UNAVAILABLE")
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
)

// Params narrows a prediction search. Zero values mean "no filter".
type Params struct {
	Keywords       string
	Decision       *int
	MinProbability float64
	MaxProbability float64
	From           int
	Size           int
}

// Result is one page of search hits.
type Result struct {
	Records   []*models.Prediction
	TotalHits int64
}

// PredictionIndex mirrors saved predictions into Elasticsearch for search.
// The index is optional infrastructure: a nil client disables it and every
// call returns ErrSearchUnavailable.
type PredictionIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewPredictionIndex(client *elasticsearch.Client, index string, log logger.Logger) *PredictionIndex {
	return &PredictionIndex{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "prediction-index"}),
	}
}

// Enabled reports whether a search backend is configured.
func (p *PredictionIndex) Enabled() bool {
	return p != nil && p.client != nil
}

// Index writes one prediction document. Callers treat failures as
// non-fatal; the postgres record is the source of truth.
func (p *PredictionIndex) Index(ctx context.Context, record *models.Prediction) error {
	if !p.Enabled() {
		return ErrSearchUnavailable
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal document: %v", ErrSearchQueryFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      p.index,
		DocumentID: record.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: index returned %s", ErrSearchQueryFailed, res.Status())
	}

	p.logger.Debug("prediction indexed", map[string]interface{}{
		"predictionId": record.ID,
		"index":        p.index,
	})
	return nil
}

// Search runs a filtered query over one user's predictions, newest first.
func (p *PredictionIndex) Search(ctx context.Context, userID int64, params Params) (*Result, error) {
	if !p.Enabled() {
		return nil, ErrSearchUnavailable
	}

	queryBody := buildSearchQuery(userID, params)
	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal query: %v", ErrSearchQueryFailed, err)
	}

	size := params.Size
	if size <= 0 {
		size = 20
	}
	from := params.From

	req := esapi.SearchRequest{
		Index: []string{p.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}
	res, err := req.Do(ctx, p.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search returned %s", ErrSearchQueryFailed, res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Prediction `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchQueryFailed, err)
	}

	result := &Result{TotalHits: parsed.Hits.Total.Value}
	for i := range parsed.Hits.Hits {
		rec := parsed.Hits.Hits[i].Source
		result.Records = append(result.Records, &rec)
	}
	return result, nil
}

// buildSearchQuery assembles the bool query: the user scope is always a
// filter, everything else is added only when set.
func buildSearchQuery(userID int64, params Params) map[string]interface{} {
	mustClauses := []interface{}{}
	filterClauses := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{"user_id": userID},
		},
	}

	if params.Keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  params.Keywords,
				"fields": []string{"application.name^2", "application.loan_purpose", "application.grade_subgrade"},
				"type":   "best_fields",
			},
		})
	}

	if params.Decision != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"prediction": *params.Decision},
		})
	}

	if params.MinProbability > 0 || params.MaxProbability > 0 {
		bounds := map[string]interface{}{}
		if params.MinProbability > 0 {
			bounds["gte"] = params.MinProbability
		}
		if params.MaxProbability > 0 {
			bounds["lte"] = params.MaxProbability
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"probability": bounds},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
}
