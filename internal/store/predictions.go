// internal/store/predictions.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/models"

	"github.com/google/uuid"
)

// PredictionStore persists prediction records per user.
type PredictionStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPredictionStore(db *sql.DB, log logger.Logger) *PredictionStore {
	return &PredictionStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "prediction-store"}),
	}
}

// Insert saves one prediction record, generating its ID and timestamp.
func (s *PredictionStore) Insert(ctx context.Context, p *models.Prediction) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	appJSON, err := json.Marshal(p.Application)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO predictions (id, user_id, batch_id, application, prediction_type, prediction, probability, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID,
		p.UserID,
		nullString(p.BatchID),
		appJSON,
		p.PredictionType,
		p.Prediction,
		p.Probability,
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// InsertBatch saves all rows of one CSV batch in a single transaction so a
// partial batch never lands in history.
func (s *PredictionStore) InsertBatch(ctx context.Context, records []*models.Prediction) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO predictions (id, user_id, batch_id, application, prediction_type, prediction, probability, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range records {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}

		appJSON, err := json.Marshal(p.Application)
		if err != nil {
			return fmt.Errorf("marshal application: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			p.ID, p.UserID, nullString(p.BatchID), appJSON,
			p.PredictionType, p.Prediction, p.Probability, p.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert batch row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch insert: %w", err)
	}

	s.logger.Info("batch predictions saved", map[string]interface{}{
		"batchId": records[0].BatchID,
		"rows":    len(records),
	})
	return nil
}

// History returns a user's predictions, newest first.
func (s *PredictionStore) History(ctx context.Context, userID int64, limit, offset int) ([]*models.Prediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, batch_id, application, prediction_type, prediction, probability, created_at
		FROM predictions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []*models.Prediction
	for rows.Next() {
		var (
			p       models.Prediction
			batchID sql.NullString
			appJSON []byte
		)
		if err := rows.Scan(
			&p.ID, &p.UserID, &batchID, &appJSON,
			&p.PredictionType, &p.Prediction, &p.Probability, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		p.BatchID = batchID.String
		if err := json.Unmarshal(appJSON, &p.Application); err != nil {
			return nil, fmt.Errorf("decode application: %w", err)
		}
		records = append(records, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}

// CountByUser returns the total number of stored predictions for a user.
func (s *PredictionStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM predictions WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count predictions: %w", err)
	}
	return count, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
