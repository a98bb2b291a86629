package models

import "time"

// Prediction types persisted alongside each record.
const (
	PredictionTypeSingle = "single"
	PredictionTypeBatch  = "batch"
)

// Prediction is a persisted prediction record: the applicant inputs plus the
// classifier decision and probability.
type Prediction struct {
	ID             string          `json:"id"`
	UserID         int64           `json:"user_id"`
	BatchID        string          `json:"batch_id,omitempty"`
	Application    LoanApplication `json:"application"`
	PredictionType string          `json:"prediction_type"`
	Prediction     int             `json:"prediction"`
	Probability    float64         `json:"probability"`
	CreatedAt      time.Time       `json:"created_at"`
}
