// internal/api/predict/models.go
package predict

// SingleResponse is the reply to POST /predict/single.
type SingleResponse struct {
	ID          string  `json:"id"`
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
}

// RowResult reports the outcome of one CSV row. Rows are numbered from 1,
// excluding the header.
type RowResult struct {
	Row         int      `json:"row"`
	ID          string   `json:"id,omitempty"`
	Prediction  *int     `json:"prediction,omitempty"`
	Probability *float64 `json:"probability,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// BatchResponse is the reply to POST /predict/batch.
type BatchResponse struct {
	BatchID   string      `json:"batch_id"`
	Count     int         `json:"count"`
	Succeeded int         `json:"succeeded"`
	Results   []RowResult `json:"results"`
}
