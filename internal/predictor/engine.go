package predictor

import (
	"fmt"

	"loan-approval-api/internal/models"
)

// Result is the classifier output for one application.
type Result struct {
	Decision    int     `json:"prediction"`
	Probability float64 `json:"probability"`
}

// Predict scales an assembled feature vector and runs the classifier.
// Fails fast with ErrModelUnavailable when the artifacts never loaded;
// any unexpected failure inside scaling/prediction is wrapped in
// ErrInferenceFailed and never retried, since inference is deterministic.
func (s *Store) Predict(vector []float64) (*Result, error) {
	if !s.usable {
		return nil, fmt.Errorf("%w: check that model.json and scaler.json exist", ErrModelUnavailable)
	}

	scaled, err := s.scaler.Transform(vector)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	decision, err := s.classifier.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	proba, err := s.classifier.PredictProba(scaled)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}
	if len(proba) == 0 {
		return nil, fmt.Errorf("%w: empty probability distribution", ErrInferenceFailed)
	}

	// Single-entry distribution is a degenerate single-class model;
	// otherwise take the mass on the approved class, position [1].
	probability := proba[0]
	if len(proba) > 1 {
		probability = proba[1]
	}

	return &Result{Decision: decision, Probability: probability}, nil
}

// PredictApplication runs the full per-record pipeline: assemble, scale,
// predict. The availability check comes first so callers see a 503 rather
// than an encoding error when the artifacts never loaded.
func (s *Store) PredictApplication(app *models.LoanApplication) (*Result, error) {
	if !s.usable {
		return nil, fmt.Errorf("%w: check that model.json and scaler.json exist", ErrModelUnavailable)
	}
	vector, err := s.Assemble(app)
	if err != nil {
		return nil, err
	}
	return s.Predict(vector)
}
