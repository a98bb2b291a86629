package predictor

import "fmt"

// StandardScaler applies the standardization transform fitted at training
// time: (x - mean) / scale per column. The statistics are never recomputed
// at inference time.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Transform returns a scaled copy of the feature vector.
func (s *StandardScaler) Transform(vector []float64) ([]float64, error) {
	if len(vector) != len(s.Mean) || len(vector) != len(s.Scale) {
		return nil, fmt.Errorf("feature vector has %d columns, scaler was fitted on %d", len(vector), len(s.Mean))
	}

	out := make([]float64, len(vector))
	for i, v := range vector {
		scale := s.Scale[i]
		if scale == 0 {
			// Zero-variance column, sklearn leaves these centered only.
			scale = 1
		}
		out[i] = (v - s.Mean[i]) / scale
	}
	return out, nil
}
