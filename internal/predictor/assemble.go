package predictor

import "loan-approval-api/internal/models"

// Assemble normalizes and encodes the categorical fields of an application
// and lays out all eleven values in the fixed training column order. Pure
// function over the loaded artifacts: no I/O, safe for concurrent use.
func (s *Store) Assemble(app *models.LoanApplication) ([]float64, error) {
	encoded := make(map[string]float64, len(FeatureOrder))

	for _, col := range CategoricalColumns {
		enc, ok := s.encoders[col]
		if !ok {
			return nil, &EncodingError{Column: col, Value: app.Categorical(col)}
		}

		normalized := s.Normalize(col, app.Categorical(col))
		code, ok := enc.Encode(normalized)
		if !ok {
			return nil, &EncodingError{
				Column:   col,
				Value:    app.Categorical(col),
				Accepted: enc.Classes(),
			}
		}
		encoded[col] = float64(code)
	}

	vector := make([]float64, len(FeatureOrder))
	for i, col := range FeatureOrder {
		if v, ok := encoded[col]; ok {
			vector[i] = v
		} else {
			vector[i] = app.Numeric(col)
		}
	}
	return vector, nil
}
