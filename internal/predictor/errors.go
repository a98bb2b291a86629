package predictor

import (
	"errors"
	"fmt"
)

var (
	// ErrModelUnavailable is returned by every prediction attempt when the
	// classifier or scaler artifact never loaded.
	ErrModelUnavailable = errors.New("model or scaler not loaded")

	// ErrInferenceFailed wraps unexpected failures inside scaling/prediction.
	ErrInferenceFailed = errors.New("prediction error")
)

// EncodingError reports a categorical input that is outside the trained
// vocabulary even after normalization. It carries everything the caller
// needs to correct the input.
type EncodingError struct {
	Column   string
	Value    string
	Accepted []string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("invalid value for %s: '%s'. Expected one of: %v", e.Column, e.Value, e.Accepted)
}
