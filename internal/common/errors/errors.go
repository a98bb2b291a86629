// Package errors provides standardized error handling for the loan approval API.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Prediction pipeline
	ErrCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeEncodingFailed   ErrorCode = "ENCODING_FAILED"
	ErrCodeInferenceFailed  ErrorCode = "INFERENCE_FAILED"

	// Request handling
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeBatchParseFailed ErrorCode = "BATCH_PARSE_FAILED"

	// Authentication / accounts
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserExists         ErrorCode = "USER_EXISTS"
	ErrCodeTokenInvalid       ErrorCode = "TOKEN_INVALID"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"

	// Infrastructure
	ErrCodeDatabaseQueryFailed  ErrorCode = "DATABASE_QUERY_FAILED"
	ErrCodeDatabaseInsertFailed ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeSearchUnavailable    ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeSearchQueryFailed    ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeNotificationFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewModelUnavailableError signals that the classifier or scaler artifact
// never loaded; the prediction capability stays down until restart.
func NewModelUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "Model or scaler not loaded",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEncodingError reports a categorical value outside the trained
// vocabulary, carrying the offending column and the accepted values.
func NewEncodingError(column, value string, accepted []string) *StandardError {
	return &StandardError{
		Code:    ErrCodeEncodingFailed,
		Message: fmt.Sprintf("Invalid value for %s", column),
		Details: fmt.Sprintf("'%s' is not in the trained vocabulary", value),
		Metadata: map[string]interface{}{
			"column":   column,
			"value":    value,
			"accepted": accepted,
		},
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInferenceError wraps an unexpected failure inside scaling/prediction.
func NewInferenceError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInferenceFailed,
		Message:   "Prediction error",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError reports a request payload that failed schema validation.
func NewValidationError(details string, fieldErrors interface{}) *StandardError {
	e := &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
	if fieldErrors != nil {
		e.Metadata = map[string]interface{}{"errors": fieldErrors}
	}
	return e
}

// NewBatchParseError reports a CSV upload that could not be processed at
// all, as opposed to individual row failures.
func NewBatchParseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBatchParseFailed,
		Message:   "Batch CSV could not be parsed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCredentialsError is returned on bad username/password pairs.
func NewInvalidCredentialsError() *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCredentials,
		Message:   "Invalid credentials",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserExistsError is returned when registration hits a unique constraint.
func NewUserExistsError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserExists,
		Message:   "Username or email already exists",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTokenInvalidError covers expired, malformed or consumed tokens.
func NewTokenInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenInvalid,
		Message:   "Token is invalid or expired",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError is returned when a request carries no usable identity.
func NewUnauthorizedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Unauthorized",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseQueryError wraps a failed read.
func NewDatabaseQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseQueryFailed,
		Message:   "Database query failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseInsertError wraps a failed write.
func NewDatabaseInsertError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseInsertFailed,
		Message:   "Database insert failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchUnavailableError is returned when history search is requested but
// Elasticsearch is not configured or unreachable.
func NewSearchUnavailableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchUnavailable,
		Message:   "History search is unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryError wraps a failed Elasticsearch query.
func NewSearchQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "History search failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationError wraps a failed outbound email.
func NewNotificationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   "Failed to send notification",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
