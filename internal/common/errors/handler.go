// internal/common/errors/handler.go
package errors

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"loan-approval-api/internal/predictor"
)

// ErrorHandler converts application errors into HTTP responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Respond writes a structured error response to the client. Every failure
// path in the service funnels through here so the wire format is uniform.
func (h *ErrorHandler) Respond(c *gin.Context, err error) {
	stdErr := h.normalizeError(err)
	status := statusForCode(stdErr.Code)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"path":    c.FullPath(),
			"code":    string(stdErr.Code),
			"details": stdErr.Details,
		})
	}

	c.AbortWithStatusJSON(status, gin.H{"error": stdErr})
}

// normalizeError ensures we always have a StandardError.
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	var encErr *predictor.EncodingError
	if stderrors.As(err, &encErr) {
		return NewEncodingError(encErr.Column, encErr.Value, encErr.Accepted)
	}
	if stderrors.Is(err, predictor.ErrModelUnavailable) {
		return NewModelUnavailableError(err.Error())
	}
	if stderrors.Is(err, predictor.ErrInferenceFailed) {
		return NewInferenceError(err.Error())
	}

	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func statusForCode(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeBatchParseFailed:
		return http.StatusBadRequest
	case ErrCodeInvalidCredentials, ErrCodeTokenInvalid, ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeUserExists:
		return http.StatusConflict
	case ErrCodeEncodingFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeModelUnavailable, ErrCodeSearchUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeSearchQueryFailed, ErrCodeNotificationFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
