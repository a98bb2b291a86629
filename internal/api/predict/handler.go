// internal/api/predict/handler.go
package predict

import (
	"net/http"

	apperrors "loan-approval-api/internal/common/errors"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/common/validation"
	"loan-approval-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Handler exposes the prediction endpoints.
type Handler struct {
	service    *Service
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(service *Service, errHandler *apperrors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{
		service:    service,
		errHandler: errHandler,
		logger:     log.WithFields(map[string]interface{}{"component": "predict-handler"}),
	}
}

// Single handles POST /predict/single.
func (h *Handler) Single(c *gin.Context, user *models.User) {
	var raw map[string]interface{}
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		h.errHandler.Respond(c, apperrors.NewValidationError("request body is not valid JSON", nil))
		return
	}
	if result := validation.ValidateInput(raw, applicationSchema); !result.Valid {
		h.errHandler.Respond(c, apperrors.NewValidationError("application validation failed", result.Errors))
		return
	}

	var app models.LoanApplication
	if err := c.ShouldBindBodyWith(&app, binding.JSON); err != nil {
		h.errHandler.Respond(c, apperrors.NewValidationError(err.Error(), nil))
		return
	}

	record, err := h.service.Single(c.Request.Context(), user.ID, &app)
	if err != nil {
		h.errHandler.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, SingleResponse{
		ID:          record.ID,
		Prediction:  record.Prediction,
		Probability: record.Probability,
	})
}

// Batch handles POST /predict/batch: a multipart upload with a "file" part
// containing the CSV.
func (h *Handler) Batch(c *gin.Context, user *models.User) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		h.errHandler.Respond(c, apperrors.NewBatchParseError("upload must include a CSV file part named 'file'"))
		return
	}
	defer file.Close()

	rows, err := ParseApplications(file)
	if err != nil {
		h.errHandler.Respond(c, apperrors.NewBatchParseError(err.Error()))
		return
	}
	if len(rows) == 0 {
		h.errHandler.Respond(c, apperrors.NewBatchParseError("CSV contains no data rows"))
		return
	}

	resp, err := h.service.Batch(c.Request.Context(), user.ID, rows)
	if err != nil {
		h.errHandler.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
