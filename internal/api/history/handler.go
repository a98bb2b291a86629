// internal/api/history/handler.go
package history

import (
	"net/http"
	"strconv"

	apperrors "loan-approval-api/internal/common/errors"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/models"
	"loan-approval-api/internal/search"

	"github.com/gin-gonic/gin"
)

// Handler exposes the history endpoints.
type Handler struct {
	service    *Service
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(service *Service, errHandler *apperrors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{
		service:    service,
		errHandler: errHandler,
		logger:     log.WithFields(map[string]interface{}{"component": "history-handler"}),
	}
}

// History handles GET /predictions/history?limit=&offset=.
func (h *Handler) History(c *gin.Context, user *models.User) {
	limit, ok := h.intQuery(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := h.intQuery(c, "offset", 0)
	if !ok {
		return
	}

	page, err := h.service.History(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		h.errHandler.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Search handles GET /predictions/search with optional q, decision,
// min_probability, max_probability, limit and offset parameters.
func (h *Handler) Search(c *gin.Context, user *models.User) {
	params := search.Params{Keywords: c.Query("q")}

	if raw := c.Query("decision"); raw != "" {
		decision, err := strconv.Atoi(raw)
		if err != nil || (decision != 0 && decision != 1) {
			h.errHandler.Respond(c, apperrors.NewValidationError("decision must be 0 or 1", nil))
			return
		}
		params.Decision = &decision
	}

	var ok bool
	if params.MinProbability, ok = h.floatQuery(c, "min_probability"); !ok {
		return
	}
	if params.MaxProbability, ok = h.floatQuery(c, "max_probability"); !ok {
		return
	}
	if params.Size, ok = h.intQuery(c, "limit", 0); !ok {
		return
	}
	if params.From, ok = h.intQuery(c, "offset", 0); !ok {
		return
	}

	result, err := h.service.Search(c.Request.Context(), user.ID, params)
	if err != nil {
		h.errHandler.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   result.TotalHits,
		"records": result.Records,
	})
}

func (h *Handler) intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		h.errHandler.Respond(c, apperrors.NewValidationError(name+" must be a non-negative integer", nil))
		return 0, false
	}
	return v, true
}

func (h *Handler) floatQuery(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		h.errHandler.Respond(c, apperrors.NewValidationError(name+" must be between 0 and 1", nil))
		return 0, false
	}
	return v, true
}
