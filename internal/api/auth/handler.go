// internal/api/auth/handler.go
package auth

import (
	"net/http"

	apperrors "loan-approval-api/internal/common/errors"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/common/validation"
	"loan-approval-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// Handler exposes the account endpoints.
type Handler struct {
	service    *Service
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(service *Service, errHandler *apperrors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{
		service:    service,
		errHandler: errHandler,
		logger:     log.WithFields(map[string]interface{}{"component": "auth-handler"}),
	}
}

// bindValidated binds the JSON body twice: once as a map for schema
// validation with field-level errors, once into the typed request.
func (h *Handler) bindValidated(c *gin.Context, schema validation.JSONSchema, out interface{}) bool {
	var raw map[string]interface{}
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		h.errHandler.Respond(c, apperrors.NewValidationError("request body is not valid JSON", nil))
		return false
	}

	if result := validation.ValidateInput(raw, schema); !result.Valid {
		h.errHandler.Respond(c, apperrors.NewValidationError("request validation failed", result.Errors))
		return false
	}

	if err := c.ShouldBindBodyWith(out, binding.JSON); err != nil {
		h.errHandler.Respond(c, apperrors.NewValidationError(err.Error(), nil))
		return false
	}
	return true
}

func (h *Handler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !h.bindValidated(c, registerSchema, &req) {
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.errHandler.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bindValidated(c, loginSchema, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		h.errHandler.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the account behind the bearer token.
func (h *Handler) Me(c *gin.Context, user *models.User) {
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !h.bindValidated(c, forgotPasswordSchema, &req) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.errHandler.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "If the email is registered, a reset link has been sent",
	})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !h.bindValidated(c, resetPasswordSchema, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), &req); err != nil {
		h.errHandler.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

func (h *Handler) ChangePassword(c *gin.Context, user *models.User) {
	var req models.ChangePasswordRequest
	if !h.bindValidated(c, changePasswordSchema, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), user, &req); err != nil {
		h.errHandler.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been changed"})
}
