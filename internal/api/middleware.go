// internal/api/middleware.go
package api

import (
	stderrors "errors"
	"strconv"
	"strings"
	"time"

	"loan-approval-api/internal/common/auth"
	"loan-approval-api/internal/common/errors"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/common/metrics"
	"loan-approval-api/internal/models"
	"loan-approval-api/internal/store"

	"github.com/gin-gonic/gin"
)

// userKey is the gin context key holding the authenticated *models.User.
const userKey = "currentUser"

// CurrentUser returns the account the Auth middleware attached, or nil on
// unauthenticated routes.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// RequestMetrics times every request into the prometheus histogram.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// RequestLogger logs completed requests with their status and latency.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request completed", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// CORS allows browser clients on other origins to call the API.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// Auth verifies the bearer token and loads the account it names into the
// request context.
func Auth(tokens *auth.TokenManager, users *store.UserStore, errHandler *errors.ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			errHandler.Respond(c, errors.NewUnauthorizedError())
			return
		}

		username, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			errHandler.Respond(c, errors.NewTokenInvalidError(err.Error()))
			return
		}

		user, err := users.GetByUsername(c.Request.Context(), username)
		if err != nil {
			// A missing account means a stale or forged token; anything
			// else is an infrastructure failure and must not look like one.
			if stderrors.Is(err, store.ErrUserNotFound) {
				errHandler.Respond(c, errors.NewTokenInvalidError("unknown subject"))
			} else {
				errHandler.Respond(c, errors.NewDatabaseQueryError(err.Error()))
			}
			return
		}
		if !user.IsActive {
			errHandler.Respond(c, errors.NewUnauthorizedError())
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}
