// internal/api/router.go
package api

import (
	"net/http"

	authapi "loan-approval-api/internal/api/auth"
	"loan-approval-api/internal/api/history"
	"loan-approval-api/internal/api/predict"
	commonauth "loan-approval-api/internal/common/auth"
	"loan-approval-api/internal/common/config"
	"loan-approval-api/internal/common/errors"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/common/observability"
	"loan-approval-api/internal/models"
	"loan-approval-api/internal/notify"
	"loan-approval-api/internal/predictor"
	"loan-approval-api/internal/search"
	"loan-approval-api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps carries everything the router wires together.
type Deps struct {
	Config      *config.Config
	Logger      logger.Logger
	Artifacts   *predictor.Store
	Users       *store.UserStore
	Predictions *store.PredictionStore
	ResetTokens *store.ResetTokenStore
	Cache       *store.HistoryCache
	Index       *search.PredictionIndex
	Mailer      *notify.Mailer
	Tokens      *commonauth.TokenManager
	Obs         *observability.Observability
}

// New assembles the HTTP API.
func New(deps Deps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	errHandler := errors.NewErrorHandler(deps.Logger)

	authService := authapi.NewService(
		deps.Users, deps.Tokens, deps.ResetTokens, deps.Mailer,
		deps.Config.Auth.BcryptCost, deps.Logger,
	)
	authHandler := authapi.NewHandler(authService, errHandler, deps.Logger)

	predictService := predict.NewService(
		deps.Artifacts, deps.Predictions, deps.Index, deps.Cache, deps.Obs, deps.Logger,
	)
	predictHandler := predict.NewHandler(predictService, errHandler, deps.Logger)

	historyService := history.NewService(
		deps.Predictions, deps.Cache, deps.Index, deps.Logger,
	)
	historyHandler := history.NewHandler(historyService, errHandler, deps.Logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORS())
	router.Use(RequestLogger(deps.Logger))
	router.Use(RequestMetrics())

	router.GET("/healthz", healthz(deps.Artifacts))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)

	requireAuth := Auth(deps.Tokens, deps.Users, errHandler)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
		authGroup.GET("/me", requireAuth, withUser(authHandler.Me))
		authGroup.POST("/change-password", requireAuth, withUser(authHandler.ChangePassword))
	}

	predictGroup := router.Group("/predict", requireAuth)
	{
		predictGroup.POST("/single", withUser(predictHandler.Single))
		predictGroup.POST("/batch", withUser(predictHandler.Batch))
	}

	predictionsGroup := router.Group("/predictions", requireAuth)
	{
		predictionsGroup.GET("/history", withUser(historyHandler.History))
		predictionsGroup.GET("/search", withUser(historyHandler.Search))
	}

	return router
}

// withUser adapts a handler that needs the authenticated account. The Auth
// middleware guarantees the user is present on these routes.
func withUser(handler func(*gin.Context, *models.User)) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler(c, CurrentUser(c))
	}
}

// healthz reports liveness and whether predictions are currently possible.
func healthz(artifacts *predictor.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		if !artifacts.Usable() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":       http.StatusText(status),
			"model_loaded": artifacts.Usable(),
		})
	}
}
