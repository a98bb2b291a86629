// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loan-approval-api/internal/api"
	commonauth "loan-approval-api/internal/common/auth"
	"loan-approval-api/internal/common/aws"
	"loan-approval-api/internal/common/config"
	"loan-approval-api/internal/common/database"
	"loan-approval-api/internal/common/logger"
	"loan-approval-api/internal/common/observability"
	"loan-approval-api/internal/notify"
	"loan-approval-api/internal/predictor"
	"loan-approval-api/internal/search"
	"loan-approval-api/internal/store"

	"github.com/elastic/go-elasticsearch/v8"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting API server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New("loan-approval-api")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Model artifacts ---
	// A missing model does not abort startup: the server comes up with
	// predictions disabled and reports it on /healthz.
	artifacts := predictor.Load(cfg.Model.ArtifactDir, log)

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if err := store.EnsureSchema(ctx, pg.DB); err != nil {
		zapLog.Fatal("schema bootstrap failed", zap.Error(err))
	}

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch (optional) ---
	var esClient *elasticsearch.Client
	if cfg.Database.Elasticsearch.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping()
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Warn("elasticsearch unavailable, search disabled", zap.Error(err))
		} else {
			esClient = es.Client
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Init SES (optional) ---
	var sesClient notify.SESService
	if cfg.Notifications.SES.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.Notifications.SES.Region)
		if err != nil {
			zapLog.Warn("SES client init failed, reset emails will be logged", zap.Error(err))
		} else {
			sesClient = ses
		}
	}

	deps := api.Deps{
		Config:      cfg,
		Logger:      log,
		Artifacts:   artifacts,
		Users:       store.NewUserStore(pg.DB, log),
		Predictions: store.NewPredictionStore(pg.DB, log),
		ResetTokens: store.NewResetTokenStore(
			redisClient.Client,
			time.Duration(cfg.Auth.ResetTokenTTL)*time.Minute,
			log,
		),
		Cache: store.NewHistoryCache(redisClient.Client, time.Minute, log),
		Index: search.NewPredictionIndex(esClient, cfg.Database.Elasticsearch.Index, log),
		Mailer: notify.NewMailer(
			sesClient,
			cfg.Notifications.SES,
			log,
		),
		Tokens: commonauth.NewTokenManager(
			cfg.Auth.JWTSecret,
			cfg.Auth.TokenExpiryMinutes,
			cfg.App.Name,
		),
		Obs: obs,
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.New(deps),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Server stopped")
}
