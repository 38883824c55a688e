package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/taskhive/taskhive-backend/config"
	"github.com/taskhive/taskhive-backend/internal/auth"
	"github.com/taskhive/taskhive-backend/internal/bootstrap"
	"github.com/taskhive/taskhive-backend/internal/stats"
	"github.com/taskhive/taskhive-backend/internal/store"
)

const serviceName = "taskhive-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.App.Environment)
	defer func() { _ = logger.Sync() }()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dynamoClient, err := bootstrap.OpenDynamo(ctx, bootstrap.DynamoOptions{
		Region:   cfg.Database.Region,
		Endpoint: cfg.Database.Endpoint,
	})
	if err != nil {
		logger.Fatal("dynamodb client", zap.Error(err))
	}

	st := store.New(dynamoClient, cfg.Database.TableName, logger)
	if err := st.ValidateSchema(ctx); err != nil {
		logger.Fatal("table schema", zap.Error(err))
	}

	redisClient, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{Addr: cfg.Cache.RedisAddr})
	if err != nil {
		logger.Fatal("redis client", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	statsCache := stats.New(redisClient, time.Duration(cfg.Cache.StatsTTLSecs)*time.Second, logger)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		Store:       st,
		Tokens:      tokens,
		StatsCache:  statsCache,
		Redis:       redisClient,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	if env == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}
