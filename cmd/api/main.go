package main

import (
	"context"
	"github.com/mufasadev/payment-gateway/internal/app"
	"github.com/mufasadev/payment-gateway/internal/config"
	"github.com/mufasadev/payment-gateway/internal/di"
	"github.com/mufasadev/payment-gateway/internal/errors"
	"github.com/mufasadev/payment-gateway/internal/infrastructure/api/routers"
	"github.com/mufasadev/payment-gateway/pkg/log"
)

const (
	appName = "payment-gateway"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	opts := []log.LoggerOption{log.WithConsoleLogger(), log.WithLogLevel(cfg.Log.Level)}
	if cfg.Log.File != "" {
		opts = append(opts, log.WithFileLogger(cfg.Log.File))
	}
	log.Init(appName, opts...)
	logger := log.GetLogger()

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorInvalidConfiguration)
	}

	storage, err := di.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg(errors.ErrorFailedToConnectToTheDatabase)
	}
	defer storage.Close()

	container, err := di.NewContainer(cfg, storage)
	if err != nil {
		logger.Fatal().Err(err).Msg(errors.ErrorInvalidConfiguration)
	}

	reconcile := app.NewReconcileProcess(container.ReconcilePendingInteractor, cfg.Process)
	go func() {
		if err := reconcile.Run(ctx); err != nil {
			logger.Error().Err(err).Msg(errors.ErrFailedReconcilePending)
		}
	}()

	router := routers.NewRouter(container, cfg.Public)
	service := app.NewService(cfg)
	service.Run(ctx, router)
}
