package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/config"
	"github.com/ninjashari/expense-manager-api/internal/handler"
	"github.com/ninjashari/expense-manager-api/internal/infra/cache"
	"github.com/ninjashari/expense-manager-api/internal/infra/observability"
	"github.com/ninjashari/expense-manager-api/internal/infra/postgres"
	"github.com/ninjashari/expense-manager-api/internal/infra/rates"
	"github.com/ninjashari/expense-manager-api/internal/service"
)

func main() {
	config.LoadDotEnv(".env")
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "expense-manager-api")
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(ctx)
		}()
	}

	metrics := observability.NewMetrics()

	ctx := context.Background()
	store, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer store.Close()

	rateCache := cache.New[float64](cfg.RateCacheTTL, cfg.RateCacheSize)
	rateClient := rates.NewClient(cfg.RatesAPIURL, cfg.RateTimeout, logger)
	currencySvc := service.NewCurrencyService(rateClient, rateCache, cfg, metrics, logger)

	accountSvc := service.NewAccountService(store, store, logger)
	categorySvc := service.NewCategoryService(store, logger)
	transactionSvc := service.NewTransactionService(store, store, store, logger)
	billingSvc := service.NewBillingService(store, store, store, metrics, logger)
	reportSvc := service.NewReportService(store, store, store, currencySvc, logger)
	importSvc := service.NewImportService(store, store, transactionSvc, logger)

	router := handler.NewRouter(
		handler.Services{
			Accounts:     accountSvc,
			Categories:   categorySvc,
			Transactions: transactionSvc,
			Billing:      billingSvc,
			Reports:      reportSvc,
			Imports:      importSvc,
		},
		handler.RouterConfig{
			JWTSecret:   cfg.JWTSecret,
			CORSOrigins: cfg.CORSOrigins,
			Metrics:     metrics,
			Logger:      logger,
			DB:          store,
		},
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
