package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/atsgate/smsoperator/internal/operator_service/app"
	"github.com/atsgate/smsoperator/internal/operator_service/operator"
	"github.com/atsgate/smsoperator/internal/operator_service/repository/postgres"
	"github.com/atsgate/smsoperator/internal/platform/config"
	"github.com/atsgate/smsoperator/internal/platform/database"
	"github.com/atsgate/smsoperator/internal/platform/httpclient"
	"github.com/atsgate/smsoperator/internal/platform/logger"
	"github.com/atsgate/smsoperator/internal/platform/messagebroker"
)

const (
	serviceName     = "operator_service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(serviceName, cfg.LogLevel)
	appLogger.Info("SMS operator service starting...", "log_level", cfg.LogLevel)

	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Connected to NATS")

	messageRepo := postgres.NewPgMessageRepository(dbPool, appLogger)
	operatorClient := httpclient.New(appLogger, nil, cfg.OperatorTimeout)
	adapter := operator.NewAdapter(operator.Config{
		Username:   cfg.OperatorUsername,
		Password:   cfg.OperatorPassword,
		UniqPrefix: cfg.OperatorUniqPrefix,
		URL:        cfg.OperatorURL,
	}, operatorClient, messageRepo, appLogger)

	sendConsumer := app.NewSendConsumer(natsClient, messageRepo, adapter, appLogger)
	statusPoller := app.NewStatusPoller(messageRepo, adapter, appLogger,
		cfg.StatusPollInterval, cfg.StatusPollMinAge, cfg.StatusPollBatch)

	g, groupCtx := errgroup.WithContext(mainCtx)

	if err := sendConsumer.Start(groupCtx); err != nil {
		appLogger.Error("Failed to start send-job consumer", "error", err)
		os.Exit(1)
	}
	defer sendConsumer.Stop()
	appLogger.Info("Send-job consumer started", "subject", app.SendJobSubject, "queue_group", app.SendJobQueueGroup)

	g.Go(func() error {
		err := statusPoller.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	// Health and metrics endpoints.
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbPool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: router,
	}
	g.Go(func() error {
		appLogger.Info("Metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	appLogger.Info("Service components initialized, service is ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		appLogger.Info("Received termination signal", "signal", sig.String())
	case <-groupCtx.Done():
		appLogger.Error("A component failed, initiating shutdown", "error", groupCtx.Err())
	}

	mainCancel()
	sendConsumer.Stop()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Error during graceful shutdown", "error", err)
	}
	appLogger.Info("Service shutdown complete")
}
