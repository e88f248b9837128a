package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/notarial-clause-assistant/internal/bootstrap"
	"github.com/kirillkom/notarial-clause-assistant/internal/config"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/usecase"
	"github.com/kirillkom/notarial-clause-assistant/internal/observability/logging"
	"github.com/kirillkom/notarial-clause-assistant/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "worker"})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	exporter := usecase.NewCaseExporter(app.Repo, app.Renderer, app.Storage)

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeClauseCompleted(ctx, func(handlerCtx context.Context, event domain.ClauseCompleted) error {
		workerMetrics.ObserveEventLag(time.Since(event.OccurredAt))
		workerMetrics.StartExport()
		start := time.Now()

		exportCtx, cancel := context.WithTimeout(handlerCtx, time.Minute)
		defer cancel()
		err := exporter.HandleClauseCompleted(exportCtx, event)
		workerMetrics.FinishExport(time.Since(start), err)
		return err
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
