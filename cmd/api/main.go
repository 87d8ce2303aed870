// The api binary is the producer side: an HTTP service that stores orders
// and publishes order_created envelopes through the configured transport.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeziellopes/observability/internal/config"
	ordershandler "github.com/jeziellopes/observability/internal/http/handlers/orders"
	"github.com/jeziellopes/observability/internal/http/router"
	"github.com/jeziellopes/observability/internal/logging"
	"github.com/jeziellopes/observability/internal/orders"
	"github.com/jeziellopes/observability/internal/queue"
	"github.com/jeziellopes/observability/internal/queue/factory"
	"github.com/jeziellopes/observability/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.New(cfg.Observability.ServiceName+"-api", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Observability, log)
	if err != nil {
		log.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}

	transport, err := factory.New(ctx, cfg, log)
	if err != nil {
		log.Error("transport construction failed", "error", err)
		os.Exit(1)
	}

	producer := queue.NewProducer(transport, log)
	store := orders.NewStore()
	svc := orders.NewService(store, orders.NewQueuePublisher(producer), log)
	handler := ordershandler.NewHandler(svc, log)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router.New(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening", "addr", srv.Addr, "transport", string(cfg.Queue.Transport))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	if err := transport.Close(shutdownCtx); err != nil {
		log.Error("transport close failed", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", "error", err)
	}
}
