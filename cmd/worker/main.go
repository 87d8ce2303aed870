// The worker binary is the consumer side: it pulls order envelopes from the
// configured transport, restores the producer's trace context, and runs the
// notification handler inside it. SIGTERM stops the loop at its next wait
// boundary; an in-flight handler finishes before exit.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeziellopes/observability/internal/config"
	"github.com/jeziellopes/observability/internal/logging"
	"github.com/jeziellopes/observability/internal/notify"
	"github.com/jeziellopes/observability/internal/queue"
	"github.com/jeziellopes/observability/internal/queue/factory"
	"github.com/jeziellopes/observability/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logging.New(cfg.Observability.ServiceName+"-worker", cfg.Environment)

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

	consumer := queue.NewConsumer(transport, log)
	handler := notify.New(log)

	log.Info("worker consuming", "transport", string(cfg.Queue.Transport), "queue", cfg.Queue.Name)
	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		log.Error("consume loop failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := consumer.Stats()
	log.Info("worker stopping",
		"processed", stats.Processed,
		"failed", stats.Failed,
		"poisoned", stats.Poisoned,
	)

	if err := consumer.Close(shutdownCtx); err != nil {
		log.Error("transport close failed", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", "error", err)
	}
}
