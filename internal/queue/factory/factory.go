// Package factory constructs the one Transport a process uses, selected
// from configuration at startup. The set of transports is closed; an
// unknown kind is a construction error, never a runtime surprise.
package factory

import (
	"context"
	"fmt"

	"github.com/jeziellopes/observability/internal/config"
	"github.com/jeziellopes/observability/internal/logging"
	"github.com/jeziellopes/observability/internal/queue"
	"github.com/jeziellopes/observability/internal/queue/local"
	"github.com/jeziellopes/observability/internal/queue/sqs"
)

// New builds the transport selected by cfg.Queue.Transport.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (queue.Transport, error) {
	switch cfg.Queue.Transport {
	case config.TransportLocal:
		lcfg := local.Defaults()
		lcfg.Addr = cfg.Redis.Addr
		lcfg.Password = cfg.Redis.Password
		lcfg.DB = cfg.Redis.DB
		lcfg.Queue = cfg.Queue.Name
		t, err := local.New(lcfg, log)
		if err != nil {
			return nil, fmt.Errorf("factory: local transport: %w", err)
		}
		return t, nil

	case config.TransportManaged:
		scfg := sqs.Defaults()
		scfg.QueueURL = cfg.SQS.QueueURL
		scfg.Region = cfg.SQS.Region
		scfg.Endpoint = cfg.SQS.Endpoint
		if cfg.SQS.WaitTime > 0 {
			scfg.WaitTime = cfg.SQS.WaitTime
		}
		t, err := sqs.New(ctx, scfg, log)
		if err != nil {
			return nil, fmt.Errorf("factory: managed transport: %w", err)
		}
		return t, nil

	default:
		return nil, fmt.Errorf("factory: unknown queue transport %q", cfg.Queue.Transport)
	}
}
