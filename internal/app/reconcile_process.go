package app

import (
	"context"
	"github.com/mufasadev/payment-gateway/internal/config"
	"github.com/mufasadev/payment-gateway/internal/errors"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"github.com/rs/zerolog"
	"time"
)

// Upper bound for one reconcile pass.
const reconcileTimeout = 2 * time.Minute

type ReconcileHandler interface {
	Execute(ctx context.Context) error
}

type ReconcileProcess struct {
	handler ReconcileHandler
	config  config.Process
	logger  *zerolog.Logger
}

func NewReconcileProcess(h ReconcileHandler, cfg config.Process) *ReconcileProcess {
	l := log.GetLogger()
	return &ReconcileProcess{handler: h, config: cfg, logger: &l}
}

// Run reconciles pending transactions on every tick until ctx is done.
func (p *ReconcileProcess) Run(ctx context.Context) error {
	interval, err := p.config.IntervalDuration()
	if err != nil {
		return err
	}
	return p.run(ctx, interval)
}

func (p *ReconcileProcess) run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("reconcile process stopped")
			return nil
		case <-ticker.C:
			timeout, cancel := context.WithTimeout(ctx, reconcileTimeout)
			if err := p.handler.Execute(timeout); err != nil {
				p.logger.Error().Err(err).Msg(errors.ErrFailedReconcilePending)
			}
			cancel()
		}
	}
}
