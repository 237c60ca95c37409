package sched

import (
	"context"
	"time"

	"telegram-catalog-bot/internal/infra/metrics"
	"telegram-catalog-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// PurgeWorker periodically sweeps expired access codes via the use case.
// Expiry is otherwise checked lazily at redemption time; the sweep just
// keeps the registry from accumulating dead codes.
type PurgeWorker struct {
	interval time.Duration
	accessUC usecase.AccessUseCase
	log      *zerolog.Logger
}

func NewPurgeWorker(interval time.Duration, accessUC usecase.AccessUseCase, logger *zerolog.Logger) *PurgeWorker {
	purgeLog := logger.With().Str("component", "PurgeWorker").Logger()
	return &PurgeWorker{
		interval: interval,
		accessUC: accessUC,
		log:      &purgeLog,
	}
}

func (w *PurgeWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting code purge worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping code purge worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.accessUC.PurgeExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("purge worker error")
			}
			if n > 0 {
				metrics.AddCodesPurged(n)
				w.log.Info().Int("count", n).Msg("expired codes purged")
			}
		}
	}
}
