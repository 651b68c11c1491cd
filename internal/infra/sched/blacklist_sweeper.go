package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-automation/internal/infra/metrics"
	"telegram-automation/internal/usecase"
)

type BlacklistSweepable interface {
	Sweep(ctx context.Context) int
	Stats() usecase.BlacklistStats
}

// BlacklistSweeper periodically reclaims expired temporary entries. Expiry is
// already honoured lazily on reads; this only frees storage and keeps the
// size gauge current.
type BlacklistSweeper struct {
	interval time.Duration
	store    BlacklistSweepable
	log      *zerolog.Logger
}

func NewBlacklistSweeper(interval time.Duration, store BlacklistSweepable, logger *zerolog.Logger) *BlacklistSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	compLog := logger.With().Str("component", "BlacklistSweeper").Logger()
	return &BlacklistSweeper{interval: interval, store: store, log: &compLog}
}

func (w *BlacklistSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting blacklist sweeper")
	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping blacklist sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *BlacklistSweeper) sweep(ctx context.Context) {
	if n := w.store.Sweep(ctx); n > 0 {
		w.log.Info().Int("count", n).Msg("expired blacklist entries removed")
	}
	st := w.store.Stats()
	metrics.SetBlacklistSize(st.PermanentCount, st.TemporaryCount)
}
