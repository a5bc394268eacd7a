package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TrustWorker periodically recomputes the trust score of every non-frozen
// user. New weights only apply to votes cast afterwards.
type TrustWorker struct {
	trust    *TrustService
	interval time.Duration
	log      zerolog.Logger
	stopCh   chan struct{}
}

// NewTrustWorker creates a worker that ticks every interval.
func NewTrustWorker(trust *TrustService, interval time.Duration, log zerolog.Logger) *TrustWorker {
	return &TrustWorker{
		trust:    trust,
		interval: interval,
		log:      log.With().Str("worker", "trust").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start runs one refresh immediately, then every interval.
func (w *TrustWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("trust-worker: starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.log.Info().Msg("trust-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.log.Info().Msg("trust-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *TrustWorker) Stop() {
	close(w.stopCh)
}

func (w *TrustWorker) tick(ctx context.Context) {
	start := time.Now()
	updated, err := w.trust.RefreshAll(ctx)
	if err != nil {
		w.log.Error().Err(err).Int("updated", updated).Msg("trust-worker: refresh failed")
		return
	}
	w.log.Info().
		Int("updated", updated).
		Dur("elapsed", time.Since(start).Round(time.Millisecond)).
		Msg("trust-worker: tick complete")
}
