package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const reconcileBatchSize = 200

// ScoreWorker is the repair path for post scores. Recompute runs inline after
// every vote, so a failure there leaves a stored score that disagrees with the
// ledger; the worker periodically finds and recomputes those posts.
type ScoreWorker struct {
	scores   *ScoreService
	interval time.Duration
	log      zerolog.Logger
	stopCh   chan struct{}
}

// NewScoreWorker creates a worker that reconciles every interval.
func NewScoreWorker(scores *ScoreService, interval time.Duration, log zerolog.Logger) *ScoreWorker {
	return &ScoreWorker{
		scores:   scores,
		interval: interval,
		log:      log.With().Str("worker", "score").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start runs one reconcile immediately, then every interval, until ctx is
// cancelled or Stop is called.
func (w *ScoreWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("score-worker: starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.log.Info().Msg("score-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.log.Info().Msg("score-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *ScoreWorker) Stop() {
	close(w.stopCh)
}

func (w *ScoreWorker) tick(ctx context.Context) {
	start := time.Now()
	repaired, err := w.scores.ReconcileAll(ctx, reconcileBatchSize)
	if err != nil {
		w.log.Error().Err(err).Int("repaired", repaired).Msg("score-worker: reconcile failed")
		return
	}
	if repaired > 0 {
		w.log.Info().
			Int("repaired", repaired).
			Dur("elapsed", time.Since(start).Round(time.Millisecond)).
			Msg("score-worker: drifted scores repaired")
	}
}
