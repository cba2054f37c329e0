package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const RecoveryBatchSize = 50

// IntentRecoverer replays purchase intents left PENDING longer than staleAfter.
type IntentRecoverer interface {
	RecoverStale(ctx context.Context, staleAfter time.Duration, batch int) (int, error)
}

// IntentRecoveryWorker periodically finishes commits whose request died
// between claiming the intent and completing it.
type IntentRecoveryWorker struct {
	recoverer  IntentRecoverer
	interval   time.Duration
	staleAfter time.Duration
	log        zerolog.Logger
}

func NewIntentRecoveryWorker(recoverer IntentRecoverer, interval, staleAfter time.Duration, log zerolog.Logger) *IntentRecoveryWorker {
	return &IntentRecoveryWorker{
		recoverer:  recoverer,
		interval:   interval,
		staleAfter: staleAfter,
		log:        log.With().Str("component", "intent_recovery_worker").Logger(),
	}
}

// Start runs until ctx is cancelled. The first sweep happens immediately.
func (w *IntentRecoveryWorker) Start(ctx context.Context) {
	w.log.Info().
		Dur("interval", w.interval).
		Dur("stale_after", w.staleAfter).
		Msg("IntentRecoveryWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)

		select {
		case <-ctx.Done():
			w.log.Info().Msg("IntentRecoveryWorker stopped")
			return
		case <-ticker.C:
		}
	}
}

// sweep drains stale intents batch by batch until a batch comes back short.
func (w *IntentRecoveryWorker) sweep(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.recoverer.RecoverStale(ctx, w.staleAfter, RecoveryBatchSize)
		if err != nil {
			if ctx.Err() == nil {
				w.log.Error().Err(err).Msg("Intent recovery sweep failed")
			}
			return
		}
		if n > 0 {
			w.log.Info().Int("recovered", n).Msg("Recovered stale intents")
		}
		if n < RecoveryBatchSize {
			return
		}
	}
}
