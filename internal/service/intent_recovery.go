package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RecoverStale replays PENDING intents idle for longer than staleAfter from
// their stored payload. Each intent is reclaimed first so concurrent
// recoverers never replay the same one. It returns how many were committed.
func (s *EnrollmentService) RecoverStale(ctx context.Context, staleAfter time.Duration, batch int) (int, error) {
	cutoff := time.Now().Add(-staleAfter)

	intents, err := s.store.ListStaleIntents(ctx, cutoff, batch)
	if err != nil {
		return 0, fmt.Errorf("list stale intents: %w", err)
	}

	recovered := 0
	for _, intent := range intents {
		if err := ctx.Err(); err != nil {
			return recovered, err
		}

		claimed, err := s.store.ReclaimStaleIntent(ctx, intent.TransactionID, cutoff)
		if err != nil {
			return recovered, fmt.Errorf("reclaim intent %s: %w", intent.TransactionID, err)
		}
		if !claimed {
			continue
		}

		var p purchase
		if err := json.Unmarshal(intent.Payload, &p); err != nil {
			s.failIntent(ctx, intent.TransactionID, fmt.Errorf("decode payload: %w", err))
			continue
		}

		if _, err := s.execute(ctx, p); err != nil {
			s.log.Warn().Err(err).Str("transaction_id", intent.TransactionID).Msg("Intent replay failed")
			continue
		}
		recovered++
	}
	return recovered, nil
}
