package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/simsmaster/sims-backend/internal/config"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/queue"
)

// EventPublisher sends enrollment events to the broker.
type EventPublisher interface {
	PublishEnrollmentCommitted(ctx context.Context, ev queue.EnrollmentCommittedEvent) error
}

// FanoutNotifier runs the post-commit steps: drop cached views, push seat
// counters to the Pub/Sub feed, publish the domain event. Every step is best
// effort and only logged on failure.
type FanoutNotifier struct {
	cache     *ViewCache
	rdb       *redis.Client
	publisher EventPublisher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewFanoutNotifier creates a FanoutNotifier. publisher may be nil.
func NewFanoutNotifier(cache *ViewCache, rdb *redis.Client, publisher EventPublisher, log zerolog.Logger) *FanoutNotifier {
	return &FanoutNotifier{
		cache:     cache,
		rdb:       rdb,
		publisher: publisher,
		timeout:   3 * time.Second,
		log:       log.With().Str("component", "commit_notifier").Logger(),
	}
}

// EnrollmentCommitted implements CommitNotifier.
func (n *FanoutNotifier) EnrollmentCommitted(ctx context.Context, result *model.CommitResult) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	l := n.log.With().Str("transaction_id", result.TransactionID).Logger()

	if err := n.cache.Invalidate(ctx); err != nil {
		l.Warn().Err(err).Msg("View cache invalidation failed")
	}

	channel := config.CacheKey.SeatUpdatesChannel()
	for _, seat := range result.Classes {
		msg, err := json.Marshal(seat)
		if err != nil {
			continue
		}
		if err := n.rdb.Publish(ctx, channel, msg).Err(); err != nil {
			l.Warn().Err(err).Str("class_id", seat.ClassID.String()).Msg("Seat update publish failed")
		}
	}

	if n.publisher == nil {
		return
	}
	if err := n.publisher.PublishEnrollmentCommitted(ctx, NewEnrollmentEvent(result)); err != nil {
		l.Warn().Err(err).Msg("Enrollment event publish failed")
	}
}

// NewEnrollmentEvent builds the broker event for a committed purchase.
func NewEnrollmentEvent(result *model.CommitResult) queue.EnrollmentCommittedEvent {
	classes := make([]queue.ClassSeats, len(result.Classes))
	for i, s := range result.Classes {
		classes[i] = queue.ClassSeats{
			ClassID:        s.ClassID.String(),
			AvailableSeats: s.AvailableSeats,
			TotalEnrolled:  s.TotalEnrolled,
		}
	}
	return queue.EnrollmentCommittedEvent{
		TransactionID: result.TransactionID,
		UserEmail:     result.Enrollment.UserEmail,
		EnrollmentID:  result.Enrollment.ID.String(),
		PaymentID:     result.Payment.ID.String(),
		Amount:        result.Payment.Amount,
		Classes:       classes,
		CommittedAt:   result.Payment.CreatedAt,
	}
}
