package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simsmaster/sims-backend/internal/model"
)

func TestRecoverStale_ReplaysAbandonedIntent(t *testing.T) {
	svc, store, notifier := newTestEnrollmentService(t)
	c := seedClass(store, "Go Basics", 10, 0)
	store.PutCartItem(payer, c.ID)

	payload, err := json.Marshal(purchase{
		UserEmail:     payer,
		ClassIDs:      []uuid.UUID{c.ID},
		TransactionID: "pi_stale",
		Amount:        49,
	})
	require.NoError(t, err)

	store.PutIntent(model.PurchaseIntent{
		TransactionID: "pi_stale",
		UserEmail:     payer,
		Payload:       payload,
		Status:        model.IntentStatusPending,
		Attempts:      1,
		UpdatedAt:     time.Now().Add(-10 * time.Minute),
	})
	store.PutIntent(model.PurchaseIntent{
		TransactionID: "pi_fresh",
		UserEmail:     payer,
		Payload:       payload,
		Status:        model.IntentStatusPending,
		Attempts:      1,
		UpdatedAt:     time.Now(),
	})

	n, err := svc.RecoverStale(context.Background(), 2*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ := store.Class(c.ID)
	assert.Equal(t, 9, got.AvailableSeats)
	assert.Empty(t, store.CartItems(payer))
	assert.Equal(t, 1, notifier.count())

	stale, _ := store.Intent("pi_stale")
	assert.Equal(t, model.IntentStatusCommitted, stale.Status)
	assert.Equal(t, 2, stale.Attempts)

	fresh, _ := store.Intent("pi_fresh")
	assert.Equal(t, model.IntentStatusPending, fresh.Status)

	// A recovered intent answers a client retry with the stored result.
	replay, err := svc.Commit(context.Background(), purchaseOf("pi_stale", c.ID))
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
}

func TestRecoverStale_UndecodablePayloadFails(t *testing.T) {
	svc, store, _ := newTestEnrollmentService(t)
	store.PutIntent(model.PurchaseIntent{
		TransactionID: "pi_broken",
		UserEmail:     payer,
		Payload:       json.RawMessage(`"not an object"`),
		Status:        model.IntentStatusPending,
		UpdatedAt:     time.Now().Add(-time.Hour),
	})

	n, err := svc.RecoverStale(context.Background(), time.Minute, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	intent, _ := store.Intent("pi_broken")
	assert.Equal(t, model.IntentStatusFailed, intent.Status)
}
