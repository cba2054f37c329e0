package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/repository/memory"
)

const payer = "student@sims.io"

type recordingNotifier struct {
	mu      sync.Mutex
	results []*model.CommitResult
}

func (n *recordingNotifier) EnrollmentCommitted(_ context.Context, r *model.CommitResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, r)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}

func newTestEnrollmentService(t *testing.T) (*EnrollmentService, *memory.Store, *recordingNotifier) {
	t.Helper()
	store := memory.New()
	notifier := &recordingNotifier{}
	return NewEnrollmentService(store, notifier, zerolog.Nop()), store, notifier
}

func seedClass(store *memory.Store, name string, seats, enrolled int) model.Class {
	return store.PutClass(model.Class{
		ClassName:       name,
		InstructorName:  "Ada",
		InstructorEmail: "ada@sims.io",
		AvailableSeats:  seats,
		TotalEnrolled:   enrolled,
		Price:           49,
		Status:          model.ClassStatusApproved,
	})
}

func purchaseOf(txn string, ids ...uuid.UUID) model.PurchaseRequest {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	return model.PurchaseRequest{
		UserEmail:     payer,
		ClassIDs:      raw,
		TransactionID: txn,
		Amount:        49,
		Metadata:      []byte(`{"card":"visa"}`),
	}
}

func TestCommit_SingleClassUpdatesEveryStore(t *testing.T) {
	svc, store, notifier := newTestEnrollmentService(t)
	c := seedClass(store, "Go Basics", 10, 0)
	store.PutCartItem(payer, c.ID)
	store.PutCartItem("other@sims.io", c.ID)

	req := purchaseOf("pi_001", c.ID)
	req.ScopeClassID = c.ID.String()

	result, err := svc.Commit(context.Background(), req)
	require.NoError(t, err)

	got, _ := store.Class(c.ID)
	assert.Equal(t, 9, got.AvailableSeats)
	assert.Equal(t, 1, got.TotalEnrolled)

	require.Len(t, result.Classes, 1)
	assert.Equal(t, model.SeatSnapshot{ClassID: c.ID, AvailableSeats: 9, TotalEnrolled: 1}, result.Classes[0])
	assert.Equal(t, int64(1), result.CartItemsRemoved)
	assert.False(t, result.Replayed)

	enrollments := store.Enrollments()
	require.Len(t, enrollments, 1)
	assert.Equal(t, payer, enrollments[0].UserEmail)
	assert.Equal(t, []uuid.UUID{c.ID}, enrollments[0].ClassIDs)
	assert.Equal(t, "pi_001", enrollments[0].TransactionID)

	payments := store.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, 49.0, payments[0].Amount)
	assert.JSONEq(t, `{"card":"visa"}`, string(payments[0].Metadata))

	assert.Empty(t, store.CartItems(payer))
	assert.Len(t, store.CartItems("other@sims.io"), 1, "other users' carts are untouched")

	intent, ok := store.Intent("pi_001")
	require.True(t, ok)
	assert.Equal(t, model.IntentStatusCommitted, intent.Status)
	assert.Equal(t, 1, notifier.count())
}

func TestCommit_SequentialPurchasesMoveCountersByN(t *testing.T) {
	svc, store, _ := newTestEnrollmentService(t)
	c := seedClass(store, "Go Basics", 5, 0)

	for i := 0; i < 3; i++ {
		_, err := svc.Commit(context.Background(), purchaseOf(fmt.Sprintf("pi_%d", i), c.ID))
		require.NoError(t, err)
	}

	got, _ := store.Class(c.ID)
	assert.Equal(t, 2, got.AvailableSeats)
	assert.Equal(t, 3, got.TotalEnrolled)
	assert.Len(t, store.Enrollments(), 3)
	assert.Len(t, store.Payments(), 3)
}

func TestCommit_ResubmitIsReplayedWithoutSecondDecrement(t *testing.T) {
	svc, store, notifier := newTestEnrollmentService(t)
	c := seedClass(store, "Go Basics", 10, 0)

	first, err := svc.Commit(context.Background(), purchaseOf("pi_dup", c.ID))
	require.NoError(t, err)

	second, err := svc.Commit(context.Background(), purchaseOf("pi_dup", c.ID))
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Enrollment.ID, second.Enrollment.ID)
	assert.Equal(t, first.Payment.ID, second.Payment.ID)

	got, _ := store.Class(c.ID)
	assert.Equal(t, 9, got.AvailableSeats)
	assert.Equal(t, 1, got.TotalEnrolled)
	assert.Len(t, store.Enrollments(), 1)
	assert.Len(t, store.Payments(), 1)
	assert.Equal(t, 1, notifier.count(), "replays are not notified")
}

func TestCommit_TransactionIDOfAnotherPayerConflicts(t *testing.T) {
	svc, store, _ := newTestEnrollmentService(t)
	c := seedClass(store, "Go Basics", 10, 0)

	_, err := svc.Commit(context.Background(), purchaseOf("pi_shared", c.ID))
	require.NoError(t, err)

	req := purchaseOf("pi_shared", c.ID)
	req.UserEmail = "intruder@sims.io"
	_, err = svc.Commit(context.Background(), req)
	assert.ErrorIs(t, err, ErrIdempotencyConflict)

	got, _ := store.Class(c.ID)
	assert.Equal(t, 1, got.TotalEnrolled)
}

func TestCommit_PendingIntentIsInProgress(t *testing.T) {
	svc, store, _ := newTestEnrollmentService(t)
	c := seedClass(store, "Go Basics", 10, 0)
	store.PutIntent(model.PurchaseIntent{
		TransactionID: "pi_busy",
		UserEmail:     payer,
		Status:        model.IntentStatusPending,
	})

	_, err := svc.Commit(context.Background(), purchaseOf("pi_busy", c.ID))
	assert.ErrorIs(t, err, ErrCommitInProgress)

	got, _ := store.Class(c.ID)
	assert.Equal(t, 10, got.AvailableSeats)
}

func TestCommit_ConcurrentBuyersOfLastSeat(t *testing.T) {
	svc, store, _ := newTestEnrollmentService(t)
	c := seedClass(store, "Last Seat", 1, 9)

	const buyers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		full      int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := purchaseOf(fmt.Sprintf("pi_race_%d", i), c.ID)
			req.UserEmail = fmt.Sprintf("buyer%d@sims.io", i)
			_, err := svc.Commit(context.Background(), req)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrClassFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, buyers-1, full)

	got, _ := store.Class(c.ID)
	assert.Equal(t, 0, got.AvailableSeats)
	assert.Equal(t, 10, got.TotalEnrolled)
	assert.Len(t, store.Enrollments(), 1)
	assert.Len(t, store.Payments(), 1)
}

func TestCommit_UnknownClassWritesNothing(t *testing.T) {
	svc, store, notifier := newTestEnrollmentService(t)
	c := seedClass(store, "Go Basics", 10, 0)
	ghost := uuid.New()

	_, err := svc.Commit(context.Background(), purchaseOf("pi_ghost", c.ID, ghost))
	require.ErrorIs(t, err, ErrClassNotFound)

	var ce *CommitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []uuid.UUID{ghost}, ce.ClassIDs)

	got, _ := store.Class(c.ID)
	assert.Equal(t, 10, got.AvailableSeats)
	assert.Empty(t, store.Enrollments())
	assert.Empty(t, store.Payments())
	assert.Zero(t, notifier.count())

	intent, _ := store.Intent("pi_ghost")
	assert.Equal(t, model.IntentStatusFailed, intent.Status)
	assert.Equal(t, FailureClassNotFound, intent.FailureCode)
}

func TestCommit_MultiClassMovesEachClassOnce(t *testing.T) {
	svc, store, _ := newTestEnrollmentService(t)
	a := seedClass(store, "A", 10, 0)
	b := seedClass(store, "B", 4, 2)
	store.PutCartItem(payer, a.ID)
	store.PutCartItem(payer, b.ID)

	req := purchaseOf("pi_multi", a.ID, b.ID, a.ID)
	result, err := svc.Commit(context.Background(), req)
	require.NoError(t, err)

	gotA, _ := store.Class(a.ID)
	gotB, _ := store.Class(b.ID)
	assert.Equal(t, 9, gotA.AvailableSeats)
	assert.Equal(t, 1, gotA.TotalEnrolled)
	assert.Equal(t, 3, gotB.AvailableSeats)
	assert.Equal(t, 3, gotB.TotalEnrolled)

	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, result.Enrollment.ClassIDs, "duplicates collapse in first-seen order")
	assert.Equal(t, int64(2), result.CartItemsRemoved)
	require.Len(t, result.Classes, 2)
	assert.Equal(t, a.ID, result.Classes[0].ClassID)
	assert.Equal(t, b.ID, result.Classes[1].ClassID)
}

func TestCommit_OneFullClassRollsBackTheOthers(t *testing.T) {
	svc, store, _ := newTestEnrollmentService(t)
	open := seedClass(store, "Open", 10, 0)
	closed := seedClass(store, "Closed", 0, 30)

	_, err := svc.Commit(context.Background(), purchaseOf("pi_mixed", open.ID, closed.ID))
	require.ErrorIs(t, err, ErrClassFull)

	var ce *CommitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []uuid.UUID{closed.ID}, ce.ClassIDs)

	got, _ := store.Class(open.ID)
	assert.Equal(t, 10, got.AvailableSeats)
	assert.Equal(t, 0, got.TotalEnrolled)
	assert.Empty(t, store.Enrollments())
}

func TestCommit_StoreFailureLeavesNoPartialWrites(t *testing.T) {
	svc, store, _ := newTestEnrollmentService(t)
	c := seedClass(store, "Go Basics", 10, 0)
	store.PutCartItem(payer, c.ID)

	store.FailOn(memory.OpInsertPayment, errors.New("ledger unavailable"))
	_, err := svc.Commit(context.Background(), purchaseOf("pi_fail", c.ID))
	require.Error(t, err)

	got, _ := store.Class(c.ID)
	assert.Equal(t, 10, got.AvailableSeats)
	assert.Equal(t, 0, got.TotalEnrolled)
	assert.Empty(t, store.Enrollments())
	assert.Empty(t, store.Payments())
	assert.Len(t, store.CartItems(payer), 1)

	intent, _ := store.Intent("pi_fail")
	assert.Equal(t, model.IntentStatusFailed, intent.Status)
	assert.Equal(t, FailureStore, intent.FailureCode)

	// The same transaction id can be retried once the store recovers.
	store.FailOn(memory.OpInsertPayment, nil)
	_, err = svc.Commit(context.Background(), purchaseOf("pi_fail", c.ID))
	require.NoError(t, err)

	got, _ = store.Class(c.ID)
	assert.Equal(t, 9, got.AvailableSeats)
	intent, _ = store.Intent("pi_fail")
	assert.Equal(t, model.IntentStatusCommitted, intent.Status)
	assert.Equal(t, 2, intent.Attempts)
}

func TestCommit_IntentCompletionFailureRollsBack(t *testing.T) {
	svc, store, _ := newTestEnrollmentService(t)
	c := seedClass(store, "Go Basics", 10, 0)

	store.FailOn(memory.OpCompleteIntent, errors.New("write conflict"))
	_, err := svc.Commit(context.Background(), purchaseOf("pi_late", c.ID))
	require.Error(t, err)

	got, _ := store.Class(c.ID)
	assert.Equal(t, 10, got.AvailableSeats)
	assert.Empty(t, store.Payments())
}

func TestCommit_Validation(t *testing.T) {
	svc, store, _ := newTestEnrollmentService(t)
	c := seedClass(store, "Go Basics", 10, 0)
	other := uuid.New()

	tests := []struct {
		name  string
		edit  func(*model.PurchaseRequest)
		field string
	}{
		{"missing payer", func(r *model.PurchaseRequest) { r.UserEmail = "  " }, "user_email"},
		{"empty class set", func(r *model.PurchaseRequest) { r.ClassIDs = nil }, "classes_id"},
		{"malformed class id", func(r *model.PurchaseRequest) { r.ClassIDs = []string{"not-a-uuid"} }, "classes_id"},
		{"missing transaction id", func(r *model.PurchaseRequest) { r.TransactionID = "" }, "transaction_id"},
		{"negative price", func(r *model.PurchaseRequest) { r.Amount = -1 }, "price"},
		{"scope outside set", func(r *model.PurchaseRequest) { r.ScopeClassID = other.String() }, "classId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := purchaseOf("pi_valid", c.ID)
			tt.edit(&req)

			_, err := svc.Commit(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidPurchase)

			var ve *PurchaseValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.field)
		})
	}

	got, _ := store.Class(c.ID)
	assert.Equal(t, 10, got.AvailableSeats)
	_, ok := store.Intent("pi_valid")
	assert.False(t, ok, "invalid requests never claim an intent")
}
