package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/simsmaster/sims-backend/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("record already exists")
	// ErrIntentNotPending is returned when a purchase intent was completed or
	// failed by someone else while the current commit was running.
	ErrIntentNotPending = errors.New("purchase intent is no longer pending")
)

// CommitStore is the storage boundary of the enrollment commit path.
// The PostgreSQL implementation lives in this package, the in-memory one in
// repository/memory.
type CommitStore interface {
	// ClaimIntent inserts a PENDING intent or re-opens a FAILED one for the same
	// payer. When the intent exists in any other state it is returned with
	// claimed=false and left untouched.
	ClaimIntent(ctx context.Context, intent model.PurchaseIntent) (stored *model.PurchaseIntent, claimed bool, err error)

	// FailIntent moves a PENDING intent to FAILED with a machine-readable code.
	FailIntent(ctx context.Context, transactionID, code string) error

	// ListStaleIntents returns PENDING intents not touched since olderThan.
	ListStaleIntents(ctx context.Context, olderThan time.Time, limit int) ([]model.PurchaseIntent, error)

	// ReclaimStaleIntent bumps a stale PENDING intent so exactly one recovery
	// attempt owns it. claimed=false means another process got there first.
	ReclaimStaleIntent(ctx context.Context, transactionID string, olderThan time.Time) (claimed bool, err error)

	// RunCommit executes fn as one atomic unit. Any error from fn discards
	// every write fn made.
	RunCommit(ctx context.Context, fn func(CommitTx) error) error
}

// CommitTx is the set of writes one purchase performs atomically.
type CommitTx interface {
	// LockClasses re-reads the given classes and holds them until the unit ends.
	// Missing ids are simply absent from the result.
	LockClasses(ctx context.Context, ids []uuid.UUID) ([]model.Class, error)

	// ReserveSeats applies total_enrolled+1 / available_seats-1 to every class
	// in ids that still has a free seat and returns the new counters of the
	// classes it updated.
	ReserveSeats(ctx context.Context, ids []uuid.UUID) ([]model.SeatSnapshot, error)

	InsertEnrollment(ctx context.Context, e *model.Enrollment) error

	// DeleteCartItems removes the payer's cart items for the given classes.
	DeleteCartItems(ctx context.Context, userEmail string, classIDs []uuid.UUID) (int64, error)

	InsertPayment(ctx context.Context, p *model.Payment) error

	// CompleteIntent marks the intent COMMITTED with its result. It returns
	// ErrIntentNotPending when the intent left the PENDING state.
	CompleteIntent(ctx context.Context, transactionID string, result json.RawMessage) error
}
