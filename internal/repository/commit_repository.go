package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/simsmaster/sims-backend/internal/database"
	"github.com/simsmaster/sims-backend/internal/model"
)

var _ CommitStore = (*CommitRepository)(nil)

// CommitRepository implements CommitStore on PostgreSQL. The four commit
// writes and the intent completion share one transaction.
type CommitRepository struct {
	pool *pgxpool.Pool
}

// NewCommitRepository creates a new CommitRepository.
func NewCommitRepository(pool *pgxpool.Pool) *CommitRepository {
	return &CommitRepository{pool: pool}
}

const intentColumns = `transaction_id, user_email, payload, status, failure_code, result, attempts, created_at, updated_at`

func scanIntent(row pgx.Row) (*model.PurchaseIntent, error) {
	i := &model.PurchaseIntent{}
	var result []byte
	if err := row.Scan(&i.TransactionID, &i.UserEmail, &i.Payload, &i.Status, &i.FailureCode,
		&result, &i.Attempts, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	if len(result) > 0 {
		i.Result = result
	}
	return i, nil
}

// ClaimIntent inserts or re-opens the intent in a single statement.
func (r *CommitRepository) ClaimIntent(ctx context.Context, intent model.PurchaseIntent) (*model.PurchaseIntent, bool, error) {
	stored, err := scanIntent(r.pool.QueryRow(ctx,
		`INSERT INTO purchase_intents (transaction_id, user_email, payload)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (transaction_id) DO UPDATE
		   SET status = 'PENDING', failure_code = '', payload = EXCLUDED.payload,
		       attempts = purchase_intents.attempts + 1, updated_at = CURRENT_TIMESTAMP
		   WHERE purchase_intents.status = 'FAILED'
		     AND purchase_intents.user_email = EXCLUDED.user_email
		 RETURNING `+intentColumns,
		intent.TransactionID, intent.UserEmail, intent.Payload,
	))
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("claim intent: %w", err)
	}

	// Conflict without update: the intent exists and is not re-openable.
	existing, err := scanIntent(r.pool.QueryRow(ctx,
		`SELECT `+intentColumns+` FROM purchase_intents WHERE transaction_id = $1`,
		intent.TransactionID,
	))
	if err != nil {
		return nil, false, fmt.Errorf("load intent: %w", err)
	}
	return existing, false, nil
}

// FailIntent marks a pending intent as failed.
func (r *CommitRepository) FailIntent(ctx context.Context, transactionID, code string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE purchase_intents SET status = 'FAILED', failure_code = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE transaction_id = $1 AND status = 'PENDING'`,
		transactionID, code,
	)
	return err
}

// ListStaleIntents returns pending intents idle since olderThan, oldest first.
func (r *CommitRepository) ListStaleIntents(ctx context.Context, olderThan time.Time, limit int) ([]model.PurchaseIntent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+intentColumns+` FROM purchase_intents
		 WHERE status = 'PENDING' AND updated_at < $1
		 ORDER BY updated_at LIMIT $2`,
		olderThan, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intents []model.PurchaseIntent
	for rows.Next() {
		i, err := scanIntent(rows)
		if err != nil {
			return nil, err
		}
		intents = append(intents, *i)
	}
	return intents, rows.Err()
}

// ReclaimStaleIntent takes ownership of a stale intent for one replay.
func (r *CommitRepository) ReclaimStaleIntent(ctx context.Context, transactionID string, olderThan time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE purchase_intents SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE transaction_id = $1 AND status = 'PENDING' AND updated_at < $2`,
		transactionID, olderThan,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// RunCommit opens the transaction that carries every commit write.
func (r *CommitRepository) RunCommit(ctx context.Context, fn func(CommitTx) error) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgCommitTx{tx: tx})
	})
}

type pgCommitTx struct {
	tx pgx.Tx
}

// LockClasses takes row locks in id order so concurrent multi-class
// purchases cannot deadlock each other.
func (t *pgCommitTx) LockClasses(ctx context.Context, ids []uuid.UUID) ([]model.Class, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	return collectClasses(rows)
}

func (t *pgCommitTx) ReserveSeats(ctx context.Context, ids []uuid.UUID) ([]model.SeatSnapshot, error) {
	rows, err := t.tx.Query(ctx,
		`UPDATE classes
		 SET total_enrolled = total_enrolled + 1,
		     available_seats = available_seats - 1,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ANY($1) AND available_seats > 0
		 RETURNING id, available_seats, total_enrolled`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.SeatSnapshot
	for rows.Next() {
		var s model.SeatSnapshot
		if err := rows.Scan(&s.ClassID, &s.AvailableSeats, &s.TotalEnrolled); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (t *pgCommitTx) InsertEnrollment(ctx context.Context, e *model.Enrollment) error {
	return t.tx.QueryRow(ctx,
		`INSERT INTO enrollments (user_email, class_ids, transaction_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		e.UserEmail, e.ClassIDs, e.TransactionID,
	).Scan(&e.ID, &e.CreatedAt)
}

func (t *pgCommitTx) DeleteCartItems(ctx context.Context, userEmail string, classIDs []uuid.UUID) (int64, error) {
	tag, err := t.tx.Exec(ctx,
		`DELETE FROM cart_items WHERE user_email = $1 AND class_id = ANY($2)`,
		userEmail, classIDs,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *pgCommitTx) InsertPayment(ctx context.Context, p *model.Payment) error {
	metadata := p.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	return t.tx.QueryRow(ctx,
		`INSERT INTO payments (user_email, class_ids, transaction_id, amount, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		p.UserEmail, p.ClassIDs, p.TransactionID, p.Amount, metadata,
	).Scan(&p.ID, &p.CreatedAt)
}

func (t *pgCommitTx) CompleteIntent(ctx context.Context, transactionID string, result json.RawMessage) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE purchase_intents SET status = 'COMMITTED', result = $2, updated_at = CURRENT_TIMESTAMP
		 WHERE transaction_id = $1 AND status = 'PENDING'`,
		transactionID, result,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrIntentNotPending
	}
	return nil
}
