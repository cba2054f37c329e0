package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/simsmaster/sims-backend/internal/model"
)

// PaymentRepository handles read access to payment receipts. Receipts are
// written only by the commit transaction.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// ListByEmail retrieves a payer's receipts, newest first.
func (r *PaymentRepository) ListByEmail(ctx context.Context, email string) ([]model.Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_email, class_ids, transaction_id, amount, metadata, created_at
		 FROM payments WHERE user_email = $1
		 ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.UserEmail, &p.ClassIDs, &p.TransactionID, &p.Amount, &p.Metadata, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// CountByEmail counts a payer's receipts.
func (r *PaymentRepository) CountByEmail(ctx context.Context, email string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments WHERE user_email = $1`, email).Scan(&count)
	return count, err
}
