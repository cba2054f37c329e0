package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/simsmaster/sims-backend/internal/model"
)

// CartRepository handles cart data access.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository creates a new CartRepository.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Add inserts a cart item. A second add of the same class is ErrDuplicate.
func (r *CartRepository) Add(ctx context.Context, item *model.CartItem) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO cart_items (user_email, class_id) VALUES ($1, $2)
		 RETURNING id, created_at`,
		item.UserEmail, item.ClassID,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrDuplicate
			case "23503":
				return ErrNotFound
			}
		}
		return err
	}
	return nil
}

// Exists reports whether the user has the class in their cart.
func (r *CartRepository) Exists(ctx context.Context, userEmail string, classID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cart_items WHERE user_email = $1 AND class_id = $2)`,
		userEmail, classID,
	).Scan(&exists)
	return exists, err
}

// ListClasses retrieves the classes in a user's cart, most recently added first.
func (r *CartRepository) ListClasses(ctx context.Context, userEmail string) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.class_name, c.image_url, c.description, c.video_link, c.instructor_name, c.instructor_email,
		        c.available_seats, c.total_enrolled, c.price, c.status, c.reason, c.created_at, c.updated_at
		 FROM cart_items ci
		 JOIN classes c ON c.id = ci.class_id
		 WHERE ci.user_email = $1
		 ORDER BY ci.created_at DESC`, userEmail)
	if err != nil {
		return nil, err
	}
	return collectClasses(rows)
}

// Delete removes one of the user's cart items by class.
func (r *CartRepository) Delete(ctx context.Context, userEmail string, classID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_email = $1 AND class_id = $2`, userEmail, classID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
