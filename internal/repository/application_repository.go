package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/simsmaster/sims-backend/internal/model"
)

// ApplicationRepository handles instructor application data access.
type ApplicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(pool *pgxpool.Pool) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

// Create inserts an application. One application per email.
func (r *ApplicationRepository) Create(ctx context.Context, a *model.InstructorApplication) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO instructor_applications (name, email, experience) VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		a.Name, a.Email, a.Experience,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByEmail retrieves the application submitted with an email.
func (r *ApplicationRepository) GetByEmail(ctx context.Context, email string) (*model.InstructorApplication, error) {
	a := &model.InstructorApplication{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, experience, created_at FROM instructor_applications WHERE email = $1`, email,
	).Scan(&a.ID, &a.Name, &a.Email, &a.Experience, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// List retrieves all applications, oldest first.
func (r *ApplicationRepository) List(ctx context.Context) ([]model.InstructorApplication, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, experience, created_at FROM instructor_applications ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []model.InstructorApplication
	for rows.Next() {
		var a model.InstructorApplication
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Experience, &a.CreatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// DeleteByEmail removes the application submitted with an email.
func (r *ApplicationRepository) DeleteByEmail(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM instructor_applications WHERE email = $1`, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
