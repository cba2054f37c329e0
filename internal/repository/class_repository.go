package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/simsmaster/sims-backend/internal/model"
)

const classColumns = `id, class_name, image_url, description, video_link, instructor_name, instructor_email,
	available_seats, total_enrolled, price, status, reason, created_at, updated_at`

func scanClass(row pgx.Row, c *model.Class) error {
	return row.Scan(&c.ID, &c.ClassName, &c.ImageURL, &c.Description, &c.VideoLink,
		&c.InstructorName, &c.InstructorEmail, &c.AvailableSeats, &c.TotalEnrolled,
		&c.Price, &c.Status, &c.Reason, &c.CreatedAt, &c.UpdatedAt)
}

func collectClasses(rows pgx.Rows) ([]model.Class, error) {
	defer rows.Close()

	var classes []model.Class
	for rows.Next() {
		var c model.Class
		if err := scanClass(rows, &c); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

// ClassRepository handles catalog data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

// GetByID retrieves a class by its ID.
func (r *ClassRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Class, error) {
	c := &model.Class{}
	err := scanClass(r.pool.QueryRow(ctx,
		`SELECT `+classColumns+` FROM classes WHERE id = $1`, id), c)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListAll retrieves every class regardless of status.
func (r *ClassRepository) ListAll(ctx context.Context) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+classColumns+` FROM classes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectClasses(rows)
}

// ListByStatus retrieves classes in one review state.
func (r *ClassRepository) ListByStatus(ctx context.Context, status model.ClassStatus) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+classColumns+` FROM classes WHERE status = $1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	return collectClasses(rows)
}

// ListByInstructor retrieves classes owned by an instructor email.
func (r *ClassRepository) ListByInstructor(ctx context.Context, email string) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+classColumns+` FROM classes WHERE instructor_email = $1 ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	return collectClasses(rows)
}

// Create inserts a new class with zero enrollments.
func (r *ClassRepository) Create(ctx context.Context, c *model.Class) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO classes (class_name, image_url, description, video_link, instructor_name, instructor_email,
		                      available_seats, total_enrolled, price, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
		 RETURNING id, total_enrolled, created_at, updated_at`,
		c.ClassName, c.ImageURL, c.Description, c.VideoLink, c.InstructorName, c.InstructorEmail,
		c.AvailableSeats, c.Price, c.Status,
	).Scan(&c.ID, &c.TotalEnrolled, &c.CreatedAt, &c.UpdatedAt)
}

// Update modifies the instructor-editable fields of a class.
func (r *ClassRepository) Update(ctx context.Context, c *model.Class) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE classes SET class_name = $1, price = $2, instructor_name = $3, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $4`,
		c.ClassName, c.Price, c.InstructorName, c.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus records an admin review decision.
func (r *ClassRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ClassStatus, reason *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE classes SET status = $1, reason = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`,
		status, reason, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
