package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/simsmaster/sims-backend/internal/model"
)

// EnrollmentRepository handles read access to enrollment records.
type EnrollmentRepository struct {
	pool *pgxpool.Pool
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(pool *pgxpool.Pool) *EnrollmentRepository {
	return &EnrollmentRepository{pool: pool}
}

// ListClassesByEmail joins a payer's enrollments with the catalog, one row per
// (enrollment, class), newest enrollment first.
func (r *EnrollmentRepository) ListClassesByEmail(ctx context.Context, email string) ([]model.EnrolledClass, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.transaction_id, e.created_at,
		        c.id, c.class_name, c.image_url, c.description, c.video_link, c.instructor_name, c.instructor_email,
		        c.available_seats, c.total_enrolled, c.price, c.status, c.reason, c.created_at, c.updated_at
		 FROM enrollments e
		 CROSS JOIN LATERAL unnest(e.class_ids) WITH ORDINALITY AS ec(class_id, pos)
		 JOIN classes c ON c.id = ec.class_id
		 WHERE e.user_email = $1
		 ORDER BY e.created_at DESC, ec.pos`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EnrolledClass
	for rows.Next() {
		var ec model.EnrolledClass
		c := &ec.Class
		if err := rows.Scan(&ec.EnrollmentID, &ec.TransactionID, &ec.EnrolledAt,
			&c.ID, &c.ClassName, &c.ImageURL, &c.Description, &c.VideoLink, &c.InstructorName, &c.InstructorEmail,
			&c.AvailableSeats, &c.TotalEnrolled, &c.Price, &c.Status, &c.Reason, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}
