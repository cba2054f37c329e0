package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/simsmaster/sims-backend/internal/model"
)

// DashboardRepository handles admin dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// AdminCounts retrieves the five dashboard counters.
func (r *DashboardRepository) AdminCounts(ctx context.Context) (model.AdminStats, error) {
	var s model.AdminStats
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM classes WHERE status = 'approved'),
			(SELECT COUNT(*) FROM classes WHERE status = 'pending'),
			(SELECT COUNT(*) FROM users WHERE LOWER(role) = 'instructor'),
			(SELECT COUNT(*) FROM classes),
			(SELECT COUNT(*) FROM enrollments)`,
	).Scan(&s.ApprovedClasses, &s.PendingClasses, &s.Instructors, &s.TotalClasses, &s.TotalEnrolled)
	return s, err
}
