package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrdesk/internal/domain"
)

type DashboardRepository interface {
	Summary(ctx context.Context) (domain.DashboardSummary, error)
}

type PgDashboardRepository struct {
	pool *pgxpool.Pool
}

func NewPgDashboardRepository(pool *pgxpool.Pool) *PgDashboardRepository {
	return &PgDashboardRepository{pool: pool}
}

func (r *PgDashboardRepository) Summary(ctx context.Context) (domain.DashboardSummary, error) {
	const query = `
		SELECT
			(SELECT count(*) FROM employees),
			(SELECT count(*) FROM departments),
			(SELECT count(*) FROM leave_requests WHERE status = 'pending')
	`

	var s domain.DashboardSummary
	err := r.pool.QueryRow(ctx, query).Scan(&s.Employees, &s.Departments, &s.PendingLeaves)
	if err != nil {
		return domain.DashboardSummary{}, err
	}
	return s, nil
}
