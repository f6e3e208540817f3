package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrdesk/internal/domain"
)

type DepartmentRepository interface {
	Create(ctx context.Context, dep domain.Department) error
	List(ctx context.Context) ([]domain.Department, error)
}

type PgDepartmentRepository struct {
	pool *pgxpool.Pool
}

func NewPgDepartmentRepository(pool *pgxpool.Pool) *PgDepartmentRepository {
	return &PgDepartmentRepository{pool: pool}
}

func (r *PgDepartmentRepository) Create(ctx context.Context, dep domain.Department) error {
	const query = `
		INSERT INTO departments (id, name, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.pool.Exec(ctx, query, dep.ID, dep.Name, dep.CreatedAt)
	return err
}

func (r *PgDepartmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	const query = `
		SELECT id, name, created_at
		FROM departments
		ORDER BY name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []domain.Department
	for rows.Next() {
		var dep domain.Department
		if err = rows.Scan(&dep.ID, &dep.Name, &dep.CreatedAt); err != nil {
			return nil, err
		}
		departments = append(departments, dep)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return departments, nil
}
