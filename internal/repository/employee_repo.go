package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrdesk/internal/domain"
)

// EmployeeRepository define el contrato de persistencia para empleados.
type EmployeeRepository interface {
	Create(ctx context.Context, emp domain.Employee) error
	GetByID(ctx context.Context, id string) (domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (domain.Employee, error)
	List(ctx context.Context) ([]domain.Employee, error)
}

// PgEmployeeRepository implementa EmployeeRepository usando pgxpool.
type PgEmployeeRepository struct {
	pool *pgxpool.Pool
}

func NewPgEmployeeRepository(pool *pgxpool.Pool) *PgEmployeeRepository {
	return &PgEmployeeRepository{pool: pool}
}

func (r *PgEmployeeRepository) Create(ctx context.Context, emp domain.Employee) error {
	const query = `
		INSERT INTO employees (id, full_name, email, role, department_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		emp.ID,
		emp.FullName,
		emp.Email,
		emp.Role,
		emp.DepartmentID,
		emp.PasswordHash,
		emp.CreatedAt,
	)
	return err
}

func (r *PgEmployeeRepository) GetByID(ctx context.Context, id string) (domain.Employee, error) {
	const query = `
		SELECT id, full_name, email, role, department_id, password_hash, created_at
		FROM employees
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *PgEmployeeRepository) GetByEmail(ctx context.Context, email string) (domain.Employee, error) {
	const query = `
		SELECT id, full_name, email, role, department_id, password_hash, created_at
		FROM employees
		WHERE lower(email) = lower($1)
	`
	return r.scanOne(ctx, query, email)
}

func (r *PgEmployeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	const query = `
		SELECT id, full_name, email, role, department_id, password_hash, created_at
		FROM employees
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []domain.Employee
	for rows.Next() {
		var emp domain.Employee
		err = rows.Scan(
			&emp.ID,
			&emp.FullName,
			&emp.Email,
			&emp.Role,
			&emp.DepartmentID,
			&emp.PasswordHash,
			&emp.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

func (r *PgEmployeeRepository) scanOne(ctx context.Context, query string, arg any) (domain.Employee, error) {
	var emp domain.Employee
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&emp.ID,
		&emp.FullName,
		&emp.Email,
		&emp.Role,
		&emp.DepartmentID,
		&emp.PasswordHash,
		&emp.CreatedAt,
	)
	if err != nil {
		return domain.Employee{}, err
	}
	return emp, nil
}
