package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrdesk/internal/domain"
)

// LeaveRepository define el contrato de persistencia para licencias.
type LeaveRepository interface {
	Create(ctx context.Context, lv domain.LeaveRequest) error
	GetByID(ctx context.Context, id string) (domain.LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]domain.LeaveRequest, error)
	List(ctx context.Context) ([]domain.LeaveRequest, error)
	UpdateStatus(ctx context.Context, id, status, note string, decidedAt time.Time) error
}

type PgLeaveRepository struct {
	pool *pgxpool.Pool
}

func NewPgLeaveRepository(pool *pgxpool.Pool) *PgLeaveRepository {
	return &PgLeaveRepository{pool: pool}
}

func (r *PgLeaveRepository) Create(ctx context.Context, lv domain.LeaveRequest) error {
	const query = `
		INSERT INTO leave_requests (id, employee_id, start_date, end_date, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		lv.ID,
		lv.EmployeeID,
		lv.StartDate,
		lv.EndDate,
		lv.Reason,
		lv.Status,
		lv.CreatedAt,
	)
	return err
}

func (r *PgLeaveRepository) GetByID(ctx context.Context, id string) (domain.LeaveRequest, error) {
	const query = `
		SELECT id, employee_id, start_date, end_date, reason, status, decision_note, decided_at, created_at
		FROM leave_requests
		WHERE id = $1
	`

	var lv domain.LeaveRequest
	var note *string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&lv.ID,
		&lv.EmployeeID,
		&lv.StartDate,
		&lv.EndDate,
		&lv.Reason,
		&lv.Status,
		&note,
		&lv.DecidedAt,
		&lv.CreatedAt,
	)
	if err != nil {
		return domain.LeaveRequest{}, err
	}
	if note != nil {
		lv.DecisionNote = *note
	}
	return lv, nil
}

func (r *PgLeaveRepository) ListByEmployee(ctx context.Context, employeeID string) ([]domain.LeaveRequest, error) {
	const query = `
		SELECT id, employee_id, start_date, end_date, reason, status, decision_note, decided_at, created_at
		FROM leave_requests
		WHERE employee_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeaves(rows)
}

func (r *PgLeaveRepository) List(ctx context.Context) ([]domain.LeaveRequest, error) {
	const query = `
		SELECT id, employee_id, start_date, end_date, reason, status, decision_note, decided_at, created_at
		FROM leave_requests
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLeaves(rows)
}

func (r *PgLeaveRepository) UpdateStatus(ctx context.Context, id, status, note string, decidedAt time.Time) error {
	const query = `
		UPDATE leave_requests
		SET status = $2, decision_note = $3, decided_at = $4
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, status, note, decidedAt)
	return err
}

func scanLeaves(rows pgx.Rows) ([]domain.LeaveRequest, error) {
	var leaves []domain.LeaveRequest
	for rows.Next() {
		var lv domain.LeaveRequest
		var note *string
		err := rows.Scan(
			&lv.ID,
			&lv.EmployeeID,
			&lv.StartDate,
			&lv.EndDate,
			&lv.Reason,
			&lv.Status,
			&note,
			&lv.DecidedAt,
			&lv.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if note != nil {
			lv.DecisionNote = *note
		}
		leaves = append(leaves, lv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leaves, nil
}
