package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"hrdesk/internal/domain"
	"hrdesk/internal/email"
	"hrdesk/internal/repository"
)

var (
	ErrLeaveNotConfigured  = errors.New("leave service not configured")
	ErrLeaveInvalidInput   = errors.New("leave invalid input")
	ErrLeaveInvalidStatus  = errors.New("leave invalid status")
	ErrLeaveAlreadyDecided = errors.New("leave already decided")
	ErrLeaveNotFound       = errors.New("leave not found")
)

// LeaveService encapsula el ciclo de vida de solicitudes de licencia.
type LeaveService struct {
	logger    *zap.Logger
	leaves    repository.LeaveRepository
	employees repository.EmployeeRepository
	sender    email.Sender
}

func NewLeaveService(logger *zap.Logger, leaves repository.LeaveRepository, employees repository.EmployeeRepository, sender email.Sender) *LeaveService {
	return &LeaveService{
		logger:    logger,
		leaves:    leaves,
		employees: employees,
		sender:    sender,
	}
}

func (s *LeaveService) Submit(ctx context.Context, lv domain.LeaveRequest) (domain.LeaveRequest, error) {
	if s == nil || s.leaves == nil {
		return domain.LeaveRequest{}, ErrLeaveNotConfigured
	}

	lv.EmployeeID = strings.TrimSpace(lv.EmployeeID)
	lv.Reason = strings.TrimSpace(lv.Reason)

	if lv.EmployeeID == "" || lv.StartDate.IsZero() || lv.EndDate.IsZero() {
		return domain.LeaveRequest{}, ErrLeaveInvalidInput
	}
	if lv.EndDate.Before(lv.StartDate) {
		return domain.LeaveRequest{}, ErrLeaveInvalidInput
	}

	if s.employees != nil {
		if _, err := s.employees.GetByID(ctx, lv.EmployeeID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.LeaveRequest{}, ErrLeaveInvalidInput
			}
			return domain.LeaveRequest{}, err
		}
	}

	if lv.ID == "" {
		lv.ID = uuid.NewString()
	}
	lv.Status = domain.LeaveStatusPending
	lv.DecisionNote = ""
	lv.DecidedAt = nil
	if lv.CreatedAt.IsZero() {
		lv.CreatedAt = time.Now().UTC()
	}

	if err := s.leaves.Create(ctx, lv); err != nil {
		return domain.LeaveRequest{}, err
	}
	return lv, nil
}

func (s *LeaveService) Decide(ctx context.Context, id, status, note string) (domain.LeaveRequest, error) {
	if s == nil || s.leaves == nil {
		return domain.LeaveRequest{}, ErrLeaveNotConfigured
	}

	status = strings.ToLower(strings.TrimSpace(status))
	if status != domain.LeaveStatusApproved && status != domain.LeaveStatusRejected {
		return domain.LeaveRequest{}, ErrLeaveInvalidStatus
	}

	lv, err := s.leaves.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LeaveRequest{}, ErrLeaveNotFound
		}
		return domain.LeaveRequest{}, err
	}
	if lv.Status != domain.LeaveStatusPending {
		return domain.LeaveRequest{}, ErrLeaveAlreadyDecided
	}

	now := time.Now().UTC()
	note = strings.TrimSpace(note)
	if err := s.leaves.UpdateStatus(ctx, lv.ID, status, note, now); err != nil {
		return domain.LeaveRequest{}, err
	}

	lv.Status = status
	lv.DecisionNote = note
	lv.DecidedAt = &now
	return lv, nil
}

func (s *LeaveService) ListByEmployee(ctx context.Context, employeeID string) ([]domain.LeaveRequest, error) {
	if s == nil || s.leaves == nil {
		return nil, ErrLeaveNotConfigured
	}
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return s.leaves.List(ctx)
	}
	return s.leaves.ListByEmployee(ctx, employeeID)
}

// NotifyDecision avisa por correo al empleado; los fallos solo se loguean,
// la decisión ya quedó persistida.
func (s *LeaveService) NotifyDecision(ctx context.Context, lv domain.LeaveRequest) error {
	if s == nil || s.sender == nil || s.employees == nil {
		return nil
	}
	emp, err := s.employees.GetByID(ctx, lv.EmployeeID)
	if err != nil {
		return err
	}
	return s.sender.SendLeaveDecision(ctx, emp.Email, emp.FullName, lv.Status, lv.DecisionNote)
}
