package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"hrdesk/internal/domain"
	"hrdesk/internal/repository"
)

var (
	ErrAuthNotConfigured      = errors.New("auth service not configured")
	ErrAuthInvalidCredentials = errors.New("auth invalid credentials")
	ErrAuthTooManyAttempts    = errors.New("auth too many attempts")
)

// LoginRateLimiter limita intentos de login por clave (email normalizado).
type LoginRateLimiter interface {
	Allow(key string) bool
}

// AuthService resuelve credenciales contra el repositorio de empleados.
type AuthService struct {
	logger  *zap.Logger
	repo    repository.EmployeeRepository
	limiter LoginRateLimiter
}

func NewAuthService(logger *zap.Logger, repo repository.EmployeeRepository, limiter LoginRateLimiter) *AuthService {
	return &AuthService{
		logger:  logger,
		repo:    repo,
		limiter: limiter,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Employee, error) {
	if s == nil || s.repo == nil {
		return domain.Employee{}, ErrAuthNotConfigured
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.Employee{}, ErrAuthInvalidCredentials
	}
	if s.limiter != nil && !s.limiter.Allow(email) {
		return domain.Employee{}, ErrAuthTooManyAttempts
	}

	emp, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Employee{}, ErrAuthInvalidCredentials
		}
		return domain.Employee{}, err
	}
	if emp.PasswordHash == "" {
		return domain.Employee{}, ErrAuthInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)); err != nil {
		return domain.Employee{}, ErrAuthInvalidCredentials
	}
	return emp, nil
}

// HashPassword genera el hash bcrypt que se persiste con el empleado.
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrAuthInvalidCredentials
	}
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}
