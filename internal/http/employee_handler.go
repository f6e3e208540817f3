package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"hrdesk/internal/domain"
	"hrdesk/internal/repository"
	"hrdesk/internal/service"
)

// EmployeeHandler mantiene dependencias para el ABM de empleados.
type EmployeeHandler struct {
	logger *zap.Logger
	repo   repository.EmployeeRepository
}

func NewEmployeeHandler(logger *zap.Logger, repo repository.EmployeeRepository) *EmployeeHandler {
	return &EmployeeHandler{logger: logger, repo: repo}
}

// Create maneja POST /employees.
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req struct {
		FullName     string  `json:"full_name" binding:"required"`
		Email        string  `json:"email" binding:"required,email"`
		Password     string  `json:"password" binding:"required,min=8"`
		Role         string  `json:"role"`
		DepartmentID *string `json:"department_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	hash, err := service.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}

	emp := domain.Employee{
		ID:           uuid.NewString(),
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.repo.Create(c.Request.Context(), emp); err != nil {
		h.logger.Error("create employee failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create employee"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"employee": emp})
}

// Get maneja GET /employees/:id.
func (h *EmployeeHandler) Get(c *gin.Context) {
	emp, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
			return
		}
		h.logger.Error("get employee failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load employee"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": emp})
}

// List maneja GET /employees.
func (h *EmployeeHandler) List(c *gin.Context) {
	employees, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list employees failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list employees"})
		return
	}
	if employees == nil {
		employees = []domain.Employee{}
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}
