package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hrdesk/internal/domain"
	"hrdesk/internal/repository"
)

type DepartmentHandler struct {
	logger *zap.Logger
	repo   repository.DepartmentRepository
}

func NewDepartmentHandler(logger *zap.Logger, repo repository.DepartmentRepository) *DepartmentHandler {
	return &DepartmentHandler{logger: logger, repo: repo}
}

// Create maneja POST /departments.
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	dep := domain.Department{
		ID:        uuid.NewString(),
		Name:      req.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.repo.Create(c.Request.Context(), dep); err != nil {
		h.logger.Error("create department failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create department"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"department": dep})
}

// List maneja GET /departments.
func (h *DepartmentHandler) List(c *gin.Context) {
	departments, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list departments failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list departments"})
		return
	}
	if departments == nil {
		departments = []domain.Department{}
	}
	c.JSON(http.StatusOK, gin.H{"departments": departments})
}
