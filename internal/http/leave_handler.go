package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hrdesk/internal/domain"
	"hrdesk/internal/service"
)

// LeaveHandler mantiene dependencias para solicitudes de licencia.
type LeaveHandler struct {
	logger *zap.Logger
	svc    *service.LeaveService
}

func NewLeaveHandler(logger *zap.Logger, svc *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{logger: logger, svc: svc}
}

// Submit maneja POST /leaves.
func (h *LeaveHandler) Submit(c *gin.Context) {
	var req struct {
		EmployeeID string    `json:"employee_id" binding:"required"`
		StartDate  time.Time `json:"start_date" binding:"required"`
		EndDate    time.Time `json:"end_date" binding:"required"`
		Reason     string    `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	lv, err := h.svc.Submit(c.Request.Context(), domain.LeaveRequest{
		EmployeeID: req.EmployeeID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Reason:     req.Reason,
	})
	if err != nil {
		if errors.Is(err, service.ErrLeaveInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid leave request"})
			return
		}
		h.logger.Error("submit leave failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit leave"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"leave": lv})
}

// Decide maneja POST /leaves/:id/decision.
func (h *LeaveHandler) Decide(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	lv, err := h.svc.Decide(c.Request.Context(), c.Param("id"), req.Status, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLeaveNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "leave not found"})
		case errors.Is(err, service.ErrLeaveInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		case errors.Is(err, service.ErrLeaveAlreadyDecided):
			c.JSON(http.StatusConflict, gin.H{"error": "leave already decided"})
		default:
			h.logger.Error("decide leave failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decide leave"})
		}
		return
	}

	// La notificación va en background para no bloquear la respuesta.
	go func(lv domain.LeaveRequest) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.svc.NotifyDecision(ctx, lv); err != nil {
			h.logger.Warn("leave notification failed", zap.String("leave_id", lv.ID), zap.Error(err))
		}
	}(lv)

	c.JSON(http.StatusOK, gin.H{"leave": lv})
}

// List maneja GET /leaves.
func (h *LeaveHandler) List(c *gin.Context) {
	leaves, err := h.svc.ListByEmployee(c.Request.Context(), c.Query("employee_id"))
	if err != nil {
		h.logger.Error("list leaves failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list leaves"})
		return
	}
	if leaves == nil {
		leaves = []domain.LeaveRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"leaves": leaves})
}
