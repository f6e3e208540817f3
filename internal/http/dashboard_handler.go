package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hrdesk/internal/repository"
)

type DashboardHandler struct {
	logger *zap.Logger
	repo   repository.DashboardRepository
}

func NewDashboardHandler(logger *zap.Logger, repo repository.DashboardRepository) *DashboardHandler {
	return &DashboardHandler{logger: logger, repo: repo}
}

// Summary maneja GET /dashboard/summary.
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.repo.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("dashboard summary failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load summary"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
