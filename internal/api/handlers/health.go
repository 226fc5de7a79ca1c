package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/altura-labs/recommendation/internal/health"
	"github.com/altura-labs/recommendation/internal/models"
	"github.com/gin-gonic/gin"
)

type HealthReporter interface {
	CheckAll(ctx context.Context) models.HealthResponse
}

type HealthHandler struct {
	checker HealthReporter
}

func NewHealthHandler(checker HealthReporter) *HealthHandler {
	return &HealthHandler{checker: checker}
}

func (h *HealthHandler) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result := h.checker.CheckAll(ctx)

	status := http.StatusOK
	if result.Status != health.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}
