package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/utils"
	"go.uber.org/zap"
)

// HealthCheck pings one dependency
type HealthCheck func(ctx context.Context) error

// HealthHandlers reports the state of the service dependencies
type HealthHandlers struct {
	logger  *logging.SafeLogger
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthHandlers creates a new health handlers instance
func NewHealthHandlers(logger *logging.SafeLogger, checks map[string]HealthCheck) *HealthHandlers {
	return &HealthHandlers{
		logger:  logger,
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

// Health godoc
// @Summary Verificar saude do servico
// @Description Verifica a conexao com MongoDB e Redis
// @Tags Health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *HealthHandlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	health := models.HealthResponse{Status: "healthy", Services: make(map[string]string, len(h.checks))}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		checkCtx, span := utils.TraceExternalService(ctx, name, "ping")
		err := h.checks[name](checkCtx)
		span.End()
		if err != nil {
			h.logger.Error("health check failed", zap.String("service", name), zap.Error(err))
			health.Status = "unhealthy"
			health.Services[name] = "unhealthy"
			continue
		}
		health.Services[name] = "healthy"
	}

	if health.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	c.JSON(http.StatusOK, health)
}
