package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-advisor/internal/aggregator"
	"github.com/vzahanych/weather-advisor/internal/server/utils"
	"go.uber.org/zap"
)

// Dependencies reports provider and cache health.
type Dependencies interface {
	Providers() []aggregator.ProviderStatus
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps      Dependencies
	version   string
	logger    *zap.Logger
	startTime time.Time
}

func NewHealthHandler(deps Dependencies, version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		deps:      deps,
		version:   version,
		logger:    logger,
		startTime: time.Now(),
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

// Readiness fails when the cache backend is unreachable or every provider
// circuit is open.
func (h *HealthHandler) Readiness(c *gin.Context) {
	checks := h.checks(utils.GetContextFromGinContext(c))

	status, code := "ready", http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status, code = "unavailable", http.StatusServiceUnavailable
			break
		}
	}
	if code != http.StatusOK {
		h.logger.Warn("Readiness check failed", zap.Any("checks", checks))
	}

	c.JSON(code, HealthResponse{
		Status: status,
		Uptime: time.Since(h.startTime).String(),
		Checks: checks,
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	checks := h.checks(utils.GetContextFromGinContext(c))

	status := "ok"
	for _, v := range checks {
		if v != "ok" {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Providers: h.deps.Providers(),
		Checks:    checks,
	})
}

func (h *HealthHandler) checks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	checks := map[string]string{"cache": "ok", "providers": "ok"}
	if err := h.deps.Ping(ctx); err != nil {
		checks["cache"] = err.Error()
	}

	providers := h.deps.Providers()
	open := 0
	for _, p := range providers {
		if p.Breaker == "open" {
			open++
		}
	}
	if len(providers) == 0 {
		checks["providers"] = "none configured"
	} else if open == len(providers) {
		checks["providers"] = "all circuits open"
	}
	return checks
}
