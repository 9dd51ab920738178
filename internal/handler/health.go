package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RimaChaieb/tuniguard-api/internal/health"
)

type reporter interface {
	Report() health.Report
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checker reporter
	version string
}

// NewHealthHandler creates a new HealthHandler. checker may be nil, in
// which case readiness always succeeds.
func NewHealthHandler(checker reporter, version string) *HealthHandler {
	return &HealthHandler{checker: checker, version: version}
}

// Register registers the probes at the root of the engine.
func (h *HealthHandler) Register(r gin.IRoutes) {
	r.GET("/healthz", h.Live)
	r.GET("/readyz", h.Ready)
}

// Live handles GET /healthz.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "tuniguard", "version": h.version})
}

// Ready handles GET /readyz. A degraded dependency answers 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.checker == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	rep := h.checker.Report()
	status := http.StatusOK
	if rep.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, rep)
}
