package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/study-portal/internal/service"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics    *service.MetricsService
	candidates []string
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService, candidates []string) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, candidates: candidates}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness checks.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether the portal has somewhere to send requests. It does not
// probe the candidates; /upstream/health does that.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if len(h.candidates) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "no upstream candidates configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "candidates": h.candidates, "metrics": h.metrics.Snapshot()})
}
