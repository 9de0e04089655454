package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves liveness probes
type HealthHandler struct {
	appName string
	started time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(appName string) *HealthHandler {
	return &HealthHandler{
		appName: appName,
		started: time.Now(),
	}
}

// Healthz reports service liveness
// GET /healthz
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.appName,
		"uptime":  time.Since(h.started).String(),
	})
}
