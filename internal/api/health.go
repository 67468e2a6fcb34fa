package api

import (
	"net/http"
	"runtime"
	"time"

	"brokerage-chat/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checker *health.Checker
	version string
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status     string                      `json:"status"`
	Timestamp  time.Time                   `json:"timestamp"`
	Version    string                      `json:"version"`
	Components map[string]health.Component `json:"components,omitempty"`
	Memory     *MemoryStats                `json:"memory,omitempty"`
}

// MemoryStats is a small subset of runtime.MemStats
type MemoryStats struct {
	AllocMB  uint64 `json:"allocMb"`
	SysMB    uint64 `json:"sysMb"`
	GCCycles uint32 `json:"gcCycles"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker *health.Checker, version string) *HealthHandler {
	return &HealthHandler{checker: checker, version: version}
}

// Live handles GET /health; it only says the process is serving
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
	})
}

// Ready handles GET /api/health with per-component status
func (h *HealthHandler) Ready(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now(),
		Version:    h.version,
		Components: h.checker.Components(),
		Memory: &MemoryStats{
			AllocMB:  mem.Alloc / 1024 / 1024,
			SysMB:    mem.Sys / 1024 / 1024,
			GCCycles: mem.NumGC,
		},
	}

	code := http.StatusOK
	if !h.checker.Healthy() {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}
