package router

import (
	"brokerage-chat/backend/internal/api"
	"brokerage-chat/backend/shared/observability"

	"github.com/gin-gonic/gin"
)

// setupHealthRoutes registers health and metrics endpoints
func (r *Router) setupHealthRoutes() {
	h := api.NewHealthHandler(r.Container.Health, r.Config.Server.Version)

	r.Engine.GET("/health", h.Live)
	r.Engine.GET("/api/health", h.Ready)
	r.Engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))
}
