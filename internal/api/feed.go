package api

import (
	"brokerage-chat/backend/internal/ws"
	apperrors "brokerage-chat/backend/pkg/errors"
	"brokerage-chat/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// FeedHandler upgrades operators onto the live feed
type FeedHandler struct {
	hub *ws.Hub
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(hub *ws.Hub) *FeedHandler {
	return &FeedHandler{hub: hub}
}

// Serve handles GET /api/admin/chat/feed
func (h *FeedHandler) Serve(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		abortWith(c, apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "Authentication required"))
		return
	}
	h.hub.ServeWs(c, claims.OperatorID)
}
