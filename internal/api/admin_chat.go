package api

import (
	"net/http"

	"brokerage-chat/backend/internal/models"
	"brokerage-chat/backend/internal/service"
	apperrors "brokerage-chat/backend/pkg/errors"
	"brokerage-chat/backend/pkg/logger"
	"brokerage-chat/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// AdminChatHandler serves the operator dashboard
type AdminChatHandler struct {
	chat *service.ChatService
}

// NewAdminChatHandler creates a new admin chat handler
func NewAdminChatHandler(chat *service.ChatService) *AdminChatHandler {
	return &AdminChatHandler{chat: chat}
}

// RegisterRoutes mounts the operator endpoints; rg must already require a token
func (h *AdminChatHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sessions", h.Sessions)
	rg.POST("/reply", h.Reply)
	rg.POST("/typing", h.Typing)
	rg.POST("/end", h.End)
}

// Sessions handles GET /api/admin/chat/sessions
func (h *AdminChatHandler) Sessions(c *gin.Context) {
	sessions, err := h.chat.Queue(c.Request.Context())
	if err != nil {
		abortWith(c, err)
		return
	}

	out := make([]models.SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessions[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// Reply handles POST /api/admin/chat/reply
func (h *AdminChatHandler) Reply(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		abortWith(c, apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "Authentication required"))
		return
	}

	var req models.ReplyRequest
	if !bindJSON(c, &req) {
		return
	}

	op := service.OperatorIdentity{ID: claims.OperatorID, Name: claims.Name}
	ctx := middleware.WithRequestContext(c.Request.Context(), c)
	msg, session, err := h.chat.Reply(ctx, op, req.SessionID, req.Message)
	if err != nil {
		abortWith(c, err)
		return
	}

	logger.FromGin(c).Info("Operator replied", "session_id", session.ID, "operator_id", claims.OperatorID)

	c.JSON(http.StatusCreated, gin.H{
		"message": msg.ToResponse(),
		"session": session.ToResponse(),
	})
}

// Typing handles POST /api/admin/chat/typing
func (h *AdminChatHandler) Typing(c *gin.Context) {
	setTyping(c, h.chat)
}

// End handles POST /api/admin/chat/end
func (h *AdminChatHandler) End(c *gin.Context) {
	endSession(c, h.chat)
}
