package api

import (
	"net/http"

	"brokerage-chat/backend/internal/models"
	"brokerage-chat/backend/internal/service"
	apperrors "brokerage-chat/backend/pkg/errors"
	"brokerage-chat/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the public chat widget
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// RegisterRoutes mounts the widget endpoints on /api/chat
func (h *ChatHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/start", h.Start)
	rg.GET("/history", h.History)
	rg.POST("/message", h.PostMessage)
	rg.POST("/request-operator", h.RequestOperator)
	rg.POST("/typing", h.Typing)
	rg.POST("/end", h.End)
	rg.GET("/status", h.Status)
}

// Start handles POST /api/chat/start
func (h *ChatHandler) Start(c *gin.Context) {
	var req models.StartSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.chat.Start(middleware.WithRequestContext(c.Request.Context(), c), req)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusCreated, session.ToResponse())
}

// History handles GET /api/chat/history?sessionId=
func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		abortWith(c, apperrors.NewValidationError("sessionId is required").
			WithDetails([]FieldError{{Field: "sessionId", Rule: "required"}}))
		return
	}

	messages, err := h.chat.History(c.Request.Context(), sessionID)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": models.MessagesToResponse(messages)})
}

// PostMessage handles POST /api/chat/message
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req models.PostMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.chat.PostVisitorMessage(c.Request.Context(), req.SessionID, req.Content)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg.ToResponse())
}

// RequestOperator handles POST /api/chat/request-operator
func (h *ChatHandler) RequestOperator(c *gin.Context) {
	var req models.SessionRefRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.chat.RequestOperator(c.Request.Context(), req.SessionID)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": session.Status})
}

// Typing handles POST /api/chat/typing
func (h *ChatHandler) Typing(c *gin.Context) {
	setTyping(c, h.chat)
}

// End handles POST /api/chat/end
func (h *ChatHandler) End(c *gin.Context) {
	endSession(c, h.chat)
}

// Status handles GET /api/chat/status?sessionId=
func (h *ChatHandler) Status(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		abortWith(c, apperrors.NewValidationError("sessionId is required").
			WithDetails([]FieldError{{Field: "sessionId", Rule: "required"}}))
		return
	}

	status, err := h.chat.Status(c.Request.Context(), sessionID)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func setTyping(c *gin.Context, chat *service.ChatService) {
	var req models.TypingRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := chat.SetTyping(c.Request.Context(), req.SessionID, *req.IsTyping); err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func endSession(c *gin.Context, chat *service.ChatService) {
	var req models.SessionRefRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := chat.End(c.Request.Context(), req.SessionID); err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
