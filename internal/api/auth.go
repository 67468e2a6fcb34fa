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

// AuthHandler handles operator authentication
type AuthHandler struct {
	operators *service.OperatorService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(operators *service.OperatorService) *AuthHandler {
	return &AuthHandler{operators: operators}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.operators.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWith(c, err)
		return
	}

	logger.FromGin(c).Info("Operator logged in",
		"operator_id", resp.Operator.ID,
		"role", resp.Operator.Role,
	)

	c.JSON(http.StatusOK, resp)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		abortWith(c, apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "Authentication required"))
		return
	}

	operator, err := h.operators.GetByID(c.Request.Context(), claims.OperatorID)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, operator.ToResponse())
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		abortWith(c, apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "Authentication required"))
		return
	}

	if err := h.operators.Logout(c.Request.Context(), claims); err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
