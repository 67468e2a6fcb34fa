package api

import (
	"errors"
	"strings"

	"brokerage-chat/backend/internal/service"
	apperrors "brokerage-chat/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// abortWith maps a service error onto the HTTP error taxonomy
func abortWith(c *gin.Context, err error) {
	c.Error(toAppError(err))
	c.Abort()
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, service.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
		return apperrors.NewValidationError(msg)
	case errors.Is(err, service.ErrSessionNotFound):
		return apperrors.NewNotFoundError(apperrors.CodeSessionNotFound, "Chat session not found")
	case errors.Is(err, service.ErrSessionClaimed):
		return apperrors.NewConflictError(apperrors.CodeSessionClaimed, "An operator is already handling this chat")
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrOperatorInactive):
		return apperrors.NewUnauthorizedError(apperrors.CodeInvalidCredentials, "Invalid email or password")
	case errors.Is(err, service.ErrOperatorNotFound):
		return apperrors.NewNotFoundError(apperrors.CodeNotFound, "Operator not found")
	default:
		return apperrors.FromError(err)
	}
}
