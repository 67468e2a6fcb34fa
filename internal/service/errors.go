package service

import (
	"errors"

	"brokerage-chat/backend/internal/repository"
)

var (
	// ErrValidation wraps every rejected input; the wrapping text says which field
	ErrValidation = errors.New("validation failed")

	ErrSessionNotFound = repository.ErrSessionNotFound
	// ErrSessionClaimed is returned when asking for an operator on a session one already owns
	ErrSessionClaimed = errors.New("session already claimed by an operator")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrOperatorNotFound   = repository.ErrOperatorNotFound
	ErrOperatorInactive   = errors.New("operator account is disabled")
	ErrOperatorExists     = errors.New("operator with this email already exists")
)
