package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brokerage-chat/backend/internal/models"
	"brokerage-chat/backend/internal/repository"
	"brokerage-chat/backend/pkg/jwt"
	"brokerage-chat/backend/pkg/tokenstore"
)

// MinPasswordLength applies to operators created from the CLI
const MinPasswordLength = 8

// OperatorService handles operator authentication
type OperatorService struct {
	operators repository.OperatorRepository
	tokens    *jwt.Service
	revoked   tokenstore.Store
	now       func() time.Time
}

// NewOperatorService creates a new operator service
func NewOperatorService(operators repository.OperatorRepository, tokens *jwt.Service, revoked tokenstore.Store) *OperatorService {
	return &OperatorService{
		operators: operators,
		tokens:    tokens,
		revoked:   revoked,
		now:       time.Now,
	}
}

// CreateOperator stores a new operator; the password is hashed on insert
func (s *OperatorService) CreateOperator(ctx context.Context, name, email, password string, role jwt.Role) (*models.Operator, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	case email == "" || !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	case len(password) < MinPasswordLength:
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	case !role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	_, err := s.operators.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrOperatorExists
	}
	if !errors.Is(err, repository.ErrOperatorNotFound) {
		return nil, err
	}

	operator := &models.Operator{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     string(role),
		Active:   true,
	}
	if err := s.operators.Create(ctx, operator); err != nil {
		return nil, err
	}

	return operator, nil
}

// Login authenticates an operator and returns a signed token
func (s *OperatorService) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	operator, err := s.operators.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrOperatorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !models.CheckPasswordHash(password, operator.Password) {
		return nil, ErrInvalidCredentials
	}
	if !operator.Active {
		return nil, ErrOperatorInactive
	}

	now := s.now()
	if err := s.operators.TouchLogin(ctx, operator.ID, now); err != nil {
		return nil, err
	}
	operator.LastLogin = &now

	return s.IssueToken(operator)
}

// IssueToken signs a token for an operator without checking a password
func (s *OperatorService) IssueToken(operator *models.Operator) (*models.LoginResponse, error) {
	token, claims, err := s.tokens.GenerateToken(operator.ID, operator.Email, operator.Name, operator.JWTRole())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &models.LoginResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Operator:  operator.ToResponse(),
	}, nil
}

// Logout revokes the presented token until it would have expired
func (s *OperatorService) Logout(ctx context.Context, claims *jwt.JWTClaims) error {
	if s.revoked == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// GetByID returns an operator by id
func (s *OperatorService) GetByID(ctx context.Context, id uint) (*models.Operator, error) {
	return s.operators.GetByID(ctx, id)
}

// GetByEmail returns an operator by login email
func (s *OperatorService) GetByEmail(ctx context.Context, email string) (*models.Operator, error) {
	return s.operators.GetByEmail(ctx, email)
}
