package models

import (
	"strings"
	"time"

	"brokerage-chat/backend/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Operator is a staff member who answers visitor chats
type Operator struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"` // bcrypt hash once saved
	Role     string `gorm:"type:varchar(20);not null;default:operator" json:"role"`
	Active   bool   `gorm:"not null" json:"active"`
	// LastLogin is nil until the first successful login
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TableName pins the table name
func (Operator) TableName() string {
	return "operators"
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// OperatorResponse is the operator without sensitive fields
type OperatorResponse struct {
	ID        uint       `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	Operator  OperatorResponse `json:"operator"`
}

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BeforeCreate hashes the password and normalises email and role
func (o *Operator) BeforeCreate(tx *gorm.DB) error {
	hashed, err := HashPassword(o.Password)
	if err != nil {
		return err
	}
	o.Password = hashed
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))

	if o.Role == "" {
		o.Role = string(jwt.RoleOperator)
	}

	return nil
}

// JWTRole returns the role as carried in tokens
func (o *Operator) JWTRole() jwt.Role {
	return jwt.Role(o.Role)
}

// ToResponse converts an Operator to its public form
func (o *Operator) ToResponse() OperatorResponse {
	return OperatorResponse{
		ID:        o.ID,
		Name:      o.Name,
		Email:     o.Email,
		Role:      o.Role,
		LastLogin: o.LastLogin,
	}
}
