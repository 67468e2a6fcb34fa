package jwt

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Role is the operator role carried in the token
type Role string

const (
	// RoleAdmin can do everything an operator can and manage the office
	RoleAdmin Role = "admin"
	// RoleOperator answers visitor chats
	RoleOperator Role = "operator"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOperator
}

// JWTClaims represents the claims in an operator token
type JWTClaims struct {
	OperatorID uint   `json:"operator_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	jwt.RegisteredClaims
}

// HasRole checks the claim role; admins implicitly hold every role
func (c *JWTClaims) HasRole(role Role) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.Role == role
}

// OperatorKey returns the operator id as a string, used for logging and cache keys
func (c *JWTClaims) OperatorKey() string {
	return strconv.FormatUint(uint64(c.OperatorID), 10)
}

// parse validates tokenString with the given HMAC secret
func parse(tokenString string, secret []byte) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return secret, nil
		},
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
