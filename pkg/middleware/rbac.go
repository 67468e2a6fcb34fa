package middleware

import (
	"strings"

	"brokerage-chat/backend/pkg/errors"
	"brokerage-chat/backend/pkg/jwt"
	"brokerage-chat/backend/pkg/logger"
	"brokerage-chat/backend/pkg/tokenstore"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by JWTAuthMiddleware
const (
	ClaimsKey     = "claims"
	OperatorIDKey = "operatorID"
	RoleKey       = "operatorRole"
)

// Claims returns the operator claims stored by JWTAuthMiddleware
func Claims(c *gin.Context) (*jwt.JWTClaims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.JWTClaims)
	return claims, ok
}

// BearerToken extracts the token from the Authorization header
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// RequireRole returns a middleware that requires the operator to have a specific role
func RequireRole(role jwt.Role) gin.HandlerFunc {
	return RequireAnyRole(role)
}

// RequireAnyRole returns middleware that requires at least one of the specified roles
func RequireAnyRole(roles ...jwt.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ClaimsKey); !exists {
			c.Error(errors.NewUnauthorizedError(errors.CodeAuthRequired, "Authentication required"))
			c.Abort()
			return
		}

		claims, ok := Claims(c)
		if !ok {
			c.Error(errors.NewInternalServerError(errors.CodeInternal, "Invalid JWT claims format"))
			c.Abort()
			return
		}

		for _, role := range roles {
			if claims.HasRole(role) {
				c.Next()
				return
			}
		}

		c.Error(errors.NewForbiddenError(errors.CodeInsufficientRole, "Your role does not allow this operation"))
		c.Abort()
	}
}

// JWTAuthMiddleware checks that the request carries a valid, unrevoked token
// and adds its claims to the context. revoked may be nil.
func JWTAuthMiddleware(jwtService *jwt.Service, revoked tokenstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)

		token := BearerToken(c)
		if token == "" {
			c.Error(errors.NewUnauthorizedError(errors.CodeAuthRequired, "Authorization header is required"))
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			log.Warn("Invalid JWT token", "error", err.Error())
			c.Error(errors.NewUnauthorizedError(errors.CodeInvalidToken, "Invalid or expired token"))
			c.Abort()
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				c.Error(errors.NewInternalServerError(errors.CodeInternal, "Could not verify token").Wrap(err))
				c.Abort()
				return
			}
			if isRevoked {
				c.Error(errors.NewUnauthorizedError(errors.CodeInvalidToken, "Token has been revoked"))
				c.Abort()
				return
			}
		}

		c.Set(ClaimsKey, claims)
		c.Set(OperatorIDKey, claims.OperatorID)
		c.Set(RoleKey, claims.Role)

		c.Next()
	}
}

// QueryTokenFallback copies a ?token= query parameter into the Authorization
// header when the header is absent. Browsers cannot set headers on websocket upgrades.
func QueryTokenFallback() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}
