package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "brokerage-chat/backend/pkg/errors"
	"brokerage-chat/backend/pkg/jwt"
	"brokerage-chat/backend/pkg/logger"
	"brokerage-chat/backend/pkg/tokenstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(svc *jwt.Service, store tokenstore.Store, roles ...jwt.Role) *gin.Engine {
	r := gin.New()
	r.Use(apperrors.ErrorHandler())
	group := r.Group("/admin", JWTAuthMiddleware(svc, store), RequireAnyRole(roles...))
	group.GET("/ping", func(c *gin.Context) {
		id, _ := c.Get(OperatorIDKey)
		c.JSON(http.StatusOK, gin.H{"operator": id})
	})
	return r
}

func doGet(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := jwt.NewService("secret", time.Hour, "test")
	store := tokenstore.NewMemoryStore()
	defer store.Close()
	r := newAuthRouter(svc, store, jwt.RoleOperator)

	t.Run("missing header", func(t *testing.T) {
		w := doGet(r, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), apperrors.CodeAuthRequired)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doGet(r, "not-a-token")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), apperrors.CodeInvalidToken)
	})

	t.Run("valid operator", func(t *testing.T) {
		token, _, err := svc.GenerateToken(7, "op@example.com", "Zeynep", jwt.RoleOperator)
		require.NoError(t, err)

		w := doGet(r, token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"operator":7}`, w.Body.String())
	})

	t.Run("revoked token", func(t *testing.T) {
		token, claims, err := svc.GenerateToken(7, "op@example.com", "Zeynep", jwt.RoleOperator)
		require.NoError(t, err)
		require.NoError(t, store.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))

		w := doGet(r, token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireAnyRole(t *testing.T) {
	svc := jwt.NewService("secret", time.Hour, "test")
	r := newAuthRouter(svc, nil, jwt.RoleAdmin)

	operatorToken, _, err := svc.GenerateToken(1, "op@example.com", "Op", jwt.RoleOperator)
	require.NoError(t, err)
	adminToken, _, err := svc.GenerateToken(2, "admin@example.com", "Admin", jwt.RoleAdmin)
	require.NoError(t, err)

	w := doGet(r, operatorToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.CodeInsufficientRole)

	w = doGet(r, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-1", w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(logger.Discard(), RateLimiterOptions{
		Limit: rate.Limit(0.001),
		Burst: 2,
	})
	defer limiter.Close()

	r := gin.New()
	r.Use(apperrors.ErrorHandler(), limiter.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
