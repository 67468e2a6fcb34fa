package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"brokerage-chat/backend/internal/models"
	"brokerage-chat/backend/internal/testutil"
	"brokerage-chat/backend/pkg/config"
	"brokerage-chat/backend/pkg/di"
	"brokerage-chat/backend/pkg/jwt"
	"brokerage-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router    *Router
	container *di.Container
}

func newTestServer(t *testing.T, overrides ...func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)

	cfg := config.Load()
	cfg.Server.Env = "test"
	cfg.JWT.Secret = "router-test-secret"
	cfg.Redis.Enabled = false
	cfg.SMTP.Host = ""
	cfg.OpenAPI.SchemaPath = ""
	cfg.Security.RateLimit = 1000
	cfg.Security.RateLimitBurst = 1000
	cfg.Security.AllowedOrigins = []string{"*"}
	cfg.Chat = config.ChatConfig{BotName: "Asistan", OperatorFallback: "Temsilci", DefaultLocale: "tr", MaxMessageLength: 2000}
	for _, override := range overrides {
		override(cfg)
	}

	container, err := di.New(context.Background(), db, cfg, logger.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	container.Start(ctx)

	r, err := New(container)
	require.NoError(t, err)
	r.SetupRoutes()

	t.Cleanup(func() {
		r.Close()
		cancel()
		container.Close()
	})

	return &testServer{router: r, container: container}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.Engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()

	_, err := s.container.OperatorService.CreateOperator(context.Background(),
		"Mehmet Yılmaz", "mehmet@example.com", "s3cret-pass", jwt.RoleOperator)
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "mehmet@example.com", "password": "s3cret-pass"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.LoginResponse](t, w)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestChatLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	// Visitor opens the widget
	w := s.do(t, http.MethodPost, "/api/chat/start", gin.H{"name": "Ayşe", "email": "ayse@example.com", "phone": "+905551112233"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := decode[models.SessionResponse](t, w)
	assert.Equal(t, models.StatusBot, session.Status)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, models.SenderBot, session.Messages[0].Sender)
	assert.Contains(t, session.Messages[0].Content, "Ayşe")

	w = s.do(t, http.MethodPost, "/api/chat/message", gin.H{"sessionId": session.ID, "content": "Kadıköy'de daire arıyorum"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/chat/request-operator", gin.H{"sessionId": session.ID}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token := s.login(t)

	// Operator sees the waiting session
	w = s.do(t, http.MethodGet, "/api/admin/chat/sessions", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	queue := decode[struct {
		Sessions []models.SessionResponse `json:"sessions"`
	}](t, w)
	require.Len(t, queue.Sessions, 1)
	assert.Equal(t, models.StatusLiveWaiting, queue.Sessions[0].Status)
	assert.Len(t, queue.Sessions[0].Messages, 2)

	w = s.do(t, http.MethodPost, "/api/admin/chat/typing", gin.H{"sessionId": session.ID, "isTyping": true}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/chat/status?sessionId="+session.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[models.SessionStatusResponse](t, w)
	assert.True(t, status.AdminTyping)
	assert.Equal(t, models.StatusLiveWaiting, status.Status)

	w = s.do(t, http.MethodPost, "/api/admin/chat/reply", gin.H{"sessionId": session.ID, "message": "Merhaba, yardımcı olayım"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reply := decode[struct {
		Message models.MessageResponse `json:"message"`
		Session models.SessionResponse `json:"session"`
	}](t, w)
	assert.Equal(t, models.SenderAdmin, reply.Message.Sender)
	assert.Equal(t, "Mehmet Yılmaz", reply.Message.SenderName)
	assert.Equal(t, models.StatusLiveActive, reply.Session.Status)
	assert.True(t, reply.Session.IsRead)

	// Visitor history shows all three entries in order
	w = s.do(t, http.MethodGet, "/api/chat/history?sessionId="+session.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[struct {
		Messages []models.MessageResponse `json:"messages"`
	}](t, w)
	require.Len(t, history.Messages, 3)
	assert.Equal(t, models.SenderBot, history.Messages[0].Sender)
	assert.Equal(t, models.SenderUser, history.Messages[1].Sender)
	assert.Equal(t, models.SenderAdmin, history.Messages[2].Sender)

	// Requesting an operator on an active chat conflicts
	w = s.do(t, http.MethodPost, "/api/chat/request-operator", gin.H{"sessionId": session.ID}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SESSION_CLAIMED", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodPost, "/api/admin/chat/end", gin.H{"sessionId": session.ID}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/admin/chat/sessions", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessions":[]`)
}

func TestUnknownSessions(t *testing.T) {
	s := newTestServer(t)
	unknown := "6f1c1d3e-8a43-4c1b-9d0e-2d4f7e3b9a10"

	w := s.do(t, http.MethodGet, "/api/chat/history?sessionId="+unknown, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"messages":[]}`, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/chat/end", gin.H{"sessionId": unknown}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodPost, "/api/chat/typing", gin.H{"sessionId": unknown, "isTyping": false}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/chat/start", gin.H{"name": "Ali", "email": "ali@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodGet, "/api/chat/history", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, w).Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/chat/message", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.Engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOperatorRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/admin/chat/sessions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_REQUIRED", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodGet, "/api/admin/chat/sessions", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodGet, "/api/admin/chat/feed", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMalformedOperatorRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		path string
		body any
	}{
		{"/api/admin/chat/reply", gin.H{}},
		{"/api/admin/chat/reply", gin.H{"sessionId": 5}},
		{"/api/admin/chat/end", gin.H{}},
		{"/api/admin/chat/typing", gin.H{"sessionId": "x", "isTyping": "yes"}},
	}
	for _, tc := range cases {
		w := s.do(t, http.MethodPost, tc.path, tc.body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
		assert.Equal(t, "AUTH_REQUIRED", decode[errorBody](t, w).Error.Code, tc.path)
	}

	// Once authenticated the same body fails validation
	token := s.login(t)
	w := s.do(t, http.MethodPost, "/api/admin/chat/reply", gin.H{"sessionId": 5}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorBody](t, w).Error.Code)
}

func TestMalformedPublicRequestsAreRateLimited(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Security.RateLimit = 0.001
		cfg.Security.RateLimitBurst = 2
	})

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/chat/start", gin.H{"name": 5}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/chat/start", gin.H{"name": 5}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", decode[errorBody](t, w).Error.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": 5}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestLoginMeLogout(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mehmet@example.com")
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", gin.H{"email": "mehmet@example.com", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[errorBody](t, w).Error.Code)
}

func TestInfraRoutes(t *testing.T) {
	s := newTestServer(t)
	s.container.Health.RunChecks(context.Background())

	w := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"database"`)

	w = s.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "brokerage_chat_http_requests_total")

	w = s.do(t, http.MethodGet, "/api/docs/openapi.yaml", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
