package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorHidesCause(t *testing.T) {
	cause := stderrors.New("pq: connection refused")
	appErr := FromError(cause)

	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, CodeInternal, appErr.Code)
	assert.NotContains(t, appErr.Message, "connection refused")
	assert.ErrorIs(t, appErr, cause)
}

func TestFromErrorKeepsAppError(t *testing.T) {
	orig := NewNotFoundError(CodeSessionNotFound, "Chat session not found")
	assert.Same(t, orig, FromError(orig))
	assert.Equal(t, http.StatusNotFound, GetStatusCode(orig))
	assert.Equal(t, CodeSessionNotFound, GetErrorCode(orig))
	assert.True(t, Is(orig, NewNotFoundError(CodeSessionNotFound, "")))
}

func performRequest(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorHandler(), RecoveryWithLogger())
	r.GET("/", handler)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	w, body := performRequest(t, func(c *gin.Context) {
		c.Error(NewValidationError("name is required").WithDetails(map[string]string{"name": "required"}))
		c.Abort()
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, CodeValidation, errBody["code"])
	assert.Equal(t, "name is required", errBody["message"])
	assert.NotNil(t, errBody["details"])
}

func TestErrorHandlerMasksInternalErrors(t *testing.T) {
	w, body := performRequest(t, func(c *gin.Context) {
		c.Error(stderrors.New("secret database detail"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret database detail")
	assert.Equal(t, CodeInternal, body["error"].(map[string]any)["code"])
}

func TestRecoveryWithLogger(t *testing.T) {
	w, body := performRequest(t, func(c *gin.Context) {
		panic("boom")
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "SERVER_ERROR", body["error"].(map[string]any)["code"])
}
