package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"brokerage-chat/backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrateOperatorAndToken(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "chatctl.db"))
	t.Setenv("JWT_SECRET", "chatctl-test-secret")

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	out, err = execute(t, "operator", "add", "--name", "Zeynep", "--email", "Zeynep@Example.com", "--password", "long-enough")
	require.NoError(t, err)
	assert.Contains(t, out, "zeynep@example.com")

	_, err = execute(t, "operator", "add", "--name", "Zeynep", "--email", "zeynep@example.com", "--password", "long-enough")
	assert.Error(t, err)

	_, err = execute(t, "operator", "add", "--name", "Kısa", "--email", "kisa@example.com", "--password", "short")
	assert.Error(t, err)

	out, err = execute(t, "token", "issue", "--email", "zeynep@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(out), ".")))

	_, err = execute(t, "token", "issue", "--email", "nobody@example.com")
	assert.Error(t, err)
}

func TestFeedURL(t *testing.T) {
	u, err := feedURL("https://chat.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "wss://chat.example.com/api/admin/chat/feed", u)

	u, err = feedURL("http://localhost:8081")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8081/api/admin/chat/feed", u)

	_, err = feedURL("ftp://example.com")
	assert.Error(t, err)
}

func TestTailFeedPrintsEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteJSON(models.FeedEvent{
			Type:      models.EventMessageCreated,
			SessionID: "s-1",
			Status:    models.StatusLiveWaiting,
			Message:   &models.MessageResponse{SenderName: "Ayşe", Content: "Merhaba"},
			At:        time.Now(),
		})
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, tailFeed(ctx, srv.URL, "tok", &out))
	assert.Contains(t, out.String(), "message.created")
	assert.Contains(t, out.String(), "Ayşe: Merhaba")

	err := tailFeed(ctx, srv.URL, "wrong", &bytes.Buffer{})
	assert.Error(t, err)
}
