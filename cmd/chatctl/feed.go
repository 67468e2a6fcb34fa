package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"brokerage-chat/backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const feedPath = "/api/admin/chat/feed"

func newFeedCmd() *cobra.Command {
	var server, token string

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print operator feed events as they happen",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("CHATCTL_TOKEN")
			}
			if token == "" {
				return errors.New("a token is required (--token or CHATCTL_TOKEN)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return tailFeed(ctx, server, token, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8081", "Base URL of the chat backend")
	cmd.Flags().StringVar(&token, "token", "", "Operator bearer token (or CHATCTL_TOKEN)")

	return cmd
}

// feedURL turns an http(s) base URL into the feed websocket URL
func feedURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += feedPath
	return u.String(), nil
}

// tailFeed streams events to out until ctx is done or the server closes
func tailFeed(ctx context.Context, base, token string, out io.Writer) error {
	target, err := feedURL(base)
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connect feed: %s", resp.Status)
		}
		return fmt.Errorf("connect feed: %w", err)
	}
	defer conn.Close()

	done := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					err = nil
				}
				done <- err
				return
			}

			var event models.FeedEvent
			if err := json.Unmarshal(data, &event); err != nil {
				fmt.Fprintf(out, "unreadable event: %s\n", data)
				continue
			}
			printEvent(out, event)
		}
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
		return nil
	}
}

func printEvent(out io.Writer, e models.FeedEvent) {
	line := fmt.Sprintf("%s  %-16s %s", e.At.Format(time.TimeOnly), e.Type, e.SessionID)
	if e.Status != "" {
		line += "  status=" + string(e.Status)
	}
	if e.AdminTyping != nil {
		line += fmt.Sprintf("  typing=%t", *e.AdminTyping)
	}
	if e.Message != nil {
		line += fmt.Sprintf("  %s: %s", e.Message.SenderName, e.Message.Content)
	}
	fmt.Fprintln(out, line)
}
