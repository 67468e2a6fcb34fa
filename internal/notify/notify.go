// Package notify delivers lead notifications to the brokerage office.
package notify

import (
	"context"

	"brokerage-chat/backend/internal/models"
	"brokerage-chat/backend/pkg/logger"
)

// Notifier is told about every new visitor who starts a chat
type Notifier interface {
	NotifyNewLead(ctx context.Context, session *models.ChatSession) error
}

// LogNotifier writes leads to the log; used when no mail relay is configured
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) NotifyNewLead(_ context.Context, session *models.ChatSession) error {
	n.log.Info("New chat lead",
		"session_id", session.ID,
		"name", session.Name,
		"email", session.Email,
		"phone", session.Phone,
	)
	return nil
}
