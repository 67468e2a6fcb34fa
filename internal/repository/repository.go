package repository

import (
	"errors"

	"brokerage-chat/backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrSessionNotFound  = errors.New("chat session not found")
	ErrOperatorNotFound = errors.New("operator not found")
)

// Migrate creates or updates every table and the composite log index
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return err
	}
	return db.Exec("CREATE INDEX IF NOT EXISTS idx_chat_messages_log ON chat_messages(session_id, created_at, id)").Error
}

// messageLogOrder is the total order of a session's log
const messageLogOrder = "created_at ASC, id ASC"
