package repository

import (
	"context"
	"errors"
	"time"

	"brokerage-chat/backend/internal/models"

	"gorm.io/gorm"
)

// SessionRepository persists chat sessions and their message logs
type SessionRepository interface {
	CreateWithMessage(ctx context.Context, session *models.ChatSession, seed *models.ChatMessage) error
	GetByID(ctx context.Context, id string) (*models.ChatSession, error)
	GetWithMessages(ctx context.Context, id string) (*models.ChatSession, error)
	ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
	AppendMessage(ctx context.Context, msg *models.ChatMessage) error
	SetTyping(ctx context.Context, sessionID string, typing bool) error
	UpdateStatusIf(ctx context.Context, sessionID string, from, to models.SessionStatus) (bool, error)
	ApplyReply(ctx context.Context, msg *models.ChatMessage, operatorID *uint) (*models.ChatSession, error)
	End(ctx context.Context, sessionID string) error
	ListByStatus(ctx context.Context, statuses ...models.SessionStatus) ([]models.ChatSession, error)
}

// GormSessionRepository is the GORM implementation of SessionRepository
type GormSessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// SessionRepositoryOption customises a GormSessionRepository
type SessionRepositoryOption func(*GormSessionRepository)

// WithClock replaces time.Now for timestamps written by the repository
func WithClock(now func() time.Time) SessionRepositoryOption {
	return func(r *GormSessionRepository) { r.now = now }
}

// NewGormSessionRepository creates a session repository
func NewGormSessionRepository(db *gorm.DB, opts ...SessionRepositoryOption) *GormSessionRepository {
	r := &GormSessionRepository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *GormSessionRepository) CreateWithMessage(ctx context.Context, session *models.ChatSession, seed *models.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now()
		session.CreatedAt = now
		session.UpdatedAt = now
		if err := tx.Omit("Messages").Create(session).Error; err != nil {
			return err
		}

		seed.SessionID = session.ID
		seed.CreatedAt = now
		if err := tx.Create(seed).Error; err != nil {
			return err
		}

		session.Messages = []models.ChatMessage{*seed}
		return nil
	})
}

func (r *GormSessionRepository) GetByID(ctx context.Context, id string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *GormSessionRepository) GetWithMessages(ctx context.Context, id string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.WithContext(ctx).
		Preload("Messages", orderedLog).
		First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ListMessages returns the log of a session, empty when the id is unknown
func (r *GormSessionRepository) ListMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	messages := make([]models.ChatMessage, 0)
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order(messageLogOrder).
		Find(&messages).Error
	return messages, err
}

// AppendMessage inserts msg and bumps the owning session's updated_at
func (r *GormSessionRepository) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now()
		if err := touch(tx, msg.SessionID, map[string]any{"updated_at": now}); err != nil {
			return err
		}
		msg.CreatedAt = now
		return tx.Create(msg).Error
	})
}

func (r *GormSessionRepository) SetTyping(ctx context.Context, sessionID string, typing bool) error {
	return touch(r.db.WithContext(ctx), sessionID, map[string]any{
		"admin_typing": typing,
		"updated_at":   r.now(),
	})
}

// UpdateStatusIf moves the session from one status to another in a single
// conditional update and reports whether it did
func (r *GormSessionRepository) UpdateStatusIf(ctx context.Context, sessionID string, from, to models.SessionStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ChatSession{}).
		Where("id = ? AND status = ?", sessionID, from).
		Updates(map[string]any{"status": to, "updated_at": r.now()})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApplyReply appends an operator message and hands the session to that
// operator, returning the updated session with its full log
func (r *GormSessionRepository) ApplyReply(ctx context.Context, msg *models.ChatMessage, operatorID *uint) (*models.ChatSession, error) {
	var session models.ChatSession

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := r.now()
		if err := touch(tx, msg.SessionID, map[string]any{
			"status":      models.StatusLiveActive,
			"is_read":     true,
			"operator_id": operatorID,
			"updated_at":  now,
		}); err != nil {
			return err
		}

		msg.CreatedAt = now
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		return tx.Preload("Messages", orderedLog).First(&session, "id = ?", msg.SessionID).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// End returns the session to bot mode and clears the typing flag
func (r *GormSessionRepository) End(ctx context.Context, sessionID string) error {
	return touch(r.db.WithContext(ctx), sessionID, map[string]any{
		"status":       models.StatusBot,
		"admin_typing": false,
		"updated_at":   r.now(),
	})
}

// ListByStatus returns matching sessions, most recently updated first,
// each with its ordered log
func (r *GormSessionRepository) ListByStatus(ctx context.Context, statuses ...models.SessionStatus) ([]models.ChatSession, error) {
	sessions := make([]models.ChatSession, 0)
	if len(statuses) == 0 {
		return sessions, nil
	}

	err := r.db.WithContext(ctx).
		Preload("Messages", orderedLog).
		Where("status IN ?", statuses).
		Order("updated_at DESC, id ASC").
		Find(&sessions).Error
	return sessions, err
}

func orderedLog(db *gorm.DB) *gorm.DB {
	return db.Order(messageLogOrder)
}

// touch updates columns of one session, mapping a missing row to ErrSessionNotFound
func touch(db *gorm.DB, sessionID string, columns map[string]any) error {
	result := db.Model(&models.ChatSession{}).Where("id = ?", sessionID).Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}
