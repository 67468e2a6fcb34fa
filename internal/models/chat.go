package models

import (
	"time"
)

// SessionStatus tells whether the bot or a human operator owns a conversation
type SessionStatus string

const (
	StatusBot         SessionStatus = "bot"
	StatusLiveWaiting SessionStatus = "live_waiting"
	StatusLiveActive  SessionStatus = "live_active"
)

// Valid reports whether s is one of the known statuses
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusBot, StatusLiveWaiting, StatusLiveActive:
		return true
	}
	return false
}

// IsLive reports whether the session is in operator hands (waiting or active)
func (s SessionStatus) IsLive() bool {
	return s == StatusLiveWaiting || s == StatusLiveActive
}

// MessageSender identifies the author class of a chat message
type MessageSender string

const (
	SenderBot   MessageSender = "bot"
	SenderUser  MessageSender = "user"
	SenderAdmin MessageSender = "admin"
)

// ChatSession is one visitor conversation
type ChatSession struct {
	ID          string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string        `gorm:"not null" json:"name"`
	Email       string        `gorm:"not null;index" json:"email"`
	Phone       string        `gorm:"not null" json:"phone"`
	Status      SessionStatus `gorm:"type:varchar(20);not null;default:bot;index" json:"status"`
	IsRead      bool          `gorm:"not null;default:false" json:"isRead"`
	AdminTyping bool          `gorm:"not null;default:false" json:"adminTyping"`
	// OperatorID is the operator who last replied
	OperatorID *uint         `gorm:"index" json:"operatorId,omitempty"`
	Messages   []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"messages"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `gorm:"index" json:"updatedAt"`
}

// TableName pins the table name
func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage is one entry of a session's append-only log. The
// auto-increment ID breaks ties between equal CreatedAt values.
type ChatMessage struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	SessionID  string        `gorm:"type:varchar(36);not null;index" json:"sessionId"`
	Sender     MessageSender `gorm:"type:varchar(10);not null" json:"sender"`
	SenderName string        `json:"senderName"`
	Content    string        `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time     `gorm:"index" json:"createdAt"`
}

// TableName pins the table name
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// StartSessionRequest is the body of POST /api/chat/start
type StartSessionRequest struct {
	Name   string `json:"name" binding:"required,max=120"`
	Email  string `json:"email" binding:"required,email,max=254"`
	Phone  string `json:"phone" binding:"required,max=40"`
	Locale string `json:"locale,omitempty" binding:"omitempty,oneof=tr en"`
}

// PostMessageRequest is the body of POST /api/chat/message
type PostMessageRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
	Content   string `json:"content" binding:"required"`
}

// TypingRequest is the body of both typing endpoints
type TypingRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
	// pointer so that an explicit false passes "required"
	IsTyping *bool `json:"isTyping" binding:"required"`
}

// SessionRefRequest is a body carrying only a session id
type SessionRefRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
}

// ReplyRequest is the body of POST /api/admin/chat/reply
type ReplyRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
	Message   string `json:"message" binding:"required"`
}

// MessageResponse is the public projection of a message
type MessageResponse struct {
	ID         uint          `json:"id"`
	Content    string        `json:"content"`
	Sender     MessageSender `json:"sender"`
	SenderName string        `json:"senderName"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// SessionResponse is a session together with its message log
type SessionResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone"`
	Status      SessionStatus     `json:"status"`
	IsRead      bool              `json:"isRead"`
	AdminTyping bool              `json:"adminTyping"`
	OperatorID  *uint             `json:"operatorId,omitempty"`
	Messages    []MessageResponse `json:"messages"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// SessionStatusResponse is what the widget polls
type SessionStatusResponse struct {
	Status      SessionStatus `json:"status"`
	AdminTyping bool          `json:"adminTyping"`
}

// ToResponse projects a message for clients
func (m *ChatMessage) ToResponse() MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		Content:    m.Content,
		Sender:     m.Sender,
		SenderName: m.SenderName,
		CreatedAt:  m.CreatedAt,
	}
}

// MessagesToResponse projects a message log, never returning nil
func MessagesToResponse(messages []ChatMessage) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, messages[i].ToResponse())
	}
	return out
}

// ToResponse projects a session and whatever messages are loaded on it
func (s *ChatSession) ToResponse() SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		Name:        s.Name,
		Email:       s.Email,
		Phone:       s.Phone,
		Status:      s.Status,
		IsRead:      s.IsRead,
		AdminTyping: s.AdminTyping,
		OperatorID:  s.OperatorID,
		Messages:    MessagesToResponse(s.Messages),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
