package models

import "time"

// FeedEventType names a change pushed to operators on the live feed
type FeedEventType string

const (
	EventSessionStarted FeedEventType = "session.started"
	EventSessionWaiting FeedEventType = "session.waiting"
	EventMessageCreated FeedEventType = "message.created"
	EventSessionTyping  FeedEventType = "session.typing"
	EventSessionEnded   FeedEventType = "session.ended"
)

// FeedEvent is one live feed notification. Clients still load the queue
// snapshot; events only tell them what changed since.
type FeedEvent struct {
	Type        FeedEventType    `json:"type"`
	SessionID   string           `json:"sessionId"`
	Status      SessionStatus    `json:"status,omitempty"`
	AdminTyping *bool            `json:"adminTyping,omitempty"`
	Message     *MessageResponse `json:"message,omitempty"`
	At          time.Time        `json:"at"`
}
