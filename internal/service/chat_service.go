package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"brokerage-chat/backend/internal/models"
	"brokerage-chat/backend/internal/notify"
	"brokerage-chat/backend/internal/repository"
	"brokerage-chat/backend/pkg/config"
	"brokerage-chat/backend/pkg/logger"
	"brokerage-chat/backend/pkg/middleware"
	"brokerage-chat/backend/shared/observability"

	"github.com/google/uuid"
)

// Publisher receives live feed events; the websocket hub implements it
type Publisher interface {
	Publish(event models.FeedEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.FeedEvent) {}

// OperatorIdentity is who is replying, as known from the bearer token
type OperatorIdentity struct {
	ID   uint
	Name string
}

// ChatService runs the visitor chat session lifecycle
type ChatService struct {
	sessions  repository.SessionRepository
	operators repository.OperatorRepository
	notifier  notify.Notifier
	feed      Publisher
	cfg       config.ChatConfig
	welcome   *welcomeTemplates
	log       *logger.Logger
	now       func() time.Time

	wg sync.WaitGroup
}

// ChatServiceOption customises a ChatService
type ChatServiceOption func(*ChatService)

// WithNotifier sets the lead notifier
func WithNotifier(n notify.Notifier) ChatServiceOption {
	return func(s *ChatService) { s.notifier = n }
}

// WithPublisher sets the live feed publisher
func WithPublisher(p Publisher) ChatServiceOption {
	return func(s *ChatService) { s.feed = p }
}

// WithOperatorRepository enables stored-name fallback for reply sender names
func WithOperatorRepository(r repository.OperatorRepository) ChatServiceOption {
	return func(s *ChatService) { s.operators = r }
}

// NewChatService creates a chat service
func NewChatService(sessions repository.SessionRepository, cfg config.ChatConfig, log *logger.Logger, opts ...ChatServiceOption) *ChatService {
	if log == nil {
		log = logger.GetGlobal()
	}
	s := &ChatService{
		sessions: sessions,
		feed:     nopPublisher{},
		cfg:      cfg,
		welcome:  newWelcomeTemplates(cfg.DefaultLocale),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier(log)
	}
	return s
}

// Start creates a bot-mode session seeded with a welcome message
func (s *ChatService) Start(ctx context.Context, req models.StartSessionRequest) (session *models.ChatSession, err error) {
	ctx, end := startOp(ctx, "chat.Start", "")
	defer func() { end(err) }()

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	phone := strings.TrimSpace(req.Phone)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	case email == "":
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	case phone == "":
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}

	text, err := s.welcome.render(req.Locale, name)
	if err != nil {
		return nil, err
	}

	session = &models.ChatSession{
		ID:     uuid.NewString(),
		Name:   name,
		Email:  email,
		Phone:  phone,
		Status: models.StatusBot,
	}
	seed := &models.ChatMessage{
		Sender:     models.SenderBot,
		SenderName: s.cfg.BotName,
		Content:    text,
	}

	if err := s.sessions.CreateWithMessage(ctx, session, seed); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	observability.RecordSessionStarted()
	observability.RecordMessage(string(models.SenderBot))
	s.log.Info("Chat session started", "session_id", session.ID)

	s.publish(models.FeedEvent{Type: models.EventSessionStarted, SessionID: session.ID, Status: session.Status})

	lead := *session
	s.background(ctx, "lead notification", func(ctx context.Context) error {
		return s.notifier.NotifyNewLead(ctx, &lead)
	})

	return session, nil
}

// History returns the ordered log; unknown ids yield an empty list
func (s *ChatService) History(ctx context.Context, sessionID string) (messages []models.ChatMessage, err error) {
	ctx, end := startOp(ctx, "chat.History", sessionID)
	defer func() { end(err) }()

	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrValidation)
	}
	return s.sessions.ListMessages(ctx, sessionID)
}

// PostVisitorMessage appends a visitor message to the log
func (s *ChatService) PostVisitorMessage(ctx context.Context, sessionID, content string) (msg *models.ChatMessage, err error) {
	ctx, end := startOp(ctx, "chat.PostVisitorMessage", sessionID)
	defer func() { end(err) }()

	content, err = s.cleanContent(content)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msg = &models.ChatMessage{
		SessionID:  session.ID,
		Sender:     models.SenderUser,
		SenderName: session.Name,
		Content:    content,
	}
	if err := s.sessions.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	observability.RecordMessage(string(models.SenderUser))
	resp := msg.ToResponse()
	s.publish(models.FeedEvent{Type: models.EventMessageCreated, SessionID: session.ID, Status: session.Status, Message: &resp})

	return msg, nil
}

// RequestOperator moves a bot session to the waiting queue. Waiting sessions
// are left alone; active ones return ErrSessionClaimed.
func (s *ChatService) RequestOperator(ctx context.Context, sessionID string) (session *models.ChatSession, err error) {
	ctx, end := startOp(ctx, "chat.RequestOperator", sessionID)
	defer func() { end(err) }()

	session, err = s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case models.StatusLiveWaiting:
		return session, nil
	case models.StatusLiveActive:
		return nil, ErrSessionClaimed
	}

	moved, err := s.sessions.UpdateStatusIf(ctx, sessionID, models.StatusBot, models.StatusLiveWaiting)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Lost a race; report whatever state won
		session, err = s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session.Status == models.StatusLiveActive {
			return nil, ErrSessionClaimed
		}
		return session, nil
	}

	session.Status = models.StatusLiveWaiting
	observability.RecordStatusTransition(string(models.StatusLiveWaiting))
	s.publish(models.FeedEvent{Type: models.EventSessionWaiting, SessionID: sessionID, Status: session.Status})

	return session, nil
}

// SetTyping sets the session's adminTyping flag. A bot session has no
// operator, so its flag is always stored as false.
func (s *ChatService) SetTyping(ctx context.Context, sessionID string, typing bool) (err error) {
	ctx, end := startOp(ctx, "chat.SetTyping", sessionID)
	defer func() { end(err) }()

	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: sessionId is required", ErrValidation)
	}
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status == models.StatusBot {
		typing = false
	}
	if err := s.sessions.SetTyping(ctx, sessionID, typing); err != nil {
		return err
	}

	s.publish(models.FeedEvent{Type: models.EventSessionTyping, SessionID: sessionID, AdminTyping: &typing})
	return nil
}

// Reply appends an operator message and hands the session to that operator
func (s *ChatService) Reply(ctx context.Context, op OperatorIdentity, sessionID, content string) (msg *models.ChatMessage, session *models.ChatSession, err error) {
	ctx, end := startOp(ctx, "chat.Reply", sessionID)
	defer func() { end(err) }()

	content, err = s.cleanContent(content)
	if err != nil {
		return nil, nil, err
	}

	msg = &models.ChatMessage{
		SessionID:  sessionID,
		Sender:     models.SenderAdmin,
		SenderName: s.senderName(ctx, op),
		Content:    content,
	}

	var operatorID *uint
	if op.ID != 0 {
		id := op.ID
		operatorID = &id
	}

	session, err = s.sessions.ApplyReply(ctx, msg, operatorID)
	if err != nil {
		return nil, nil, err
	}

	observability.RecordMessage(string(models.SenderAdmin))
	observability.RecordStatusTransition(string(models.StatusLiveActive))
	resp := msg.ToResponse()
	s.publish(models.FeedEvent{Type: models.EventMessageCreated, SessionID: sessionID, Status: session.Status, Message: &resp})

	return msg, session, nil
}

// End returns the session to bot mode
func (s *ChatService) End(ctx context.Context, sessionID string) (err error) {
	ctx, end := startOp(ctx, "chat.End", sessionID)
	defer func() { end(err) }()

	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: sessionId is required", ErrValidation)
	}
	if err := s.sessions.End(ctx, sessionID); err != nil {
		return err
	}

	observability.RecordStatusTransition(string(models.StatusBot))
	s.publish(models.FeedEvent{Type: models.EventSessionEnded, SessionID: sessionID, Status: models.StatusBot})
	return nil
}

// Queue lists live sessions, most recently active first
func (s *ChatService) Queue(ctx context.Context) (sessions []models.ChatSession, err error) {
	ctx, end := startOp(ctx, "chat.Queue", "")
	defer func() { end(err) }()

	return s.sessions.ListByStatus(ctx, models.StatusLiveWaiting, models.StatusLiveActive)
}

// Status returns what the widget polls for
func (s *ChatService) Status(ctx context.Context, sessionID string) (status *models.SessionStatusResponse, err error) {
	ctx, end := startOp(ctx, "chat.Status", sessionID)
	defer func() { end(err) }()

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.SessionStatusResponse{Status: session.Status, AdminTyping: session.AdminTyping}, nil
}

// Wait blocks until background side effects have finished
func (s *ChatService) Wait() {
	s.wg.Wait()
}

func (s *ChatService) cleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: message is required", ErrValidation)
	}
	if limit := s.cfg.MaxMessageLength; limit > 0 && utf8.RuneCountInString(content) > limit {
		return "", fmt.Errorf("%w: message is longer than %d characters", ErrValidation, limit)
	}
	return content, nil
}

// senderName prefers the token name, then the stored operator name, then the
// configured generic label
func (s *ChatService) senderName(ctx context.Context, op OperatorIdentity) string {
	if name := strings.TrimSpace(op.Name); name != "" {
		return name
	}
	if s.operators != nil && op.ID != 0 {
		stored, err := s.operators.GetByID(ctx, op.ID)
		if err == nil && strings.TrimSpace(stored.Name) != "" {
			return strings.TrimSpace(stored.Name)
		}
	}
	return s.cfg.OperatorFallback
}

func (s *ChatService) publish(event models.FeedEvent) {
	if event.At.IsZero() {
		event.At = s.now()
	}
	s.feed.Publish(event)
}

// background runs a side effect detached from the request; failures are logged only
func (s *ChatService) background(ctx context.Context, what string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		if err := fn(ctx); err != nil {
			s.log.Warn("Side effect failed",
				"what", what,
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
	}()
}
