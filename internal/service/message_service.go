package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"go.uber.org/zap"
)

type MessageService struct {
	messages  MessageStore
	requests  ConnectionRequestStore
	users     UserStore
	observers Observer
	logger    *zap.Logger
}

func NewMessageService(
	messages MessageStore,
	requests ConnectionRequestStore,
	users UserStore,
	observers Observer,
	logger *zap.Logger,
) *MessageService {
	if observers == nil {
		observers = Observers(nil)
	}
	return &MessageService{
		messages:  messages,
		requests:  requests,
		users:     users,
		observers: observers,
		logger:    logger,
	}
}

// SendInput сообщение от одного участника пары другому
type SendInput struct {
	SenderType model.SenderType
	SenderID   int64
	ReceiverID int64
	Content    string
}

// Send сохраняет сообщение. Писать можно только внутри принятой заявки
func (s *MessageService) Send(ctx context.Context, actor Actor, in SendInput) (*model.Message, error) {
	if !in.SenderType.IsValid() {
		return nil, invalid("sender_type must be student or mentor, got %q", in.SenderType)
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, invalid("content is required")
	}

	if in.SenderID == in.ReceiverID {
		return nil, invalid("sender and receiver must differ")
	}

	if actor.UserID != in.SenderID && !actor.IsAdmin() {
		return nil, forbidden("user %d cannot send as %d", actor.UserID, in.SenderID)
	}

	msg := &model.Message{
		SenderType: in.SenderType,
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Content:    content,
	}

	studentID, mentorID := msg.Pair()
	connected, err := s.requests.IsAccepted(ctx, studentID, mentorID)
	if err != nil {
		return nil, fmt.Errorf("check connection: %w", err)
	}
	if !connected {
		return nil, forbidden("student %d and mentor %d are not connected", studentID, mentorID)
	}

	err = s.messages.Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	senderName := model.FallbackName(in.SenderID)
	sender, err := s.users.GetByID(ctx, in.SenderID)
	if err != nil {
		s.logger.Warn("Failed to load sender name", zap.Int64("sender_id", in.SenderID), zap.Error(err))
	} else if sender != nil {
		senderName = sender.DisplayName()
	}

	s.logger.Info("Message sent",
		zap.Int64("message_id", msg.ID),
		zap.Int64("sender_id", msg.SenderID),
		zap.Int64("receiver_id", msg.ReceiverID),
	)

	s.observers.MessageSent(ctx, msg, senderName)

	return msg, nil
}

// Conversation переписка пары в обе стороны, по времени
func (s *MessageService) Conversation(ctx context.Context, actor Actor, userID, otherID int64) ([]*model.Message, error) {
	if actor.UserID != userID && actor.UserID != otherID && !actor.IsAdmin() {
		return nil, forbidden("user %d is not part of this conversation", actor.UserID)
	}

	messages, err := s.messages.GetConversation(ctx, userID, otherID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return messages, nil
}

// Inbox входящие сообщения пользователя
func (s *MessageService) Inbox(ctx context.Context, actor Actor, userID int64) ([]*model.Message, error) {
	if actor.UserID != userID && !actor.IsAdmin() {
		return nil, forbidden("user %d cannot read inbox of %d", actor.UserID, userID)
	}

	messages, err := s.messages.GetInbox(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get inbox: %w", err)
	}
	return messages, nil
}

// MarkConversationRead отмечает прочитанными входящие от otherID
func (s *MessageService) MarkConversationRead(ctx context.Context, actor Actor, otherID int64) (int64, error) {
	marked, err := s.messages.MarkRead(ctx, actor.UserID, otherID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}

	if marked > 0 {
		s.logger.Debug("Messages marked read",
			zap.Int64("reader_id", actor.UserID),
			zap.Int64("sender_id", otherID),
			zap.Int64("count", marked),
		)
	}
	return marked, nil
}
