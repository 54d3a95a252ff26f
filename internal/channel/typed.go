package channel

import (
	"fmt"

	"github.com/Freeeeeet/mentorship_hub/internal/api"
	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"go.uber.org/zap"
)

// MessageChannel канал одной переписки, по экземпляру на открытый диалог
type MessageChannel struct {
	*Socket[model.ChatFrame]
	SenderID   int64
	ReceiverID int64
}

func NewMessageChannel(wsBase string, creds api.Credentials, senderID, receiverID int64, logger *zap.Logger) *MessageChannel {
	path := fmt.Sprintf("/ws/chat/%d/%d/", senderID, receiverID)
	return &MessageChannel{
		Socket:     NewSocket[model.ChatFrame](wsURL(wsBase, path), creds, logger),
		SenderID:   senderID,
		ReceiverID: receiverID,
	}
}

// SendText отправляет сообщение через сокет переписки
func (c *MessageChannel) SendText(senderType model.SenderType, content string) error {
	return c.Send(model.ChatSend{
		Content:    content,
		SenderType: senderType,
		SenderID:   model.FlexID(c.SenderID),
		ReceiverID: model.FlexID(c.ReceiverID),
	})
}

// StatusChannel канал статусов одной заявки или одного бронирования
type StatusChannel struct {
	*Socket[model.StatusFrame]
	Kind model.StatusKind
	ID   int64
}

func NewConnectionStatusChannel(wsBase string, creds api.Credentials, connectionID int64, logger *zap.Logger) *StatusChannel {
	path := fmt.Sprintf("/ws/status/%d/", connectionID)
	return &StatusChannel{
		Socket: NewSocket[model.StatusFrame](wsURL(wsBase, path), creds, logger),
		Kind:   model.StatusKindConnection,
		ID:     connectionID,
	}
}

func NewBookingStatusChannel(wsBase string, creds api.Credentials, bookingID int64, logger *zap.Logger) *StatusChannel {
	path := fmt.Sprintf("/ws/booking-status/%d/", bookingID)
	return &StatusChannel{
		Socket: NewSocket[model.StatusFrame](wsURL(wsBase, path), creds, logger),
		Kind:   model.StatusKindBooking,
		ID:     bookingID,
	}
}

// NotificationChannel глобальный канал уведомлений пользователя
type NotificationChannel struct {
	*Socket[model.UserFrame]
	UserID int64
}

func NewNotificationChannel(wsBase string, creds api.Credentials, userID int64, logger *zap.Logger) *NotificationChannel {
	path := fmt.Sprintf("/ws/notifications/%d/", userID)
	return &NotificationChannel{
		Socket: NewSocket[model.UserFrame](wsURL(wsBase, path), creds, logger),
		UserID: userID,
	}
}
