package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Типы кадров канала уведомлений пользователя
const (
	FrameMessageNotification = "message_notification"
	FrameNewRequest          = "new_request"
	FrameBookingRequest      = "booking_request"
	FrameChatMessage         = "message"
)

// StatusKind к какой сущности относится смена статуса
type StatusKind string

const (
	StatusKindConnection StatusKind = "connection"
	StatusKindBooking    StatusKind = "booking"
)

// ChatFrame кадр канала переписки
type ChatFrame struct {
	Type       string   `json:"type"`
	Message    *Message `json:"message"`
	SenderID   int64    `json:"sender_id,string"`
	ReceiverID int64    `json:"receiver_id,string"`
}

// StatusUpdate смена статуса заявки или бронирования
type StatusUpdate struct {
	ID        int64      `json:"id"`
	Kind      StatusKind `json:"kind,omitempty"`
	Status    string     `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// StatusFrame кадр канала статусов
type StatusFrame struct {
	StatusUpdate *StatusUpdate `json:"status_update"`
}

// UserFrame кадр канала уведомлений пользователя
type UserFrame struct {
	Type       string     `json:"type"`
	SenderID   int64      `json:"sender_id,string,omitempty"`
	SenderName string     `json:"sender_name,omitempty"`
	SenderType SenderType `json:"sender_type,omitempty"`
	Content    string     `json:"content,omitempty"`
	Timestamp  string     `json:"timestamp,omitempty"`
	ReceiverID int64      `json:"receiver_id,string"`

	Request *ConnectionRequest `json:"request,omitempty"`
	Booking *Booking           `json:"booking,omitempty"`
}

// NewMessageNotificationText текст уведомления о новом сообщении
func NewMessageNotificationText(senderName string) string {
	return fmt.Sprintf("You have a new message from %s", senderName)
}

// Топики хаба. Имена совпадают на сервере и в redis

// ChatTopic комната переписки: пара id отсортирована, чтобы обе стороны попали в одну комнату
func ChatTopic(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("chat_%d_%d", a, b)
}

// StatusTopic топик статусов заявки
func StatusTopic(connectionID int64) string {
	return fmt.Sprintf("status_%d", connectionID)
}

// BookingStatusTopic топик статусов бронирования
func BookingStatusTopic(bookingID int64) string {
	return fmt.Sprintf("status_booking_%d", bookingID)
}

// UserTopic личный топик уведомлений пользователя
func UserTopic(userID int64) string {
	return fmt.Sprintf("notifications_%d", userID)
}

// ChatSend входящий кадр канала переписки: клиент отправляет сообщение через сокет
type ChatSend struct {
	Content    string     `json:"content"`
	SenderType SenderType `json:"sender_type"`
	SenderID   FlexID     `json:"sender_id"`
	ReceiverID FlexID     `json:"receiver_id"`
}

// FlexID id, который клиенты присылают то числом, то строкой
type FlexID int64

func (id *FlexID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*id = 0
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("parse id %s: %w", data, err)
	}
	*id = FlexID(v)
	return nil
}

// ErrorFrame ответ на входящий кадр, который не удалось обработать
type ErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

const FrameError = "error"
