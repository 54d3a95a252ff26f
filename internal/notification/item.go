package notification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindMessage    Kind = "message"
	KindSession    Kind = "session"
	KindBooking    Kind = "booking"
	KindConnection Kind = "connection"
)

// Source откуда пришло уведомление
type Source string

const (
	SourcePush  Source = "push"
	SourceLocal Source = "local"
	SourcePoll  Source = "poll"
)

// MessagesKey ключ агрегата непрочитанных сообщений
const MessagesKey = "messages"

// Item уведомление для отображения. ID синтетический и живёт только в памяти,
// Key выводится из сущности и попадает в набор прочитанных
type Item struct {
	ID          uuid.UUID
	Key         string
	Kind        Kind
	Title       string
	Description string
	Unread      bool
	Count       int
	Source      Source
	CreatedAt   time.Time
}

func SessionKey(bookingID int64) string {
	return fmt.Sprintf("session%d", bookingID)
}

func BookingKey(bookingID int64) string {
	return fmt.Sprintf("booking%d", bookingID)
}

func ConnectionKey(requestID int64) string {
	return fmt.Sprintf("conn%d", requestID)
}

// PushMessageKey ключ push уведомления о сообщении: отправитель и время отправки
func PushMessageKey(senderID int64, timestamp string) string {
	return fmt.Sprintf("msg%d@%s", senderID, timestamp)
}

// LocalEvent уведомление, поднятое самим клиентом (например, тестовое)
type LocalEvent struct {
	Kind        Kind
	Title       string
	Description string
	// Key необязателен, без него событие никогда не подавляется
	Key string
}
