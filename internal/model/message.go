package model

import (
	"fmt"
	"time"
)

type SenderType string

const (
	SenderStudent SenderType = "student"
	SenderMentor  SenderType = "mentor"
)

// IsValid отправителем может быть только студент или ментор
func (t SenderType) IsValid() bool {
	return t == SenderStudent || t == SenderMentor
}

// Message сообщение переписки. После создания не меняется, кроме отметки о прочтении
type Message struct {
	ID         int64      `json:"id"`
	SenderType SenderType `json:"sender_type"`
	SenderID   int64      `json:"sender_id,string"`
	ReceiverID int64      `json:"receiver_id,string"`
	Content    string     `json:"content"`
	Timestamp  time.Time  `json:"timestamp"`
	IsRead     *bool      `json:"is_read,omitempty"` // nil - сервер не сообщил
}

// Seen только явный true считается прочитанным
func (m *Message) Seen() bool {
	return m.IsRead != nil && *m.IsRead
}

// Pair возвращает (studentID, mentorID) по типу отправителя
func (m *Message) Pair() (studentID, mentorID int64) {
	if m.SenderType == SenderStudent {
		return m.SenderID, m.ReceiverID
	}
	return m.ReceiverID, m.SenderID
}

// FallbackName имя пользователя, которого нет в базе
func FallbackName(id int64) string {
	return fmt.Sprintf("User %d", id)
}
