package memory

import (
	"context"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
)

type MessageStore struct {
	s *Store
}

func (r *MessageStore) Create(_ context.Context, msg *model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	unread := false
	msg.ID = r.s.nextID()
	msg.Timestamp = r.s.now()
	msg.IsRead = &unread

	stored := *msg
	flag := false
	stored.IsRead = &flag
	r.s.messages = append(r.s.messages, &stored)
	return nil
}

func (r *MessageStore) GetConversation(_ context.Context, a, b int64) ([]*model.Message, error) {
	return r.filter(func(m *model.Message) bool {
		return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
	}), nil
}

func (r *MessageStore) GetInbox(_ context.Context, receiverID int64) ([]*model.Message, error) {
	return r.filter(func(m *model.Message) bool { return m.ReceiverID == receiverID }), nil
}

// filter сообщения хранятся в порядке создания
func (r *MessageStore) filter(match func(*model.Message) bool) []*model.Message {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*model.Message
	for _, m := range r.s.messages {
		if match(m) {
			v := *m
			read := m.Seen()
			v.IsRead = &read
			result = append(result, &v)
		}
	}
	return result
}

func (r *MessageStore) MarkRead(_ context.Context, readerID, otherID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var marked int64
	for _, m := range r.s.messages {
		if m.ReceiverID == readerID && m.SenderID == otherID && !m.Seen() {
			read := true
			m.IsRead = &read
			marked++
		}
	}
	return marked, nil
}
