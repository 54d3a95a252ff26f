// Package memory хранилища в памяти процесса с той же семантикой, что и postgres репозитории.
// Используются в dev режиме без DB_DSN и как фейки в тестах.
package memory

import (
	"sync"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
)

// Store общее состояние всех таблиц под одним мьютексом
type Store struct {
	mu sync.RWMutex

	users    map[int64]*model.User
	requests map[int64]*model.ConnectionRequest
	bookings map[int64]*model.Booking
	messages []*model.Message

	seq int64
	now func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[int64]*model.User),
		requests: make(map[int64]*model.ConnectionRequest),
		bookings: make(map[int64]*model.Booking),
		now:      time.Now,
	}
}

// SetClock подменяет время создания записей
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() *UserStore {
	return &UserStore{s: s}
}

func (s *Store) ConnectionRequests() *ConnectionRequestStore {
	return &ConnectionRequestStore{s: s}
}

func (s *Store) Bookings() *BookingStore {
	return &BookingStore{s: s}
}

func (s *Store) Messages() *MessageStore {
	return &MessageStore{s: s}
}

// nextID вызывается под s.mu
func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// displayName вызывается под s.mu
func (s *Store) displayName(id int64) string {
	if u, ok := s.users[id]; ok {
		if u.FullName != "" {
			return u.FullName
		}
		return u.Name
	}
	return ""
}
