package memory

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
)

type UserStore struct {
	s *Store
}

func (r *UserStore) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.TelegramID != nil {
		for _, u := range r.s.users {
			if u.TelegramID != nil && *u.TelegramID == *user.TelegramID {
				return fmt.Errorf("create user: telegram_id %d already used", *user.TelegramID)
			}
		}
	}

	user.ID = r.s.nextID()
	user.CreatedAt = r.s.now()
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *UserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	user := *u
	return &user, nil
}

func (r *UserStore) GetByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			user := *u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *UserStore) LinkTelegram(_ context.Context, userID, telegramID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return fmt.Errorf("link telegram: user %d not found", userID)
	}
	id := telegramID
	u.TelegramID = &id
	return nil
}
