package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/api"
	"github.com/Freeeeeet/mentorship_hub/internal/channel"
	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/notification"
	"github.com/Freeeeeet/mentorship_hub/internal/storage/local"
	"go.uber.org/zap"
)

var (
	ErrSignedIn    = errors.New("session already signed in")
	ErrNotSignedIn = errors.New("session not signed in")
)

// Store локальное хранилище: наборы прочитанных ключей по пользователям и профиль
type Store interface {
	ReadKeys(ctx context.Context, userID int64) ([]string, error)
	MarkRead(ctx context.Context, userID int64, keys []string) error
	SaveProfile(ctx context.Context, p local.Profile) error
	ClearProfile(ctx context.Context) error
}

// userReads набор прочитанных одного пользователя
type userReads struct {
	store  Store
	userID int64
}

func (r userReads) ReadKeys(ctx context.Context) ([]string, error) {
	return r.store.ReadKeys(ctx, r.userID)
}

func (r userReads) MarkRead(ctx context.Context, keys []string) error {
	return r.store.MarkRead(ctx, r.userID, keys)
}

// Options адреса и период опроса
type Options struct {
	WSBaseURL    string
	APIToken     string
	PollInterval time.Duration
}

// Session контекст вошедшего пользователя. Владеет каналами и опросом:
// всё открывается в SignIn и закрывается в SignOut
type Session struct {
	source notification.Collaborators
	store  Store
	opts   Options
	logger *zap.Logger

	mu            sync.Mutex
	profile       *local.Profile
	creds         api.Credentials
	aggregator    *notification.Aggregator
	poller        *notification.Poller
	notifications *channel.NotificationChannel
	statuses      *StatusTracker
	conversations []*channel.MessageChannel
}

func New(source notification.Collaborators, store Store, opts Options, logger *zap.Logger) *Session {
	return &Session{
		source: source,
		store:  store,
		opts:   opts,
		logger: logger,
	}
}

// SignIn запоминает профиль, загружает прочитанные ключи, открывает глобальный канал и запускает опрос.
// Недоступный канал не мешает входу: уведомления тогда приходят только из опроса
func (s *Session) SignIn(ctx context.Context, profile local.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile != nil {
		return ErrSignedIn
	}
	if profile.UserID <= 0 {
		return fmt.Errorf("sign in: invalid user id %d", profile.UserID)
	}

	if err := s.store.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	logger := s.logger.With(zap.Int64("user_id", profile.UserID), zap.String("role", string(profile.Role)))

	aggregator, err := notification.NewAggregator(ctx, profile.UserID, profile.Role, s.source, userReads{store: s.store, userID: profile.UserID}, logger)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	creds := api.Credentials{Token: s.opts.APIToken, UserID: profile.UserID, Role: profile.Role}

	notifications := channel.NewNotificationChannel(s.opts.WSBaseURL, creds, profile.UserID, logger)
	notifications.OnMessage(func(frame model.UserFrame) {
		aggregator.HandleFrame(frame)
	})
	if err := notifications.Connect(ctx); err != nil {
		logger.Warn("Notification channel unavailable, relying on polling", zap.Error(err))
	}

	poller := notification.NewPoller(aggregator, s.opts.PollInterval, logger)
	// опрос живёт до SignOut, а не до ctx запроса на вход
	if err := poller.Start(context.Background()); err != nil {
		_ = notifications.Close()
		return fmt.Errorf("sign in: %w", err)
	}

	s.profile = &profile
	s.creds = creds
	s.aggregator = aggregator
	s.poller = poller
	s.notifications = notifications
	s.statuses = NewStatusTracker(s.opts.WSBaseURL, creds, logger)

	logger.Info("Signed in")
	return nil
}

// SignOut останавливает опрос, закрывает все каналы и забывает профиль.
// Набор прочитанных ключей пользователя сохраняется до его следующего входа
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil {
		return ErrNotSignedIn
	}

	s.poller.Stop()
	if err := s.notifications.Close(); err != nil {
		s.logger.Warn("Failed to close notification channel", zap.Error(err))
	}
	s.statuses.Close()
	for _, c := range s.conversations {
		if err := c.Close(); err != nil {
			s.logger.Warn("Failed to close conversation channel", zap.Error(err))
		}
	}

	userID := s.profile.UserID
	s.profile = nil
	s.creds = api.Credentials{}
	s.aggregator = nil
	s.poller = nil
	s.notifications = nil
	s.statuses = nil
	s.conversations = nil

	if err := s.store.ClearProfile(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	s.logger.Info("Signed out", zap.Int64("user_id", userID))
	return nil
}

// Profile текущий пользователь или nil
func (s *Session) Profile() *local.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

func (s *Session) Notifications() (*notification.Aggregator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, ErrNotSignedIn
	}
	return s.aggregator, nil
}

// NotificationChannel глобальный канал, чтобы владелец мог следить за обрывом
func (s *Session) NotificationChannel() (*channel.NotificationChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, ErrNotSignedIn
	}
	return s.notifications, nil
}

func (s *Session) Statuses() (*StatusTracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, ErrNotSignedIn
	}
	return s.statuses, nil
}

// OpenConversation открывает канал переписки с otherID. Канал закроется при SignOut
func (s *Session) OpenConversation(ctx context.Context, otherID int64, handler func(model.ChatFrame)) (*channel.MessageChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, ErrNotSignedIn
	}

	ch := channel.NewMessageChannel(s.opts.WSBaseURL, s.creds, s.profile.UserID, otherID, s.logger)
	ch.OnMessage(handler)
	if err := ch.Connect(ctx); err != nil {
		return nil, fmt.Errorf("open conversation with %d: %w", otherID, err)
	}
	s.conversations = append(s.conversations, ch)
	return ch, nil
}
