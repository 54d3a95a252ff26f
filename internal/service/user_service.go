package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"go.uber.org/zap"
)

type UserService struct {
	users  UserStore
	logger *zap.Logger
}

func NewUserService(users UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// Register создаёт пользователя платформы
func (s *UserService) Register(ctx context.Context, user *model.User) (*model.User, error) {
	user.Name = strings.TrimSpace(user.Name)
	user.FullName = strings.TrimSpace(user.FullName)

	if user.Name == "" && user.FullName == "" {
		return nil, invalid("name is required")
	}
	if !user.Role.IsValid() {
		return nil, invalid("unknown role %q", user.Role)
	}
	if user.Email != "" {
		if _, err := mail.ParseAddress(user.Email); err != nil {
			return nil, invalid("email %q is malformed", user.Email)
		}
	}

	err := s.users.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("New user registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return user, nil
}

// Get получает пользователя по ID
func (s *UserService) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFound("user", id)
	}
	return user, nil
}

// GetByTelegramID получает пользователя по Telegram ID, nil если не привязан
func (s *UserService) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	return s.users.GetByTelegramID(ctx, telegramID)
}

// LinkTelegram привязывает Telegram к существующему пользователю
func (s *UserService) LinkTelegram(ctx context.Context, userID, telegramID int64) (*model.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("check telegram link: %w", err)
	}
	if existing != nil && existing.ID != userID {
		return nil, fmt.Errorf("%w: telegram account already linked to user %d", ErrConflict, existing.ID)
	}

	err = s.users.LinkTelegram(ctx, userID, telegramID)
	if err != nil {
		return nil, fmt.Errorf("link telegram: %w", err)
	}
	user.TelegramID = &telegramID

	s.logger.Info("Telegram linked",
		zap.Int64("user_id", userID),
		zap.Int64("telegram_id", telegramID),
	)

	return user, nil
}
