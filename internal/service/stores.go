package service

import (
	"context"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
)

// Хранилища, с которыми работают сервисы. Реализации: repository (postgres) и repository/memory.
// Lookup по id возвращает nil, nil если записи нет; UpdateStatus возвращает
// repository.ErrStaleStatus, если запись уже не в статусе from.

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	LinkTelegram(ctx context.Context, userID, telegramID int64) error
}

type ConnectionRequestStore interface {
	Create(ctx context.Context, req *model.ConnectionRequest) error
	GetByID(ctx context.Context, id int64) (*model.ConnectionRequest, error)
	GetLatestByPair(ctx context.Context, studentID, mentorID int64) (*model.ConnectionRequest, error)
	HasActiveRequest(ctx context.Context, studentID, mentorID int64) (bool, error)
	IsAccepted(ctx context.Context, studentID, mentorID int64) (bool, error)
	GetByMentor(ctx context.Context, mentorID int64) ([]*model.ConnectionRequest, error)
	GetByStudent(ctx context.Context, studentID int64) ([]*model.ConnectionRequest, error)
	UpdateStatus(ctx context.Context, id int64, from, to model.ConnectionStatus) error
}

type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	GetByStudentID(ctx context.Context, studentID int64, statuses ...model.BookingStatus) ([]*model.Booking, error)
	GetByMentorID(ctx context.Context, mentorID int64, statuses ...model.BookingStatus) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from, to model.BookingStatus) error
	Schedule(ctx context.Context, id int64, details model.ScheduleDetails) error
}

type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	GetConversation(ctx context.Context, a, b int64) ([]*model.Message, error)
	GetInbox(ctx context.Context, receiverID int64) ([]*model.Message, error)
	MarkRead(ctx context.Context, readerID, otherID int64) (int64, error)
}

// Actor пользователь, от имени которого выполняется операция
type Actor struct {
	UserID int64
	Role   model.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}
