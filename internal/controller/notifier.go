package controller

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender часть *bot.Bot, нужная уведомлениям
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// UserLookup поиск получателя уведомления
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Notifier дублирует события заявок и встреч в Telegram.
// Пользователи без привязанного Telegram пропускаются.
type Notifier struct {
	service.NopObserver

	sender MessageSender
	users  UserLookup
	logger *zap.Logger
}

var _ service.Observer = (*Notifier)(nil)

func NewNotifier(sender MessageSender, users UserLookup, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		users:  users,
		logger: logger,
	}
}

// ConnectionRequested ментор получает заявку с кнопками ответа
func (n *Notifier) ConnectionRequested(ctx context.Context, req *model.ConnectionRequest) {
	view := *req
	view.StudentName = n.nameOf(ctx, req.StudentName, req.StudentID)

	n.send(ctx, req.MentorID,
		"🔔 Новая заявка на менторство\n\n"+formatting.ConnectionRequestCard(&view),
		keyboard.ConnectionDecision(req.ID),
	)
}

// ConnectionAnswered студент узнаёт решение ментора
func (n *Notifier) ConnectionAnswered(ctx context.Context, req *model.ConnectionRequest) {
	mentor := n.nameOf(ctx, req.MentorName, req.MentorID)

	var text string
	switch req.Status {
	case model.ConnectionStatusAccepted:
		text = fmt.Sprintf("✅ %s принял(а) вашу заявку на менторство. Теперь можно переписываться и запрашивать встречи.", mentor)
	case model.ConnectionStatusRejected:
		text = fmt.Sprintf("🚫 %s отклонил(а) вашу заявку на менторство.", mentor)
	default:
		return
	}

	n.send(ctx, req.StudentID, text, nil)
}

// BookingRequested ментор получает запрос встречи с кнопками ответа
func (n *Notifier) BookingRequested(ctx context.Context, booking *model.Booking) {
	view := *booking
	view.StudentName = n.nameOf(ctx, booking.StudentName, booking.StudentID)
	view.MentorName = n.nameOf(ctx, booking.MentorName, booking.MentorID)

	n.send(ctx, booking.MentorID,
		"🔔 Новый запрос встречи\n\n"+formatting.BookingCard(&view),
		keyboard.BookingDecision(booking.ID),
	)
}

// BookingChanged студент узнаёт об ответе ментора и о назначении встречи
func (n *Notifier) BookingChanged(ctx context.Context, booking *model.Booking) {
	view := *booking
	view.StudentName = n.nameOf(ctx, booking.StudentName, booking.StudentID)
	view.MentorName = n.nameOf(ctx, booking.MentorName, booking.MentorID)

	switch booking.Status {
	case model.BookingStatusAccepted:
		n.send(ctx, booking.StudentID,
			fmt.Sprintf("✅ %s принял(а) запрос встречи «%s». Время и ссылка придут отдельно.", view.MentorName, booking.Topic),
			nil,
		)
	case model.BookingStatusRejected:
		n.send(ctx, booking.StudentID,
			fmt.Sprintf("🚫 %s отклонил(а) запрос встречи «%s».", view.MentorName, booking.Topic),
			nil,
		)
	case model.BookingStatusScheduled:
		var markup *models.InlineKeyboardMarkup
		if booking.MeetingLink != nil {
			markup = keyboard.MeetingLink(*booking.MeetingLink)
		}
		n.send(ctx, booking.StudentID, "📅 Встреча назначена\n\n"+formatting.BookingCard(&view), markup)
	}
}

// nameOf имя из события или из хранилища
func (n *Notifier) nameOf(ctx context.Context, name string, userID int64) string {
	if name != "" {
		return name
	}
	user, err := n.users.GetByID(ctx, userID)
	if err != nil || user == nil {
		return model.FallbackName(userID)
	}
	return user.DisplayName()
}

func (n *Notifier) send(ctx context.Context, userID int64, text string, markup *models.InlineKeyboardMarkup) {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("Failed to load notification recipient", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if user == nil || user.TelegramID == nil {
		n.logger.Debug("Telegram not linked, skipping notification", zap.Int64("user_id", userID))
		return
	}

	params := &bot.SendMessageParams{
		ChatID: *user.TelegramID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := n.sender.SendMessage(ctx, params); err != nil {
		n.logger.Warn("Failed to send telegram notification",
			zap.Int64("user_id", userID),
			zap.Int64("telegram_id", *user.TelegramID),
			zap.Error(err),
		)
	}
}
