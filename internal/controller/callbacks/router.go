package callbacks

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common"
	"github.com/Freeeeeet/mentorship_hub/internal/controller/state"
	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Handler обрабатывает нажатия на inline кнопки
type Handler struct {
	users        *service.UserService
	relations    *service.RelationshipService
	bookings     *service.BookingService
	stateManager *state.Manager
	logger       *zap.Logger
}

// NewHandler создаёт обработчик callback query
func NewHandler(
	users *service.UserService,
	relations *service.RelationshipService,
	bookings *service.BookingService,
	stateManager *state.Manager,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:        users,
		relations:    relations,
		bookings:     bookings,
		stateManager: stateManager,
		logger:       logger,
	}
}

// HandleCallbackQuery маршрутизирует callback по действию из callback data
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	callback := update.CallbackQuery

	action, id, err := callbacktypes.Parse(callback.Data)
	if err != nil {
		h.logger.Warn("Unknown callback data",
			zap.String("data", callback.Data),
			zap.Error(err),
		)
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(common.ErrInvalidFormat))
		return
	}

	user, err := h.linkedUser(ctx, callback.From.ID)
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}
	actor := common.ActorFor(user)

	switch action {
	case callbacktypes.ConnAccept:
		h.handleConnectionDecision(ctx, b, callback, actor, id, model.ConnectionStatusAccepted)
	case callbacktypes.ConnReject:
		h.handleConnectionDecision(ctx, b, callback, actor, id, model.ConnectionStatusRejected)
	case callbacktypes.BookAccept:
		h.handleBookingDecision(ctx, b, callback, actor, id, model.BookingStatusAccepted)
	case callbacktypes.BookReject:
		h.handleBookingDecision(ctx, b, callback, actor, id, model.BookingStatusRejected)
	case callbacktypes.BookSchedule:
		h.handleScheduleStart(ctx, b, callback, actor, id)
	default:
		h.logger.Warn("Unhandled callback action", zap.String("action", string(action)))
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(common.ErrInvalidFormat))
	}
}

// linkedUser пользователь платформы, к которому привязан Telegram
func (h *Handler) linkedUser(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := h.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	if user == nil {
		return nil, common.ErrUserNotLinked
	}
	return user, nil
}

// editMessage заменяет текст сообщения с кнопками, из которого пришёл callback
func (h *Handler) editMessage(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, text string, markup models.ReplyMarkup) {
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		h.logger.Warn("Callback without message", zap.String("callback_id", callback.ID))
		return
	}

	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error("Failed to edit message",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Int("message_id", msg.ID),
			zap.Error(err),
		)
	}
}
