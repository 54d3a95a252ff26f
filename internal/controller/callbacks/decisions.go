package callbacks

import (
	"context"

	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common"
	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// handleConnectionDecision ментор принимает или отклоняет заявку на менторство
func (h *Handler) handleConnectionDecision(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	actor service.Actor,
	requestID int64,
	decision model.ConnectionStatus,
) {
	req, err := h.relations.Respond(ctx, actor, requestID, decision)
	if err != nil {
		h.logger.Warn("Failed to respond to connection request",
			zap.Int64("request_id", requestID),
			zap.String("decision", string(decision)),
			zap.Error(err),
		)
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	display := formatting.GetConnectionStatusDisplay(req.Status)
	common.AnswerCallback(ctx, b, callback.ID, display.Emoji+" "+display.Text)
	h.editMessage(ctx, b, callback, formatting.ConnectionRequestCard(req), nil)
}

// handleBookingDecision ментор принимает или отклоняет запрос встречи
func (h *Handler) handleBookingDecision(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	actor service.Actor,
	bookingID int64,
	decision model.BookingStatus,
) {
	booking, err := h.bookings.Respond(ctx, actor, bookingID, decision)
	if err != nil {
		h.logger.Warn("Failed to respond to booking",
			zap.Int64("booking_id", bookingID),
			zap.String("decision", string(decision)),
			zap.Error(err),
		)
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	display := formatting.GetBookingStatusDisplay(booking.Status)
	common.AnswerCallback(ctx, b, callback.ID, display.Emoji+" "+display.Text)

	// После принятия сразу предлагаем назначить встречу
	if booking.Status == model.BookingStatusAccepted {
		h.editMessage(ctx, b, callback, formatting.BookingCard(booking), keyboard.ScheduleBooking(booking.ID))
		return
	}
	h.editMessage(ctx, b, callback, formatting.BookingCard(booking), nil)
}

// handleScheduleStart начинает диалог назначения встречи
func (h *Handler) handleScheduleStart(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	actor service.Actor,
	bookingID int64,
) {
	booking, err := h.bookings.Get(ctx, actor, bookingID)
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}
	if booking.MentorID != actor.UserID {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(service.ErrForbidden))
		return
	}
	if booking.Status != model.BookingStatusAccepted {
		display := formatting.GetBookingStatusDisplay(booking.Status)
		common.AnswerCallbackAlert(ctx, b, callback.ID, "⚠️ Встречу назначить нельзя: "+display.Text)
		return
	}

	h.stateManager.StartSchedule(callback.From.ID, booking.ID)
	common.AnswerCallback(ctx, b, callback.ID, "")

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: callback.From.ID,
		Text: "📅 Назначение встречи «" + booking.Topic + "»\n\n" +
			"Введите дату и время в формате ДД.ММ.ГГГГ ЧЧ:ММ\n\n" +
			"/cancel - отменить",
	})
	if err != nil {
		h.logger.Error("Failed to send schedule prompt",
			zap.Int64("telegram_id", callback.From.ID),
			zap.Error(err),
		)
	}

	h.logger.Info("Schedule dialog started",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("mentor_id", actor.UserID),
	)
}
