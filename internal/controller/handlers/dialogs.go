package handlers

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common"
	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/mentorship_hub/internal/controller/state"
	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

var (
	errEmptyInput  = errors.New("empty input")
	errInvalidLink = errors.New("invalid meeting link")
	errTimeInPast  = errors.New("time in the past")
)

// skipInputMarker пропуск необязательного шага
const skipInputMarker = "-"

// handleScheduleStep один шаг диалога назначения встречи
func (h *Handlers) handleScheduleStep(ctx context.Context, b *bot.Bot, update *models.Update, current state.UserState) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	switch current {
	case state.StateScheduleDateTime:
		at, err := parseMeetingTime(text, h.location, time.Now())
		if err != nil {
			h.sendError(ctx, b, chatID, "❌ Неверная дата. Введите будущие дату и время в формате ДД.ММ.ГГГГ ЧЧ:ММ")
			return
		}
		h.stateManager.Advance(telegramID, state.StateScheduleLink, func(d *state.ScheduleDraft) {
			d.ScheduledDateTime = at
		})
		h.sendMessage(ctx, b, chatID, "🔗 Отправьте ссылку на встречу (https://...)", nil)

	case state.StateScheduleLink:
		link, err := parseMeetingLink(text)
		if err != nil {
			h.sendError(ctx, b, chatID, "❌ Нужна полная ссылка, например https://zoom.us/j/123")
			return
		}
		h.stateManager.Advance(telegramID, state.StateScheduleMeetingID, func(d *state.ScheduleDraft) {
			d.MeetingLink = link
		})
		h.sendMessage(ctx, b, chatID, "🆔 Введите ID встречи", nil)

	case state.StateScheduleMeetingID:
		if text == "" {
			h.sendError(ctx, b, chatID, "❌ ID встречи не может быть пустым")
			return
		}
		h.stateManager.Advance(telegramID, state.StateSchedulePasscode, func(d *state.ScheduleDraft) {
			d.MeetingID = text
		})
		h.sendMessage(ctx, b, chatID, "🔑 Введите код доступа", nil)

	case state.StateSchedulePasscode:
		if text == "" {
			h.sendError(ctx, b, chatID, "❌ Код доступа не может быть пустым")
			return
		}
		h.stateManager.Advance(telegramID, state.StateScheduleNotes, func(d *state.ScheduleDraft) {
			d.Passcode = text
		})
		h.sendMessage(ctx, b, chatID, "📝 Заметки для студента (или «-», чтобы пропустить)", nil)

	case state.StateScheduleNotes:
		h.finishSchedule(ctx, b, update, parseNotes(text))

	default:
		h.logger.Warn("Unknown dialog state",
			zap.Int64("telegram_id", telegramID),
			zap.String("state", string(current)),
		)
		h.stateManager.ClearState(telegramID)
	}
}

// finishSchedule отправляет собранные данные в сервис и завершает диалог
func (h *Handlers) finishSchedule(ctx context.Context, b *bot.Bot, update *models.Update, notes string) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	draft, ok := h.stateManager.Draft(telegramID)
	h.stateManager.ClearState(telegramID)
	if !ok {
		h.sendError(ctx, b, chatID, "⌛️ Диалог истёк. Начните заново из /bookings")
		return
	}

	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}

	booking, err := h.bookingService.Schedule(ctx, common.ActorFor(user), draft.BookingID, model.ScheduleDetails{
		ScheduledDateTime: draft.ScheduledDateTime,
		MeetingLink:       draft.MeetingLink,
		MeetingID:         draft.MeetingID,
		Passcode:          draft.Passcode,
		Notes:             notes,
	})
	if err != nil {
		h.logger.Warn("Failed to schedule booking",
			zap.Int64("booking_id", draft.BookingID),
			zap.Int64("mentor_id", user.ID),
			zap.Error(err),
		)
		h.sendError(ctx, b, chatID, common.ErrorMessage(err))
		return
	}

	h.sendMessage(ctx, b, chatID,
		"✅ Встреча назначена, студент получит уведомление.\n\n"+formatting.BookingCard(booking),
		keyboard.MeetingLink(draft.MeetingLink),
	)
}

// parseMeetingTime дата встречи не может быть в прошлом
func parseMeetingTime(input string, loc *time.Location, now time.Time) (time.Time, error) {
	if input == "" {
		return time.Time{}, errEmptyInput
	}
	at, err := formatting.ParseDateTime(input, loc)
	if err != nil {
		return time.Time{}, err
	}
	if at.Before(now) {
		return time.Time{}, errTimeInPast
	}
	return at, nil
}

// parseMeetingLink принимает только абсолютные http(s) ссылки
func parseMeetingLink(input string) (string, error) {
	u, err := url.ParseRequestURI(input)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", errInvalidLink
	}
	return input, nil
}

func parseNotes(input string) string {
	if input == skipInputMarker {
		return ""
	}
	return input
}
