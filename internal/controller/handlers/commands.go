package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/mentorship_hub/internal/controller/state"
	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// maxListedItems сколько карточек с кнопками бот отправляет за раз
const maxListedItems = 10

const helpText = "📚 Справка по командам:\n\n" +
	"/start - Статус привязки Telegram\n" +
	"/requests - Заявки на менторство\n" +
	"/bookings - Встречи\n" +
	"/cancel - Отменить текущее действие\n" +
	"/help - Показать эту справку\n\n" +
	"Менторы получают новые заявки и запросы встреч с кнопками «Принять» и «Отклонить».\n" +
	"Студенты получают решения ментора и данные назначенных встреч."

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	if user == nil {
		h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
			"👋 Привет!\n\n"+
				"Этот бот присылает заявки на менторство и запросы встреч.\n\n"+
				"Ваш Telegram ID: %d\n"+
				"Привяжите его к аккаунту на платформе в настройках профиля, затем снова отправьте /start.",
			telegramID,
		), nil)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, fmt.Sprintf(
		"👋 Привет, %s!\n\nTelegram привязан к аккаунту (%s).\n\n%s",
		user.DisplayName(),
		user.Role,
		helpText,
	), nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleCancel сбрасывает активный диалог
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "Нет активного действия.", nil)
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Действие отменено.", nil)
}

// HandleRequests ментору показывает ожидающие заявки, студенту его заявки
func (h *Handlers) HandleRequests(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	if user.Role == model.RoleMentor {
		pending, err := h.relationService.ListPendingForMentor(ctx, user.ID)
		if err != nil {
			h.logger.Error("Failed to list pending requests", zap.Int64("mentor_id", user.ID), zap.Error(err))
			h.sendError(ctx, b, chatID, "❌ Не удалось загрузить заявки.")
			return
		}
		if len(pending) == 0 {
			h.sendMessage(ctx, b, chatID, "📭 Новых заявок нет.", nil)
			return
		}

		h.sendMessage(ctx, b, chatID, fmt.Sprintf("🤝 Ожидают ответа: %d", len(pending)), nil)
		for i, req := range pending {
			if i == maxListedItems {
				break
			}
			h.sendMessage(ctx, b, chatID, formatting.ConnectionRequestCard(req), keyboard.ConnectionDecision(req.ID))
		}
		return
	}

	requests, err := h.relationService.ListForStudent(ctx, user.ID)
	if err != nil {
		h.logger.Error("Failed to list student requests", zap.Int64("student_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить заявки.")
		return
	}
	if len(requests) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 Вы ещё не отправляли заявок.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("🤝 Ваши заявки:\n\n")
	for _, req := range requests {
		display := formatting.GetConnectionStatusDisplay(req.Status)
		fmt.Fprintf(&sb, "%s %s - %s\n", display.Emoji, formatting.NameOr(req.MentorName, req.MentorID), display.Text)
	}
	h.sendMessage(ctx, b, chatID, sb.String(), nil)
}

// HandleBookings ментору показывает запросы встреч, студенту предстоящие встречи
func (h *Handlers) HandleBookings(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := h.requireUser(ctx, b, update)
	if !ok {
		return
	}
	chatID := update.Message.Chat.ID

	if user.Role == model.RoleMentor {
		h.showMentorBookings(ctx, b, chatID, user)
		return
	}

	bookings, err := h.bookingService.ListForStudent(ctx, user.ID, true)
	if err != nil {
		h.logger.Error("Failed to list student bookings", zap.Int64("student_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить встречи.")
		return
	}
	if len(bookings) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 Предстоящих встреч нет.", nil)
		return
	}

	cards := make([]string, 0, len(bookings))
	for _, booking := range bookings {
		cards = append(cards, formatting.BookingCard(booking))
	}
	h.sendMessage(ctx, b, chatID, "📅 Предстоящие встречи:\n\n"+strings.Join(cards, "\n\n"), nil)
}

func (h *Handlers) showMentorBookings(ctx context.Context, b *bot.Bot, chatID int64, user *model.User) {
	pending, err := h.bookingService.ListPendingForMentor(ctx, user.ID)
	if err != nil {
		h.logger.Error("Failed to list pending bookings", zap.Int64("mentor_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить встречи.")
		return
	}

	accepted, err := h.bookingService.ListAcceptedForMentor(ctx, user.ID)
	if err != nil {
		h.logger.Error("Failed to list accepted bookings", zap.Int64("mentor_id", user.ID), zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить встречи.")
		return
	}

	// Назначенные встречи в списке не нужны, кнопок у них нет
	var unscheduled []*model.Booking
	for _, booking := range accepted {
		if booking.Status == model.BookingStatusAccepted {
			unscheduled = append(unscheduled, booking)
		}
	}

	if len(pending) == 0 && len(unscheduled) == 0 {
		h.sendMessage(ctx, b, chatID, "📭 Новых запросов встреч нет.", nil)
		return
	}

	h.sendMessage(ctx, b, chatID, fmt.Sprintf(
		"📚 Запросов встреч: %d\n📅 Ждут назначения: %d", len(pending), len(unscheduled),
	), nil)

	sent := 0
	for _, booking := range pending {
		if sent == maxListedItems {
			return
		}
		h.sendMessage(ctx, b, chatID, formatting.BookingCard(booking), keyboard.BookingDecision(booking.ID))
		sent++
	}
	for _, booking := range unscheduled {
		if sent == maxListedItems {
			return
		}
		h.sendMessage(ctx, b, chatID, formatting.BookingCard(booking), keyboard.ScheduleBooking(booking.ID))
		sent++
	}
}

// HandleTextMessage обрабатывает текст в рамках активного диалога
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// Игнорируем команды (они обрабатываются другими handlers)
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)

	if currentState == state.StateNone {
		h.logger.Debug("No active state, ignoring message", zap.Int64("telegram_id", telegramID))
		return
	}

	h.handleScheduleStep(ctx, b, update, currentState)
}
