package keyboard

import (
	"github.com/Freeeeeet/mentorship_hub/internal/controller/callbacks/callbacktypes"
	"github.com/go-telegram/bot/models"
)

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

// NewBuilder создаёт новый builder клавиатуры
func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Button создаёт кнопку
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// URLButton создаёт кнопку с URL
func URLButton(text, url string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text: text,
		URL:  url,
	}
}

// Build создаёт финальную клавиатуру
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

// ConnectionDecision кнопки ответа на заявку на менторство
func ConnectionDecision(requestID int64) *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(
			Button("✅ Принять", callbacktypes.Data(callbacktypes.ConnAccept, requestID)),
			Button("❌ Отклонить", callbacktypes.Data(callbacktypes.ConnReject, requestID)),
		).
		Build()
}

// BookingDecision кнопки ответа на запрос встречи
func BookingDecision(bookingID int64) *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(
			Button("✅ Принять", callbacktypes.Data(callbacktypes.BookAccept, bookingID)),
			Button("❌ Отклонить", callbacktypes.Data(callbacktypes.BookReject, bookingID)),
		).
		Build()
}

// ScheduleBooking кнопка назначения встречи по принятому бронированию
func ScheduleBooking(bookingID int64) *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(Button("📅 Назначить встречу", callbacktypes.Data(callbacktypes.BookSchedule, bookingID))).
		Build()
}

// MeetingLink кнопка перехода на встречу
func MeetingLink(link string) *models.InlineKeyboardMarkup {
	return NewBuilder().
		Row(URLButton("🔗 Подключиться", link)).
		Build()
}
