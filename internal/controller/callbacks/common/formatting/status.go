package formatting

import "github.com/Freeeeeet/mentorship_hub/internal/model"

// StatusDisplay представляет отображение статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetConnectionStatusDisplay возвращает emoji и текст для статуса заявки
func GetConnectionStatusDisplay(status model.ConnectionStatus) StatusDisplay {
	displays := map[model.ConnectionStatus]StatusDisplay{
		model.ConnectionStatusPending:  {"⏳", "Ожидает ответа"},
		model.ConnectionStatusAccepted: {"✅", "Принята"},
		model.ConnectionStatusRejected: {"🚫", "Отклонена"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

// GetBookingStatusDisplay возвращает emoji и текст для статуса бронирования
func GetBookingStatusDisplay(status model.BookingStatus) StatusDisplay {
	displays := map[model.BookingStatus]StatusDisplay{
		model.BookingStatusPending:   {"⏳", "Ожидает ответа"},
		model.BookingStatusAccepted:  {"✅", "Принята, время не назначено"},
		model.BookingStatusRejected:  {"🚫", "Отклонена"},
		model.BookingStatusScheduled: {"📅", "Встреча назначена"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}
