package formatting

import (
	"fmt"
	"strings"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
)

// NameOr возвращает имя или запасной вариант "User <id>"
func NameOr(name string, id int64) string {
	if name != "" {
		return name
	}
	return model.FallbackName(id)
}

// ConnectionRequestCard карточка заявки для ментора
func ConnectionRequestCard(req *model.ConnectionRequest) string {
	display := GetConnectionStatusDisplay(req.Status)

	return fmt.Sprintf(
		"🤝 Заявка #%d\n\n"+
			"👤 Студент: %s\n"+
			"💬 %s\n"+
			"📊 Статус: %s %s\n"+
			"📅 Создана: %s",
		req.ID,
		NameOr(req.StudentName, req.StudentID),
		req.Message,
		display.Emoji, display.Text,
		FormatDateTime(req.CreatedAt),
	)
}

// BookingCard карточка бронирования
func BookingCard(b *model.Booking) string {
	display := GetBookingStatusDisplay(b.Status)

	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 Встреча #%d: %s\n\n", b.ID, b.Topic)
	fmt.Fprintf(&sb, "👤 Студент: %s\n", NameOr(b.StudentName, b.StudentID))
	fmt.Fprintf(&sb, "🎓 Ментор: %s\n", NameOr(b.MentorName, b.MentorID))
	fmt.Fprintf(&sb, "🕐 Желаемое время: %s\n", FormatDateTime(b.PreferredDateTime))
	if b.Message != "" {
		fmt.Fprintf(&sb, "💬 %s\n", b.Message)
	}
	fmt.Fprintf(&sb, "📊 Статус: %s %s", display.Emoji, display.Text)

	if b.Status == model.BookingStatusScheduled {
		sb.WriteString("\n\n")
		sb.WriteString(MeetingDetails(b))
	}

	return sb.String()
}

// MeetingDetails данные назначенной встречи
func MeetingDetails(b *model.Booking) string {
	var sb strings.Builder
	if b.ScheduledDateTime != nil {
		fmt.Fprintf(&sb, "📅 Время: %s\n", FormatDateTime(*b.ScheduledDateTime))
	}
	if b.MeetingLink != nil {
		fmt.Fprintf(&sb, "🔗 Ссылка: %s\n", *b.MeetingLink)
	}
	if b.MeetingID != nil {
		fmt.Fprintf(&sb, "🆔 ID встречи: %s\n", *b.MeetingID)
	}
	if b.Passcode != nil {
		fmt.Fprintf(&sb, "🔑 Код доступа: %s\n", *b.Passcode)
	}
	if b.Notes != nil && *b.Notes != "" {
		fmt.Fprintf(&sb, "📝 %s\n", *b.Notes)
	}
	return strings.TrimRight(sb.String(), "\n")
}
