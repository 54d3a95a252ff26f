package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает ответа ментора
	BookingStatusAccepted  BookingStatus = "accepted"  // Принята, время ещё не назначено
	BookingStatusRejected  BookingStatus = "rejected"  // Отклонена ментором
	BookingStatusScheduled BookingStatus = "scheduled" // Назначена встреча
)

type Booking struct {
	ID                int64         `json:"id"`
	StudentID         int64         `json:"student_id"`
	MentorID          int64         `json:"mentor_id"`
	Topic             string        `json:"topic"`
	PreferredDateTime time.Time     `json:"preferred_date_time"`
	Message           string        `json:"message"`
	Status            BookingStatus `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	// Заполняются только в статусе scheduled
	ScheduledDateTime *time.Time `json:"scheduled_date_time"`
	MeetingLink       *string    `json:"meeting_link"`
	MeetingID         *string    `json:"meeting_id"`
	Passcode          *string    `json:"passcode"`
	Notes             *string    `json:"notes"`

	// Дополнительные поля для удобства (не из БД)
	StudentName string `json:"student_name,omitempty"`
	MentorName  string `json:"mentor_name,omitempty"`
}

// ScheduleDetails данные встречи, которые ментор прикрепляет при назначении
type ScheduleDetails struct {
	ScheduledDateTime time.Time `json:"scheduled_date_time"`
	MeetingLink       string    `json:"meeting_link"`
	MeetingID         string    `json:"meeting_id"`
	Passcode          string    `json:"passcode"`
	Notes             string    `json:"notes,omitempty"`
}

// IsTerminal из rejected и scheduled переходов нет
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusRejected || s == BookingStatusScheduled
}

// IsDecision допустимый ответ ментора на pending бронирование
func (s BookingStatus) IsDecision() bool {
	return s == BookingStatusAccepted || s == BookingStatusRejected
}

// CanTransitionTo pending -> {accepted, rejected}, accepted -> scheduled
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next.IsDecision()
	case BookingStatusAccepted:
		return next == BookingStatusScheduled
	default:
		return false
	}
}

// EffectiveTime время встречи: назначенное важнее желаемого
func (b *Booking) EffectiveTime() time.Time {
	if b.ScheduledDateTime != nil {
		return *b.ScheduledDateTime
	}
	return b.PreferredDateTime
}

// IsUpcoming встреча не раньше начала текущего дня
func (b *Booking) IsUpcoming(now time.Time) bool {
	return !b.EffectiveTime().Before(StartOfDay(now))
}

// StartOfDay полночь того же дня в часовом поясе now
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
