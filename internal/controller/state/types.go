package state

import "time"

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	// Состояния для назначения встречи ментором
	StateScheduleDateTime  UserState = "schedule_date_time"
	StateScheduleLink      UserState = "schedule_link"
	StateScheduleMeetingID UserState = "schedule_meeting_id"
	StateSchedulePasscode  UserState = "schedule_passcode"
	StateScheduleNotes     UserState = "schedule_notes"
)

// ScheduleDraft данные встречи, собираемые по шагам диалога
type ScheduleDraft struct {
	BookingID         int64
	ScheduledDateTime time.Time
	MeetingLink       string
	MeetingID         string
	Passcode          string
}

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State     UserState
	Draft     ScheduleDraft
	UpdatedAt time.Time
}
