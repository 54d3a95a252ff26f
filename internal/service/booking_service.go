package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/repository"
	"go.uber.org/zap"
)

type BookingService struct {
	bookings  BookingStore
	users     UserStore
	observers Observer
	logger    *zap.Logger
	now       func() time.Time
}

func NewBookingService(
	bookings BookingStore,
	users UserStore,
	observers Observer,
	logger *zap.Logger,
) *BookingService {
	if observers == nil {
		observers = Observers(nil)
	}
	return &BookingService{
		bookings:  bookings,
		users:     users,
		observers: observers,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateBookingInput данные, с которыми студент запрашивает встречу
type CreateBookingInput struct {
	StudentID         int64
	MentorID          int64
	Topic             string
	PreferredDateTime time.Time
	Message           string
}

// Create создаёт pending бронирование. Ограничений на количество бронирований пары нет
func (s *BookingService) Create(ctx context.Context, actor Actor, in CreateBookingInput) (*model.Booking, error) {
	if actor.UserID != in.StudentID && !actor.IsAdmin() {
		return nil, forbidden("user %d cannot book on behalf of student %d", actor.UserID, in.StudentID)
	}

	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, invalid("topic is required")
	}
	if in.PreferredDateTime.IsZero() {
		return nil, invalid("preferred_date_time is required")
	}
	if in.StudentID == in.MentorID {
		return nil, invalid("student and mentor must differ")
	}

	student, err := s.users.GetByID(ctx, in.StudentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if student == nil {
		return nil, notFound("student", in.StudentID)
	}

	mentor, err := s.users.GetByID(ctx, in.MentorID)
	if err != nil {
		return nil, fmt.Errorf("get mentor: %w", err)
	}
	if mentor == nil {
		return nil, notFound("mentor", in.MentorID)
	}
	if mentor.Role != model.RoleMentor {
		return nil, invalid("user %d is not a mentor", in.MentorID)
	}

	booking := &model.Booking{
		StudentID:         in.StudentID,
		MentorID:          in.MentorID,
		Topic:             topic,
		PreferredDateTime: in.PreferredDateTime,
		Message:           strings.TrimSpace(in.Message),
		Status:            model.BookingStatusPending,
	}

	err = s.bookings.Create(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	booking.StudentName = student.DisplayName()
	booking.MentorName = mentor.DisplayName()

	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("student_id", in.StudentID),
		zap.Int64("mentor_id", in.MentorID),
		zap.String("topic", topic),
	)

	s.observers.BookingRequested(ctx, booking)

	return booking, nil
}

// Respond ответ ментора на pending бронирование
func (s *BookingService) Respond(ctx context.Context, actor Actor, bookingID int64, decision model.BookingStatus) (*model.Booking, error) {
	if !decision.IsDecision() {
		return nil, invalid("status must be accepted or rejected, got %q", decision)
	}

	booking, err := s.getOwned(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status != model.BookingStatusPending {
		return nil, bookingTransitionError(bookingID, booking.Status, decision)
	}

	err = s.bookings.UpdateStatus(ctx, bookingID, booking.Status, decision)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, s.staleBooking(ctx, bookingID, decision)
		}
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	booking.Status = decision
	booking.UpdatedAt = s.now()

	s.logger.Info("Booking answered",
		zap.Int64("booking_id", bookingID),
		zap.Int64("mentor_id", booking.MentorID),
		zap.String("status", string(decision)),
	)

	s.observers.BookingChanged(ctx, booking)

	return booking, nil
}

// Schedule назначает встречу по accepted бронированию
func (s *BookingService) Schedule(ctx context.Context, actor Actor, bookingID int64, details model.ScheduleDetails) (*model.Booking, error) {
	if err := validateSchedule(details); err != nil {
		return nil, err
	}

	booking, err := s.getOwned(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.Status.CanTransitionTo(model.BookingStatusScheduled) {
		return nil, bookingTransitionError(bookingID, booking.Status, model.BookingStatusScheduled)
	}

	err = s.bookings.Schedule(ctx, bookingID, details)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, s.staleBooking(ctx, bookingID, model.BookingStatusScheduled)
		}
		return nil, fmt.Errorf("schedule booking: %w", err)
	}

	scheduledAt := details.ScheduledDateTime
	booking.Status = model.BookingStatusScheduled
	booking.ScheduledDateTime = &scheduledAt
	booking.MeetingLink = &details.MeetingLink
	booking.MeetingID = &details.MeetingID
	booking.Passcode = &details.Passcode
	if details.Notes != "" {
		booking.Notes = &details.Notes
	}
	booking.UpdatedAt = s.now()

	s.logger.Info("Booking scheduled",
		zap.Int64("booking_id", bookingID),
		zap.Int64("mentor_id", booking.MentorID),
		zap.Time("scheduled_date_time", scheduledAt),
	)

	s.observers.BookingChanged(ctx, booking)

	return booking, nil
}

func validateSchedule(details model.ScheduleDetails) error {
	if details.ScheduledDateTime.IsZero() {
		return invalid("scheduled_date_time is required")
	}
	if strings.TrimSpace(details.MeetingLink) == "" {
		return invalid("meeting_link is required")
	}
	if u, err := url.Parse(details.MeetingLink); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("meeting_link must be an absolute URL")
	}
	if strings.TrimSpace(details.MeetingID) == "" {
		return invalid("meeting_id is required")
	}
	if strings.TrimSpace(details.Passcode) == "" {
		return invalid("passcode is required")
	}
	return nil
}

// Get получает бронирование, видимое только участникам
func (s *BookingService) Get(ctx context.Context, actor Actor, bookingID int64) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, notFound("booking", bookingID)
	}
	if actor.UserID != booking.StudentID && actor.UserID != booking.MentorID && !actor.IsAdmin() {
		return nil, forbidden("booking %d belongs to another pair", bookingID)
	}
	return booking, nil
}

// getOwned бронирование, которое может менять только его ментор
func (s *BookingService) getOwned(ctx context.Context, actor Actor, bookingID int64) (*model.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if booking == nil {
		return nil, notFound("booking", bookingID)
	}

	if booking.MentorID != actor.UserID && !actor.IsAdmin() {
		return nil, forbidden("no permission to change booking %d", bookingID)
	}

	return booking, nil
}

func (s *BookingService) staleBooking(ctx context.Context, bookingID int64, to model.BookingStatus) error {
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("reload booking: %w", err)
	}
	if current == nil {
		return notFound("booking", bookingID)
	}
	return bookingTransitionError(bookingID, current.Status, to)
}

func bookingTransitionError(id int64, from, to model.BookingStatus) error {
	return &TransitionError{Entity: "booking", ID: id, From: string(from), To: string(to)}
}

// ListForStudent все бронирования студента по времени встречи.
// upcoming отбрасывает встречи раньше начала текущего дня
func (s *BookingService) ListForStudent(ctx context.Context, studentID int64, upcoming bool) ([]*model.Booking, error) {
	bookings, err := s.bookings.GetByStudentID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student bookings: %w", err)
	}
	return s.arrange(bookings, upcoming), nil
}

// ListForMentor все бронирования ментора по времени встречи
func (s *BookingService) ListForMentor(ctx context.Context, mentorID int64, upcoming bool) ([]*model.Booking, error) {
	bookings, err := s.bookings.GetByMentorID(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("get mentor bookings: %w", err)
	}
	return s.arrange(bookings, upcoming), nil
}

// ListStudentSessions встречи студента: accepted, scheduled
func (s *BookingService) ListStudentSessions(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	bookings, err := s.bookings.GetByStudentID(ctx, studentID,
		model.BookingStatusAccepted, model.BookingStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("get student sessions: %w", err)
	}
	return s.arrange(bookings, false), nil
}

// ListPendingForMentor запросы, ожидающие ответа ментора
func (s *BookingService) ListPendingForMentor(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	bookings, err := s.bookings.GetByMentorID(ctx, mentorID, model.BookingStatusPending)
	if err != nil {
		return nil, fmt.Errorf("get pending bookings: %w", err)
	}
	return s.arrange(bookings, false), nil
}

// ListAcceptedForMentor принятые и назначенные встречи ментора
func (s *BookingService) ListAcceptedForMentor(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	bookings, err := s.bookings.GetByMentorID(ctx, mentorID,
		model.BookingStatusAccepted, model.BookingStatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("get accepted bookings: %w", err)
	}
	return s.arrange(bookings, false), nil
}

// ListMentorSessions все встречи ментора, новые запросы первыми
func (s *BookingService) ListMentorSessions(ctx context.Context, mentorID int64) ([]*model.Booking, error) {
	bookings, err := s.bookings.GetByMentorID(ctx, mentorID)
	if err != nil {
		return nil, fmt.Errorf("get mentor sessions: %w", err)
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].ID > bookings[j].ID
		}
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, nil
}

// arrange сортирует по EffectiveTime и при необходимости оставляет только предстоящие
func (s *BookingService) arrange(bookings []*model.Booking, upcoming bool) []*model.Booking {
	result := make([]*model.Booking, 0, len(bookings))
	now := s.now()
	for _, b := range bookings {
		if upcoming && !b.IsUpcoming(now) {
			continue
		}
		result = append(result, b)
	}

	sort.SliceStable(result, func(i, j int) bool {
		ti, tj := result[i].EffectiveTime(), result[j].EffectiveTime()
		if ti.Equal(tj) {
			return result[i].ID < result[j].ID
		}
		return ti.Before(tj)
	})
	return result
}
