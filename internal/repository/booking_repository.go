package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

const bookingColumns = `
	b.id, b.student_id, b.mentor_id, b.topic, b.preferred_date_time, b.message, b.status,
	b.scheduled_date_time, b.meeting_link, b.meeting_id, b.passcode, b.notes,
	b.created_at, b.updated_at,
	COALESCE(NULLIF(s.full_name, ''), s.name, ''), COALESCE(NULLIF(m.full_name, ''), m.name, '')
`

const bookingFrom = `
	FROM bookings b
	LEFT JOIN users s ON s.id = b.student_id
	LEFT JOIN users m ON m.id = b.mentor_id
`

// effectiveTimeOrder назначенное время важнее желаемого
const effectiveTimeOrder = ` ORDER BY COALESCE(b.scheduled_date_time, b.preferred_date_time) ASC, b.id ASC`

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.StudentID,
		&booking.MentorID,
		&booking.Topic,
		&booking.PreferredDateTime,
		&booking.Message,
		&booking.Status,
		&booking.ScheduledDateTime,
		&booking.MeetingLink,
		&booking.MeetingID,
		&booking.Passcode,
		&booking.Notes,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.StudentName,
		&booking.MentorName,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (student_id, mentor_id, topic, preferred_date_time, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.StudentID,
		booking.MentorID,
		booking.Topic,
		booking.PreferredDateTime,
		booking.Message,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + `WHERE b.id = $1`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// GetByStudentID получает бронирования студента в указанных статусах (пусто - все)
func (r *BookingRepository) GetByStudentID(ctx context.Context, studentID int64, statuses ...model.BookingStatus) ([]*model.Booking, error) {
	return r.listByParty(ctx, "b.student_id", studentID, statuses)
}

// GetByMentorID получает бронирования ментора в указанных статусах (пусто - все)
func (r *BookingRepository) GetByMentorID(ctx context.Context, mentorID int64, statuses ...model.BookingStatus) ([]*model.Booking, error) {
	return r.listByParty(ctx, "b.mentor_id", mentorID, statuses)
}

func (r *BookingRepository) listByParty(ctx context.Context, column string, partyID int64, statuses []model.BookingStatus) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + bookingFrom + `WHERE ` + column + ` = $1`
	args := []interface{}{partyID}

	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query += ` AND b.status = ANY($2)`
		args = append(args, names)
	}
	query += effectiveTimeOrder

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}

	return bookings, nil
}

// UpdateStatus меняет статус только если бронирование всё ещё в статусе from
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, from, to model.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	affected, err := r.ExecAffected(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	if affected == 0 {
		return ErrStaleStatus
	}

	return nil
}

// Schedule переводит accepted бронирование в scheduled вместе с данными встречи
func (r *BookingRepository) Schedule(ctx context.Context, id int64, details model.ScheduleDetails) error {
	query := `
		UPDATE bookings
		SET status = $1,
		    scheduled_date_time = $2,
		    meeting_link = $3,
		    meeting_id = $4,
		    passcode = $5,
		    notes = NULLIF($6, ''),
		    updated_at = NOW()
		WHERE id = $7 AND status = $8
	`

	affected, err := r.ExecAffected(ctx, query,
		model.BookingStatusScheduled,
		details.ScheduledDateTime,
		details.MeetingLink,
		details.MeetingID,
		details.Passcode,
		details.Notes,
		id,
		model.BookingStatusAccepted,
	)
	if err != nil {
		return fmt.Errorf("schedule booking: %w", err)
	}

	if affected == 0 {
		return ErrStaleStatus
	}

	return nil
}
