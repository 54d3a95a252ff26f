package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/repository"
)

type BookingStore struct {
	s *Store
}

func (r *BookingStore) Create(_ context.Context, booking *model.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	booking.ID = r.s.nextID()
	booking.CreatedAt = r.s.now()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	r.s.bookings[booking.ID] = &stored
	return nil
}

func (r *BookingStore) view(b *model.Booking) *model.Booking {
	v := *b
	v.StudentName = r.s.displayName(b.StudentID)
	v.MentorName = r.s.displayName(b.MentorID)
	return &v
}

func (r *BookingStore) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return r.view(b), nil
}

func (r *BookingStore) GetByStudentID(_ context.Context, studentID int64, statuses ...model.BookingStatus) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.StudentID == studentID }, statuses), nil
}

func (r *BookingStore) GetByMentorID(_ context.Context, mentorID int64, statuses ...model.BookingStatus) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.MentorID == mentorID }, statuses), nil
}

// filter возвращает копии по времени встречи, как ORDER BY в postgres
func (r *BookingStore) filter(match func(*model.Booking) bool, statuses []model.BookingStatus) []*model.Booking {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*model.Booking
	for _, b := range r.s.bookings {
		if !match(b) || !hasStatus(statuses, b.Status) {
			continue
		}
		result = append(result, r.view(b))
	}

	sort.Slice(result, func(i, j int) bool {
		ti, tj := result[i].EffectiveTime(), result[j].EffectiveTime()
		if ti.Equal(tj) {
			return result[i].ID < result[j].ID
		}
		return ti.Before(tj)
	})
	return result
}

func hasStatus(statuses []model.BookingStatus, status model.BookingStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (r *BookingStore) UpdateStatus(_ context.Context, id int64, from, to model.BookingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok || b.Status != from {
		return repository.ErrStaleStatus
	}

	b.Status = to
	b.UpdatedAt = r.s.now()
	return nil
}

func (r *BookingStore) Schedule(_ context.Context, id int64, details model.ScheduleDetails) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok || b.Status != model.BookingStatusAccepted {
		return repository.ErrStaleStatus
	}

	scheduledAt := details.ScheduledDateTime
	link, meetingID, passcode := details.MeetingLink, details.MeetingID, details.Passcode
	b.Status = model.BookingStatusScheduled
	b.ScheduledDateTime = &scheduledAt
	b.MeetingLink = &link
	b.MeetingID = &meetingID
	b.Passcode = &passcode
	if details.Notes != "" {
		notes := details.Notes
		b.Notes = &notes
	}
	b.UpdatedAt = r.s.now()
	return nil
}
