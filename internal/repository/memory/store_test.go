package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRequestActivePairIsUnique(t *testing.T) {
	ctx := context.Background()
	store := New().ConnectionRequests()

	first := &model.ConnectionRequest{StudentID: 1, MentorID: 2, Status: model.ConnectionStatusPending}
	require.NoError(t, store.Create(ctx, first))

	dup := &model.ConnectionRequest{StudentID: 1, MentorID: 2, Status: model.ConnectionStatusPending}
	assert.ErrorIs(t, store.Create(ctx, dup), repository.ErrActiveRequestExists)

	require.NoError(t, store.UpdateStatus(ctx, first.ID, model.ConnectionStatusPending, model.ConnectionStatusRejected))

	again := &model.ConnectionRequest{StudentID: 1, MentorID: 2, Status: model.ConnectionStatusPending}
	require.NoError(t, store.Create(ctx, again))

	latest, err := store.GetLatestByPair(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, again.ID, latest.ID)
}

func TestConnectionRequestUpdateStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	store := New().ConnectionRequests()

	req := &model.ConnectionRequest{StudentID: 1, MentorID: 2, Status: model.ConnectionStatusPending}
	require.NoError(t, store.Create(ctx, req))

	require.NoError(t, store.UpdateStatus(ctx, req.ID, model.ConnectionStatusPending, model.ConnectionStatusAccepted))
	err := store.UpdateStatus(ctx, req.ID, model.ConnectionStatusPending, model.ConnectionStatusRejected)
	assert.ErrorIs(t, err, repository.ErrStaleStatus)

	got, err := store.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionStatusAccepted, got.Status)
	assert.NotNil(t, got.UpdatedAt)

	missing, err := store.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBookingScheduleOnlyFromAccepted(t *testing.T) {
	ctx := context.Background()
	store := New().Bookings()

	booking := &model.Booking{StudentID: 1, MentorID: 2, Topic: "Resume Review",
		PreferredDateTime: time.Now(), Status: model.BookingStatusPending}
	require.NoError(t, store.Create(ctx, booking))

	details := model.ScheduleDetails{
		ScheduledDateTime: time.Now().Add(24 * time.Hour),
		MeetingLink:       "https://meet.example/abc",
		MeetingID:         "abc",
		Passcode:          "123",
	}
	assert.ErrorIs(t, store.Schedule(ctx, booking.ID, details), repository.ErrStaleStatus)

	require.NoError(t, store.UpdateStatus(ctx, booking.ID, model.BookingStatusPending, model.BookingStatusAccepted))
	require.NoError(t, store.Schedule(ctx, booking.ID, details))
	assert.ErrorIs(t, store.Schedule(ctx, booking.ID, details), repository.ErrStaleStatus)

	got, err := store.GetByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusScheduled, got.Status)
	require.NotNil(t, got.MeetingLink)
	assert.Equal(t, "https://meet.example/abc", *got.MeetingLink)
	assert.Nil(t, got.Notes)
}

func TestBookingFilterByStatus(t *testing.T) {
	ctx := context.Background()
	store := New().Bookings()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	later := &model.Booking{StudentID: 1, MentorID: 2, PreferredDateTime: base.Add(time.Hour), Status: model.BookingStatusPending}
	earlier := &model.Booking{StudentID: 1, MentorID: 2, PreferredDateTime: base, Status: model.BookingStatusPending}
	require.NoError(t, store.Create(ctx, later))
	require.NoError(t, store.Create(ctx, earlier))
	require.NoError(t, store.UpdateStatus(ctx, later.ID, model.BookingStatusPending, model.BookingStatusRejected))

	all, err := store.GetByMentorID(ctx, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, earlier.ID, all[0].ID)

	pending, err := store.GetByMentorID(ctx, 2, model.BookingStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, earlier.ID, pending[0].ID)
}

func TestMessagesInboxAndMarkRead(t *testing.T) {
	ctx := context.Background()
	store := New().Messages()

	require.NoError(t, store.Create(ctx, &model.Message{SenderID: 1, ReceiverID: 2, Content: "hi"}))
	require.NoError(t, store.Create(ctx, &model.Message{SenderID: 2, ReceiverID: 1, Content: "hello"}))
	require.NoError(t, store.Create(ctx, &model.Message{SenderID: 3, ReceiverID: 2, Content: "hey"}))

	conv, err := store.GetConversation(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "hi", conv[0].Content)

	inbox, err := store.GetInbox(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, inbox, 2)
	for _, m := range inbox {
		assert.False(t, m.Seen())
	}

	marked, err := store.MarkRead(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	marked, err = store.MarkRead(ctx, 2, 1)
	require.NoError(t, err)
	assert.Zero(t, marked)

	inbox, err = store.GetInbox(ctx, 2)
	require.NoError(t, err)
	assert.True(t, inbox[0].Seen())
	assert.False(t, inbox[1].Seen())
}

func TestNamesJoinedFromUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	student := &model.User{Name: "ann", FullName: "Ann Lee", Role: model.RoleStudent}
	mentor := &model.User{Name: "bob", Role: model.RoleMentor}
	require.NoError(t, s.Users().Create(ctx, student))
	require.NoError(t, s.Users().Create(ctx, mentor))

	req := &model.ConnectionRequest{StudentID: student.ID, MentorID: mentor.ID, Status: model.ConnectionStatusPending}
	require.NoError(t, s.ConnectionRequests().Create(ctx, req))

	got, err := s.ConnectionRequests().GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", got.StudentName)
	assert.Equal(t, "bob", got.MentorName)
}
