package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/repository/memory"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, params)
	return &models.Message{}, f.err
}

func newNotifierFixture(t *testing.T) (*Notifier, *fakeSender, *model.User, *model.User) {
	t.Helper()
	ctx := context.Background()
	users := memory.New().Users()

	tgID := int64(555)
	mentor := &model.User{Name: "mentor", FullName: "Ann Mentor", Role: model.RoleMentor, TelegramID: &tgID}
	require.NoError(t, users.Create(ctx, mentor))
	student := &model.User{Name: "stud", Role: model.RoleStudent}
	require.NoError(t, users.Create(ctx, student))

	sender := &fakeSender{}
	return NewNotifier(sender, users, zap.NewNop()), sender, mentor, student
}

func callbackData(markup models.ReplyMarkup) []string {
	kb, ok := markup.(*models.InlineKeyboardMarkup)
	if !ok {
		return nil
	}
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			data = append(data, btn.CallbackData)
		}
	}
	return data
}

func TestNotifierSendsConnectionRequestToLinkedMentor(t *testing.T) {
	n, sender, mentor, student := newNotifierFixture(t)

	n.ConnectionRequested(context.Background(), &model.ConnectionRequest{
		ID:        9,
		StudentID: student.ID,
		MentorID:  mentor.ID,
		Status:    model.ConnectionStatusPending,
		Message:   model.DefaultConnectionMessage,
		CreatedAt: time.Now(),
	})

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, int64(555), msg.ChatID)
	assert.Contains(t, msg.Text, "stud")
	assert.Equal(t, []string{"conn_accept:9", "conn_reject:9"}, callbackData(msg.ReplyMarkup))
}

func TestNotifierSkipsUnlinkedStudent(t *testing.T) {
	n, sender, mentor, student := newNotifierFixture(t)

	n.ConnectionAnswered(context.Background(), &model.ConnectionRequest{
		ID:        9,
		StudentID: student.ID,
		MentorID:  mentor.ID,
		Status:    model.ConnectionStatusAccepted,
	})
	n.BookingChanged(context.Background(), &model.Booking{
		ID:        3,
		StudentID: student.ID,
		MentorID:  mentor.ID,
		Status:    model.BookingStatusRejected,
	})

	assert.Empty(t, sender.sent)
}

func TestNotifierScheduledBookingCarriesMeetingLink(t *testing.T) {
	n, sender, mentor, _ := newNotifierFixture(t)
	ctx := context.Background()

	// Студент привязывает Telegram
	users := n.users.(*memory.UserStore)
	studentTg := int64(777)
	linked := &model.User{Name: "linked", Role: model.RoleStudent, TelegramID: &studentTg}
	require.NoError(t, users.Create(ctx, linked))

	at := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	link, meetingID, passcode := "https://meet.example/x", "m-1", "pw"
	n.BookingChanged(ctx, &model.Booking{
		ID:                4,
		StudentID:         linked.ID,
		MentorID:          mentor.ID,
		Topic:             "Interviews",
		PreferredDateTime: at,
		Status:            model.BookingStatusScheduled,
		ScheduledDateTime: &at,
		MeetingLink:       &link,
		MeetingID:         &meetingID,
		Passcode:          &passcode,
	})

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, studentTg, msg.ChatID)
	assert.Contains(t, msg.Text, "Ann Mentor")
	assert.Contains(t, msg.Text, passcode)

	kb, ok := msg.ReplyMarkup.(*models.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, link, kb.InlineKeyboard[0][0].URL)
}

func TestNotifierSendFailureIsSwallowed(t *testing.T) {
	n, sender, mentor, student := newNotifierFixture(t)
	sender.err = errors.New("telegram down")

	assert.NotPanics(t, func() {
		n.BookingRequested(context.Background(), &model.Booking{
			ID:        5,
			StudentID: student.ID,
			MentorID:  mentor.ID,
			Topic:     "Go",
			Status:    model.BookingStatusPending,
		})
	})
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"book_accept:5", "book_reject:5"}, callbackData(sender.sent[0].ReplyMarkup))
}
