package session

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/api"
	"github.com/Freeeeeet/mentorship_hub/internal/auth"
	"github.com/Freeeeeet/mentorship_hub/internal/httpapi"
	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/notification"
	"github.com/Freeeeeet/mentorship_hub/internal/realtime"
	"github.com/Freeeeeet/mentorship_hub/internal/repository/memory"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"github.com/Freeeeeet/mentorship_hub/internal/storage/local"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const waitFor = 3 * time.Second

type testEnv struct {
	hub     *realtime.Hub
	baseURL string
	wsBase  string
	student *model.User
	mentor  *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	store := memory.New()
	metrics := realtime.NewMetrics(prometheus.NewRegistry())
	hub := realtime.NewHub(metrics, logger)
	observers := service.Observers{realtime.NewBroadcaster(hub, metrics, logger)}

	users := service.NewUserService(store.Users(), logger)
	relations := service.NewRelationshipService(store.ConnectionRequests(), store.Users(), observers, logger)
	bookings := service.NewBookingService(store.Bookings(), store.Users(), observers, logger)
	messages := service.NewMessageService(store.Messages(), store.ConnectionRequests(), store.Users(), observers, logger)
	identifier := auth.NewIdentifier("")

	server := httpapi.NewServer(httpapi.Deps{
		Identifier: identifier,
		Users:      users,
		Relations:  relations,
		Bookings:   bookings,
		Messages:   messages,
		WebSocket:  realtime.NewHandler(hub, identifier, relations, bookings, messages, realtime.Options{}, logger),
		Logger:     logger,
	})
	app := httptest.NewServer(server.Router())
	t.Cleanup(func() {
		hub.Close()
		app.Close()
	})

	env := &testEnv{
		hub:     hub,
		baseURL: app.URL,
		wsBase:  "ws" + strings.TrimPrefix(app.URL, "http"),
	}

	anon := api.New(app.URL, api.Credentials{})
	var err error
	env.student, err = anon.RegisterUser(context.Background(), model.User{Name: "Sam", Role: model.RoleStudent})
	require.NoError(t, err)
	env.mentor, err = anon.RegisterUser(context.Background(), model.User{Name: "Mia", FullName: "Mia Stone", Role: model.RoleMentor})
	require.NoError(t, err)
	return env
}

func (e *testEnv) client(u *model.User) *api.Client {
	return api.New(e.baseURL, api.Credentials{UserID: u.ID, Role: u.Role})
}

func (e *testEnv) signIn(t *testing.T, u *model.User) *Session {
	t.Helper()

	store, err := local.Open(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := New(e.client(u), store, Options{WSBaseURL: e.wsBase, PollInterval: time.Hour}, zap.NewNop())
	require.NoError(t, s.SignIn(context.Background(), local.Profile{UserID: u.ID, Role: u.Role}))
	t.Cleanup(func() {
		if s.Profile() != nil {
			_ = s.SignOut(context.Background())
		}
	})

	e.waitSubscribers(t, model.UserTopic(u.ID), 1)
	return s
}

func (e *testEnv) waitSubscribers(t *testing.T, topic string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return e.hub.Subscribers(topic) == n }, waitFor, 10*time.Millisecond)
}

func findKey(items []notification.Item, key string, source notification.Source) *notification.Item {
	for i := range items {
		if items[i].Key == key && items[i].Source == source {
			return &items[i]
		}
	}
	return nil
}

func TestConnectionAcceptedIsObservedOnStatusChannel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	studentAPI := env.client(env.student)
	mentorAPI := env.client(env.mentor)

	req, err := studentAPI.CreateConnectionRequest(ctx, env.student.ID, env.mentor.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionStatusPending, req.Status)
	assert.Equal(t, model.DefaultConnectionMessage, req.Message)

	s := env.signIn(t, env.student)
	statuses, err := s.Statuses()
	require.NoError(t, err)

	updates := make(chan model.StatusUpdate, 1)
	statuses.OnUpdate(func(u model.StatusUpdate) { updates <- u })
	require.NoError(t, statuses.WatchConnection(ctx, req.ID, req.Status))
	env.waitSubscribers(t, model.StatusTopic(req.ID), 1)

	current, ok := statuses.ConnectionStatus(req.ID)
	require.True(t, ok)
	assert.Equal(t, model.ConnectionStatusPending, current)

	_, err = mentorAPI.RespondConnectionRequest(ctx, req.ID, model.ConnectionStatusAccepted)
	require.NoError(t, err)

	select {
	case u := <-updates:
		assert.Equal(t, req.ID, u.ID)
		assert.Equal(t, "accepted", u.Status)
	case <-time.After(waitFor):
		t.Fatal("no status frame observed")
	}

	current, _ = statuses.ConnectionStatus(req.ID)
	assert.Equal(t, model.ConnectionStatusAccepted, current)

	status, err := studentAPI.GetConnectionStatus(ctx, env.student.ID, env.mentor.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionStatusAccepted, status.Status)

	_, err = mentorAPI.RespondConnectionRequest(ctx, req.ID, model.ConnectionStatusRejected)
	assert.True(t, api.IsStatus(err, 409))
}

func TestBookingScheduledEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	studentAPI := env.client(env.student)
	mentorAPI := env.client(env.mentor)

	preferred := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	booking, err := studentAPI.CreateBooking(ctx, api.CreateBookingRequest{
		StudentID:         env.student.ID,
		MentorID:          env.mentor.ID,
		Topic:             "Resume Review",
		PreferredDateTime: preferred,
	})
	require.NoError(t, err)

	s := env.signIn(t, env.student)
	statuses, err := s.Statuses()
	require.NoError(t, err)
	require.NoError(t, statuses.WatchBooking(ctx, booking.ID, booking.Status))
	env.waitSubscribers(t, model.BookingStatusTopic(booking.ID), 1)

	_, err = mentorAPI.RespondBooking(ctx, booking.ID, model.BookingStatusAccepted)
	require.NoError(t, err)

	scheduledAt := preferred.Add(24 * time.Hour)
	_, err = mentorAPI.ScheduleBooking(ctx, booking.ID, model.ScheduleDetails{
		ScheduledDateTime: scheduledAt,
		MeetingLink:       "https://meet.example/abc",
		MeetingID:         "123",
		Passcode:          "pass",
	})
	require.NoError(t, err)

	got, err := studentAPI.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusScheduled, got.Status)
	require.NotNil(t, got.ScheduledDateTime)
	assert.True(t, scheduledAt.Equal(*got.ScheduledDateTime))
	require.NotNil(t, got.MeetingLink)
	assert.Equal(t, "https://meet.example/abc", *got.MeetingLink)
	require.NotNil(t, got.MeetingID)
	require.NotNil(t, got.Passcode)
	assert.True(t, preferred.Equal(got.PreferredDateTime))

	require.Eventually(t, func() bool {
		st, _ := statuses.BookingStatus(booking.ID)
		return st == model.BookingStatusScheduled
	}, waitFor, 10*time.Millisecond)
}

func TestMentorReceivesPushNotifications(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	studentAPI := env.client(env.student)
	mentorAPI := env.client(env.mentor)

	s := env.signIn(t, env.mentor)
	agg, err := s.Notifications()
	require.NoError(t, err)

	req, err := studentAPI.CreateConnectionRequest(ctx, env.student.ID, env.mentor.ID, "hi")
	require.NoError(t, err)

	connKey := notification.ConnectionKey(req.ID)
	require.Eventually(t, func() bool {
		return findKey(agg.List(), connKey, notification.SourcePush) != nil
	}, waitFor, 10*time.Millisecond)
	assert.Equal(t, "From Sam", findKey(agg.List(), connKey, notification.SourcePush).Description)

	_, err = mentorAPI.RespondConnectionRequest(ctx, req.ID, model.ConnectionStatusAccepted)
	require.NoError(t, err)

	_, err = studentAPI.SendMessage(ctx, model.ChatSend{
		Content:    "hello",
		SenderType: model.SenderStudent,
		SenderID:   model.FlexID(env.student.ID),
		ReceiverID: model.FlexID(env.mentor.ID),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		for _, it := range agg.List() {
			if it.Kind == notification.KindMessage && it.Source == notification.SourcePush {
				return it.Description == "You have a new message from Sam"
			}
		}
		return false
	}, waitFor, 10*time.Millisecond)

	// опрос видит непрочитанное сообщение одним агрегатом
	require.NoError(t, agg.Poll(ctx))
	msgs := findKey(agg.List(), notification.MessagesKey, notification.SourcePoll)
	require.NotNil(t, msgs)
	assert.Equal(t, 1, msgs.Count)

	require.NoError(t, agg.MarkAllRead(ctx))
	require.NoError(t, agg.Poll(ctx))
	assert.Nil(t, findKey(agg.List(), notification.MessagesKey, notification.SourcePoll))
}

func TestConversationChannelDeliversBothWays(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	req, err := env.client(env.student).CreateConnectionRequest(ctx, env.student.ID, env.mentor.ID, "")
	require.NoError(t, err)
	_, err = env.client(env.mentor).RespondConnectionRequest(ctx, req.ID, model.ConnectionStatusAccepted)
	require.NoError(t, err)

	studentSession := env.signIn(t, env.student)
	mentorSession := env.signIn(t, env.mentor)

	frames := make(chan model.ChatFrame, 4)
	studentChat, err := studentSession.OpenConversation(ctx, env.mentor.ID, func(model.ChatFrame) {})
	require.NoError(t, err)
	_, err = mentorSession.OpenConversation(ctx, env.student.ID, func(f model.ChatFrame) { frames <- f })
	require.NoError(t, err)
	env.waitSubscribers(t, model.ChatTopic(env.student.ID, env.mentor.ID), 2)

	require.NoError(t, studentChat.SendText(model.SenderStudent, "ping"))

	select {
	case f := <-frames:
		require.NotNil(t, f.Message)
		assert.Equal(t, "ping", f.Message.Content)
		assert.Equal(t, env.student.ID, f.SenderID)
	case <-time.After(waitFor):
		t.Fatal("mentor did not receive the chat frame")
	}
}

func TestSignOutClosesEverything(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	s := env.signIn(t, env.student)
	assert.ErrorIs(t, s.SignIn(ctx, local.Profile{UserID: env.student.ID, Role: model.RoleStudent}), ErrSignedIn)

	ch, err := s.NotificationChannel()
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx))
	select {
	case <-ch.Done():
	case <-time.After(waitFor):
		t.Fatal("notification channel still open after sign out")
	}
	env.waitSubscribers(t, model.UserTopic(env.student.ID), 0)

	assert.Nil(t, s.Profile())
	assert.ErrorIs(t, s.SignOut(ctx), ErrNotSignedIn)
	_, err = s.Notifications()
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, err = s.OpenConversation(ctx, env.mentor.ID, func(model.ChatFrame) {})
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestSignInWithoutPushChannelStillPolls(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.client(env.student).CreateConnectionRequest(ctx, env.student.ID, env.mentor.ID, "")
	require.NoError(t, err)

	store, err := local.Open(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	defer store.Close()

	s := New(env.client(env.mentor), store, Options{WSBaseURL: "ws://127.0.0.1:1", PollInterval: time.Hour}, zap.NewNop())
	require.NoError(t, s.SignIn(ctx, local.Profile{UserID: env.mentor.ID, Role: model.RoleMentor}))
	defer s.SignOut(ctx)

	agg, err := s.Notifications()
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		for _, it := range agg.List() {
			if it.Kind == notification.KindConnection && it.Source == notification.SourcePoll {
				return true
			}
		}
		return false
	}, waitFor, 10*time.Millisecond)

	profile, err := store.Profile(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, env.mentor.ID, profile.UserID)
}

func TestReadSetIsKeptPerUserOnSharedStore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	studentAPI := env.client(env.student)
	mentorAPI := env.client(env.mentor)

	req, err := studentAPI.CreateConnectionRequest(ctx, env.student.ID, env.mentor.ID, "")
	require.NoError(t, err)
	_, err = mentorAPI.RespondConnectionRequest(ctx, req.ID, model.ConnectionStatusAccepted)
	require.NoError(t, err)
	_, err = studentAPI.SendMessage(ctx, model.ChatSend{
		Content:    "to mentor",
		SenderType: model.SenderStudent,
		SenderID:   model.FlexID(env.student.ID),
		ReceiverID: model.FlexID(env.mentor.ID),
	})
	require.NoError(t, err)
	_, err = mentorAPI.SendMessage(ctx, model.ChatSend{
		Content:    "to student",
		SenderType: model.SenderMentor,
		SenderID:   model.FlexID(env.mentor.ID),
		ReceiverID: model.FlexID(env.student.ID),
	})
	require.NoError(t, err)

	store, err := local.Open(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	defer store.Close()

	pollAs := func(u *model.User, markRead bool) *notification.Item {
		s := New(env.client(u), store, Options{WSBaseURL: env.wsBase, PollInterval: time.Hour}, zap.NewNop())
		require.NoError(t, s.SignIn(ctx, local.Profile{UserID: u.ID, Role: u.Role}))
		defer func() { require.NoError(t, s.SignOut(ctx)) }()

		agg, err := s.Notifications()
		require.NoError(t, err)
		require.NoError(t, agg.Poll(ctx))
		msgs := findKey(agg.List(), notification.MessagesKey, notification.SourcePoll)
		if markRead {
			require.NoError(t, agg.MarkAllRead(ctx))
		}
		return msgs
	}

	require.NotNil(t, pollAs(env.mentor, true))
	// ключ messages прочитан ментором, но не студентом
	require.NotNil(t, pollAs(env.student, false))
	assert.Nil(t, pollAs(env.mentor, false))

	keys, err := store.ReadKeys(ctx, env.student.ID)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
