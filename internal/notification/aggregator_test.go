package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memReads struct {
	mu    sync.Mutex
	keys  []string
	calls int
	err   error
}

func (m *memReads) ReadKeys(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...), nil
}

func (m *memReads) MarkRead(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.keys = append(m.keys, keys...)
	return nil
}

// hookedReads вызывает during внутри MarkRead, пока ключи ещё не записаны
type hookedReads struct {
	memReads
	during func()
}

func (h *hookedReads) MarkRead(ctx context.Context, keys []string) error {
	if h.during != nil {
		h.during()
	}
	return h.memReads.MarkRead(ctx, keys)
}

type fakeCollaborators struct {
	mu          sync.Mutex
	inbox       []*model.Message
	sessions    []*model.Booking
	bookings    []*model.Booking
	connections []*model.ConnectionRequest
	failInbox   error
	failBooking error
	polls       int
}

func (f *fakeCollaborators) Inbox(context.Context, int64) ([]*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	return f.inbox, f.failInbox
}

func (f *fakeCollaborators) StudentSessions(context.Context, int64) ([]*model.Booking, error) {
	return f.sessions, nil
}

func (f *fakeCollaborators) MentorBookingRequests(context.Context, int64) ([]*model.Booking, error) {
	return f.bookings, f.failBooking
}

func (f *fakeCollaborators) MentorRequests(_ context.Context, _ int64, pendingOnly bool) ([]*model.ConnectionRequest, error) {
	if !pendingOnly {
		return nil, errors.New("expected pending only")
	}
	return f.connections, nil
}

func newTestAggregator(t *testing.T, userID int64, role model.Role, source *fakeCollaborators, reads ReadStore) *Aggregator {
	t.Helper()
	agg, err := NewAggregator(context.Background(), userID, role, source, reads, zap.NewNop())
	require.NoError(t, err)
	return agg
}

func unread(content string) *model.Message {
	return &model.Message{Content: content, SenderType: model.SenderStudent}
}

func messageFrame(sender, receiver int64, name, ts string) model.UserFrame {
	return model.UserFrame{
		Type:       model.FrameMessageNotification,
		SenderID:   sender,
		SenderName: name,
		SenderType: model.SenderStudent,
		Timestamp:  ts,
		ReceiverID: receiver,
	}
}

func TestPushFramesAreAppendedWithDistinctIDs(t *testing.T) {
	agg := newTestAggregator(t, 9, model.RoleMentor, &fakeCollaborators{}, &memReads{})

	first, ok := agg.HandleFrame(messageFrame(4, 9, "Asha", "2026-03-01T10:00:00Z"))
	require.True(t, ok)
	second, ok := agg.HandleFrame(messageFrame(5, 9, "Bo", "2026-03-01T10:00:00.5Z"))
	require.True(t, ok)

	list := agg.List()
	require.Len(t, list, 2)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, list[0].Unread)
	assert.True(t, list[1].Unread)
	assert.Equal(t, "You have a new message from Asha", list[0].Description)
	assert.Equal(t, "You have a new message from Bo", list[1].Description)
	assert.Equal(t, 2, agg.UnreadCount())
}

func TestPushDuplicatesAreNotCollapsed(t *testing.T) {
	agg := newTestAggregator(t, 9, model.RoleMentor, &fakeCollaborators{}, &memReads{})

	frame := messageFrame(4, 9, "Asha", "2026-03-01T10:00:00Z")
	_, ok := agg.HandleFrame(frame)
	require.True(t, ok)
	_, ok = agg.HandleFrame(frame)
	require.True(t, ok)

	assert.Len(t, agg.List(), 2)
}

func TestPushForAnotherReceiverIsDropped(t *testing.T) {
	agg := newTestAggregator(t, 9, model.RoleMentor, &fakeCollaborators{}, &memReads{})

	_, ok := agg.HandleFrame(messageFrame(4, 10, "Asha", "t"))
	assert.False(t, ok)
	assert.Empty(t, agg.List())
}

func TestPushWithReadKeyIsSuppressed(t *testing.T) {
	reads := &memReads{keys: []string{PushMessageKey(4, "t1")}}
	agg := newTestAggregator(t, 9, model.RoleMentor, &fakeCollaborators{}, reads)

	_, ok := agg.HandleFrame(messageFrame(4, 9, "Asha", "t1"))
	assert.False(t, ok)
	_, ok = agg.HandleFrame(messageFrame(4, 9, "Asha", "t2"))
	assert.True(t, ok)
}

func TestRequestFramesUseEntityKeys(t *testing.T) {
	agg := newTestAggregator(t, 9, model.RoleMentor, &fakeCollaborators{}, &memReads{})

	item, ok := agg.HandleFrame(model.UserFrame{
		Type:       model.FrameNewRequest,
		SenderID:   4,
		ReceiverID: 9,
		Request:    &model.ConnectionRequest{ID: 31},
	})
	require.True(t, ok)
	assert.Equal(t, "conn31", item.Key)
	assert.Equal(t, "From User 4", item.Description)

	item, ok = agg.HandleFrame(model.UserFrame{
		Type:       model.FrameBookingRequest,
		SenderName: "Asha",
		ReceiverID: 9,
		Booking:    &model.Booking{ID: 7, Topic: "Resume Review"},
	})
	require.True(t, ok)
	assert.Equal(t, "booking7", item.Key)
	assert.Equal(t, "From Asha for Resume Review", item.Description)
}

func TestRaiseAppendsLocalEvents(t *testing.T) {
	agg := newTestAggregator(t, 1, model.RoleStudent, &fakeCollaborators{}, &memReads{})

	changes := 0
	agg.OnChange(func() { changes++ })

	item, ok := agg.Raise(LocalEvent{Title: "Test", Description: "local"})
	require.True(t, ok)
	assert.Equal(t, SourceLocal, item.Source)
	assert.Equal(t, KindMessage, item.Kind)

	_, ok = agg.Raise(LocalEvent{Title: "Test", Description: "local"})
	require.True(t, ok)
	assert.Len(t, agg.List(), 2)
	assert.Equal(t, 2, changes)
}

func TestPollAggregatesUnseenMessages(t *testing.T) {
	seen := true
	source := &fakeCollaborators{inbox: []*model.Message{
		unread("one"), unread("two"), unread("three"),
		{Content: "old", IsRead: &seen},
	}}
	agg := newTestAggregator(t, 2, model.RoleMentor, source, &memReads{})

	require.NoError(t, agg.Poll(context.Background()))

	list := agg.List()
	require.Len(t, list, 1)
	assert.Equal(t, MessagesKey, list[0].Key)
	assert.Equal(t, 3, list[0].Count)
	assert.Equal(t, "3 New Messages", list[0].Title)
	assert.Equal(t, "3 unread messages", list[0].Description)
	assert.Equal(t, SourcePoll, list[0].Source)
}

func TestPollSingleMessagePreview(t *testing.T) {
	long := strings.Repeat("я", 60)
	source := &fakeCollaborators{inbox: []*model.Message{unread(long)}}
	agg := newTestAggregator(t, 2, model.RoleStudent, source, &memReads{})

	require.NoError(t, agg.Poll(context.Background()))

	list := agg.List()
	require.Len(t, list, 1)
	assert.Equal(t, "1 New Message", list[0].Title)
	assert.Equal(t, strings.Repeat("я", 50)+"...", list[0].Description)
}

func TestPollOrderForMentor(t *testing.T) {
	source := &fakeCollaborators{
		inbox:       []*model.Message{unread("hi")},
		bookings:    []*model.Booking{{ID: 3, StudentName: "Asha", Topic: "Go"}},
		connections: []*model.ConnectionRequest{{ID: 8, StudentID: 4}},
		sessions:    []*model.Booking{{ID: 99}},
	}
	agg := newTestAggregator(t, 2, model.RoleMentor, source, &memReads{})

	require.NoError(t, agg.Poll(context.Background()))

	var keys []string
	for _, it := range agg.List() {
		keys = append(keys, it.Key)
	}
	assert.Equal(t, []string{"messages", "booking3", "conn8"}, keys)
}

func TestPollOrderForStudent(t *testing.T) {
	at := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
	source := &fakeCollaborators{
		inbox:    []*model.Message{unread("hi")},
		sessions: []*model.Booking{{ID: 5, Status: model.BookingStatusScheduled, ScheduledDateTime: &at}},
		bookings: []*model.Booking{{ID: 3}},
	}
	agg := newTestAggregator(t, 1, model.RoleStudent, source, &memReads{})

	require.NoError(t, agg.Poll(context.Background()))

	list := agg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "session5", list[1].Key)
	assert.Equal(t, "Scheduled Session", list[1].Title)
	assert.Equal(t, "Session on 02 Apr 2026 15:00", list[1].Description)
}

func TestPollSkipsReadKeysAndMarkAllReadEmptiesNextCycle(t *testing.T) {
	ctx := context.Background()
	source := &fakeCollaborators{
		inbox:       []*model.Message{unread("a"), unread("b")},
		bookings:    []*model.Booking{{ID: 3}},
		connections: []*model.ConnectionRequest{{ID: 8}},
	}
	reads := &memReads{keys: []string{"booking3"}}
	agg := newTestAggregator(t, 2, model.RoleMentor, source, reads)

	require.NoError(t, agg.Poll(ctx))
	require.Len(t, agg.List(), 2)

	require.NoError(t, agg.MarkAllRead(ctx))
	assert.ElementsMatch(t, []string{"booking3", "messages", "conn8"}, reads.keys)
	assert.Equal(t, 0, agg.UnreadCount())
	for _, it := range agg.List() {
		assert.False(t, it.Unread)
	}

	require.NoError(t, agg.Poll(ctx))
	assert.Empty(t, agg.List())
}

func TestMarkAllReadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	source := &fakeCollaborators{inbox: []*model.Message{unread("a")}}
	reads := &memReads{}
	agg := newTestAggregator(t, 2, model.RoleStudent, source, reads)

	require.NoError(t, agg.Poll(ctx))
	_, ok := agg.HandleFrame(messageFrame(4, 2, "Asha", "t"))
	require.True(t, ok)

	require.NoError(t, agg.MarkAllRead(ctx))
	keysAfterFirst := append([]string(nil), reads.keys...)
	callsAfterFirst := reads.calls

	require.NoError(t, agg.MarkAllRead(ctx))
	assert.Equal(t, keysAfterFirst, reads.keys)
	assert.Equal(t, callsAfterFirst, reads.calls)
	assert.Equal(t, 0, agg.UnreadCount())
	assert.Len(t, agg.List(), 2)
}

func TestMarkAllReadPersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	reads := &memReads{err: errors.New("disk full")}
	agg := newTestAggregator(t, 2, model.RoleStudent, &fakeCollaborators{}, reads)

	_, ok := agg.HandleFrame(messageFrame(4, 2, "Asha", "t"))
	require.True(t, ok)

	require.Error(t, agg.MarkAllRead(ctx))
	assert.Equal(t, 1, agg.UnreadCount())
	assert.False(t, agg.IsRead(PushMessageKey(4, "t")))
}

func TestPushDuringMarkAllReadStaysUnread(t *testing.T) {
	ctx := context.Background()
	reads := &hookedReads{}
	agg := newTestAggregator(t, 2, model.RoleMentor, &fakeCollaborators{}, reads)

	_, ok := agg.HandleFrame(messageFrame(5, 2, "Asha", "t1"))
	require.True(t, ok)

	var late *Item
	reads.during = func() {
		late, ok = agg.HandleFrame(messageFrame(9, 2, "Bo", "t2"))
		require.True(t, ok)
	}
	require.NoError(t, agg.MarkAllRead(ctx))
	require.NotNil(t, late)

	assert.Equal(t, []string{PushMessageKey(5, "t1")}, reads.keys)
	assert.Equal(t, 1, agg.UnreadCount())
	for _, it := range agg.List() {
		assert.Equal(t, it.Key == late.Key, it.Unread, it.Key)
	}
	assert.False(t, agg.IsRead(late.Key))

	reads.during = nil
	require.NoError(t, agg.MarkAllRead(ctx))
	assert.Equal(t, 0, agg.UnreadCount())
	assert.ElementsMatch(t, []string{PushMessageKey(5, "t1"), PushMessageKey(9, "t2")}, reads.keys)
}

func TestPushWithoutTimestampUsesArrivalTime(t *testing.T) {
	ctx := context.Background()
	reads := &memReads{}
	agg := newTestAggregator(t, 2, model.RoleMentor, &fakeCollaborators{}, reads)
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	agg.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	first, ok := agg.HandleFrame(messageFrame(5, 2, "Asha", ""))
	require.True(t, ok)
	assert.Equal(t, PushMessageKey(5, "2026-03-01T10:00:00.001Z"), first.Key)

	require.NoError(t, agg.MarkAllRead(ctx))

	second, ok := agg.HandleFrame(messageFrame(5, 2, "Asha", ""))
	require.True(t, ok)
	assert.NotEqual(t, first.Key, second.Key)
	assert.Equal(t, 1, agg.UnreadCount())
	assert.Equal(t, []string{first.Key}, reads.keys)
}

func TestClearPushedKeepsPolledAndReadSet(t *testing.T) {
	ctx := context.Background()
	source := &fakeCollaborators{connections: []*model.ConnectionRequest{{ID: 8}}}
	reads := &memReads{}
	agg := newTestAggregator(t, 2, model.RoleMentor, source, reads)

	changes := 0
	agg.OnChange(func() { changes++ })

	_, ok := agg.HandleFrame(messageFrame(4, 2, "Asha", "t"))
	require.True(t, ok)
	_, ok = agg.Raise(LocalEvent{Title: "Test"})
	require.True(t, ok)
	require.NoError(t, agg.Poll(ctx))
	require.Len(t, agg.List(), 3)
	before := changes

	assert.Equal(t, 2, agg.ClearPushed())
	assert.Equal(t, before+1, changes)

	list := agg.List()
	require.Len(t, list, 1)
	assert.Equal(t, SourcePoll, list[0].Source)
	assert.Empty(t, reads.keys)

	assert.Equal(t, 0, agg.ClearPushed())
	assert.Equal(t, before+1, changes)
}

func TestPollPartialFailure(t *testing.T) {
	source := &fakeCollaborators{
		failInbox:   errors.New("inbox down"),
		failBooking: errors.New("bookings down"),
		connections: []*model.ConnectionRequest{{ID: 8, StudentName: "Asha"}},
	}
	agg := newTestAggregator(t, 2, model.RoleMentor, source, &memReads{})

	err := agg.Poll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inbox down")
	assert.Contains(t, err.Error(), "bookings down")

	list := agg.List()
	require.Len(t, list, 1)
	assert.Equal(t, "conn8", list[0].Key)
	assert.Equal(t, "From Asha", list[0].Description)
}

func TestPollReplacesWholesaleAndKeepsIDs(t *testing.T) {
	ctx := context.Background()
	source := &fakeCollaborators{connections: []*model.ConnectionRequest{{ID: 8}, {ID: 9}}}
	agg := newTestAggregator(t, 2, model.RoleMentor, source, &memReads{})

	require.NoError(t, agg.Poll(ctx))
	first := agg.List()
	require.Len(t, first, 2)

	source.connections = []*model.ConnectionRequest{{ID: 9}}
	require.NoError(t, agg.Poll(ctx))

	second := agg.List()
	require.Len(t, second, 1)
	assert.Equal(t, first[1].ID, second[0].ID)
}

func TestRemoveKeepsReadSet(t *testing.T) {
	ctx := context.Background()
	source := &fakeCollaborators{connections: []*model.ConnectionRequest{{ID: 8}}}
	reads := &memReads{}
	agg := newTestAggregator(t, 2, model.RoleMentor, source, reads)

	pushed, ok := agg.HandleFrame(messageFrame(4, 2, "Asha", "t"))
	require.True(t, ok)
	require.NoError(t, agg.Poll(ctx))
	require.Len(t, agg.List(), 2)

	assert.True(t, agg.Remove(pushed.ID))
	assert.False(t, agg.Remove(pushed.ID))
	polled := agg.List()
	require.Len(t, polled, 1)
	assert.True(t, agg.Remove(polled[0].ID))

	assert.Empty(t, agg.List())
	assert.Empty(t, reads.keys)

	// не прочитано, значит следующий опрос вернёт заявку снова
	require.NoError(t, agg.Poll(ctx))
	assert.Len(t, agg.List(), 1)
}

func TestPollerRunsImmediatelyAndStops(t *testing.T) {
	source := &fakeCollaborators{}
	agg := newTestAggregator(t, 2, model.RoleStudent, source, &memReads{})

	poller := NewPoller(agg, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, poller.Start(context.Background()))
	assert.ErrorIs(t, poller.Start(context.Background()), ErrPollerStarted)

	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return source.polls >= 3
	}, 2*time.Second, 5*time.Millisecond)

	poller.Stop()
	source.mu.Lock()
	stopped := source.polls
	source.mu.Unlock()

	time.Sleep(60 * time.Millisecond)
	source.mu.Lock()
	assert.Equal(t, stopped, source.polls)
	source.mu.Unlock()

	poller.Stop()
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	agg := newTestAggregator(t, 2, model.RoleStudent, &fakeCollaborators{}, &memReads{})
	poller := NewPoller(agg, time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, poller.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		poller.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
