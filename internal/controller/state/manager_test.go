package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleDialogCollectsDraft(t *testing.T) {
	sm := NewManager()
	const tgID = 42

	sm.StartSchedule(tgID, 7)
	assert.Equal(t, StateScheduleDateTime, sm.GetState(tgID))

	at := time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)
	require.True(t, sm.Advance(tgID, StateScheduleLink, func(d *ScheduleDraft) { d.ScheduledDateTime = at }))
	require.True(t, sm.Advance(tgID, StateScheduleMeetingID, func(d *ScheduleDraft) { d.MeetingLink = "https://meet.example/abc" }))

	draft, ok := sm.Draft(tgID)
	require.True(t, ok)
	assert.Equal(t, int64(7), draft.BookingID)
	assert.Equal(t, at, draft.ScheduledDateTime)
	assert.Equal(t, "https://meet.example/abc", draft.MeetingLink)
	assert.Equal(t, StateScheduleMeetingID, sm.GetState(tgID))

	sm.ClearState(tgID)
	assert.Equal(t, StateNone, sm.GetState(tgID))
	_, ok = sm.Draft(tgID)
	assert.False(t, ok)
}

func TestAdvanceWithoutDialog(t *testing.T) {
	sm := NewManager()
	assert.False(t, sm.Advance(1, StateScheduleLink, nil))
	assert.Equal(t, StateNone, sm.GetState(1))
}

func TestStartScheduleResetsDraft(t *testing.T) {
	sm := NewManager()
	sm.StartSchedule(1, 10)
	sm.Advance(1, StateScheduleLink, func(d *ScheduleDraft) { d.MeetingID = "old" })

	sm.StartSchedule(1, 11)
	draft, ok := sm.Draft(1)
	require.True(t, ok)
	assert.Equal(t, int64(11), draft.BookingID)
	assert.Empty(t, draft.MeetingID)
}

func TestExpiredDialogIsDropped(t *testing.T) {
	sm := NewManager()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	sm.StartSchedule(1, 10)
	now = now.Add(DefaultTTL + time.Second)

	assert.Equal(t, StateNone, sm.GetState(1))
	assert.False(t, sm.Advance(1, StateScheduleLink, nil))
}
