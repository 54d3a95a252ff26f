package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.Header.Get("X-User-Id"))
		assert.Equal(t, "mentor", r.Header.Get("X-User-Role"))
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(model.User{ID: 7, Name: "ann"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, Credentials{UserID: 7, Role: model.RoleMentor})
	user, err := c.GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Name)
}

func TestBearerTokenWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-User-Id"))
		w.Write([]byte("[]")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, Credentials{Token: "tok", UserID: 7})
	list, err := c.Inbox(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRespondConnectionRequestConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/connection-requests/5/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "accepted", body["status"])

		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
			"error": "invalid transition: connection_request 5 cannot move from rejected to accepted",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, Credentials{UserID: 2, Role: model.RoleMentor})
	_, err := c.RespondConnectionRequest(context.Background(), 5, model.ConnectionStatusAccepted)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.False(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "cannot move from rejected to accepted")
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, Credentials{}).MentorSessions(context.Background(), 1)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Contains(t, httpErr.Message, "gateway down")
}

func TestListStudentBookingsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bookings/", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("student_id"))
		assert.Equal(t, "true", r.URL.Query().Get("upcoming"))
		json.NewEncoder(w).Encode([]model.Booking{{ID: 1, Topic: "Go"}}) //nolint:errcheck
	}))
	defer srv.Close()

	list, err := New(srv.URL, Credentials{UserID: 3}).ListStudentBookings(context.Background(), 3, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Go", list[0].Topic)
}

func TestScheduleBookingBody(t *testing.T) {
	at := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/schedule-session/9/", r.URL.Path)

		var details model.ScheduleDetails
		require.NoError(t, json.NewDecoder(r.Body).Decode(&details))
		assert.True(t, at.Equal(details.ScheduledDateTime))
		assert.Equal(t, "https://meet.example/abc", details.MeetingLink)

		link := details.MeetingLink
		json.NewEncoder(w).Encode(model.Booking{ //nolint:errcheck
			ID:                9,
			Status:            model.BookingStatusScheduled,
			ScheduledDateTime: &at,
			MeetingLink:       &link,
		})
	}))
	defer srv.Close()

	booking, err := New(srv.URL, Credentials{UserID: 2}).ScheduleBooking(context.Background(), 9, model.ScheduleDetails{
		ScheduledDateTime: at,
		MeetingLink:       "https://meet.example/abc",
		MeetingID:         "1",
		Passcode:          "p",
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusScheduled, booking.Status)
}

func TestMarkConversationRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(4), body["other_id"])
		json.NewEncoder(w).Encode(map[string]int64{"marked": 3}) //nolint:errcheck
	}))
	defer srv.Close()

	marked, err := New(srv.URL, Credentials{UserID: 1}).MarkConversationRead(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)
}
