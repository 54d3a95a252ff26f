package httpapi

import (
	"net/http"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
)

type createBookingRequest struct {
	StudentID         int64     `json:"student_id"`
	MentorID          int64     `json:"mentor_id"`
	Topic             string    `json:"topic"`
	PreferredDateTime time.Time `json:"preferred_date_time"`
	Message           string    `json:"message"`
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	booking, err := s.bookings.Create(r.Context(), actorFrom(r.Context()), service.CreateBookingInput{
		StudentID:         req.StudentID,
		MentorID:          req.MentorID,
		Topic:             req.Topic,
		PreferredDateTime: req.PreferredDateTime,
		Message:           req.Message,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "bookingID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := s.bookings.Get(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleRespondBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "bookingID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var body statusRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	booking, err := s.bookings.Respond(r.Context(), actorFrom(r.Context()), id, model.BookingStatus(body.Status))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleScheduleBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "bookingID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var details model.ScheduleDetails
	if err := decodeJSON(r, &details); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	booking, err := s.bookings.Schedule(r.Context(), actorFrom(r.Context()), id, details)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// handleListBookings ?student_id= или ?mentor_id=, ?upcoming=true убирает прошедшие
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	upcoming := r.URL.Query().Get("upcoming") == "true"

	var (
		list []*model.Booking
		err  error
	)
	if studentID, ok := queryID(r, "student_id"); ok {
		if !requireSelf(w, actor, studentID) {
			return
		}
		list, err = s.bookings.ListForStudent(r.Context(), studentID, upcoming)
	} else if mentorID, ok := queryID(r, "mentor_id"); ok {
		if !requireSelf(w, actor, mentorID) {
			return
		}
		list, err = s.bookings.ListForMentor(r.Context(), mentorID, upcoming)
	} else {
		writeError(w, http.StatusBadRequest, "student_id or mentor_id is required")
		return
	}

	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(list))
}

type bookingLister func(r *http.Request, partyID int64) ([]*model.Booking, error)

// partyBookings общий обработчик списков по ?student_id= или ?mentor_id=
func (s *Server) partyBookings(w http.ResponseWriter, r *http.Request, param string, list bookingLister) {
	partyID, ok := queryID(r, param)
	if !ok {
		writeError(w, http.StatusBadRequest, param+" is required")
		return
	}
	if !requireSelf(w, actorFrom(r.Context()), partyID) {
		return
	}

	bookings, err := list(r, partyID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyList(bookings))
}

func (s *Server) handleStudentSessions(w http.ResponseWriter, r *http.Request) {
	s.partyBookings(w, r, "student_id", func(r *http.Request, id int64) ([]*model.Booking, error) {
		return s.bookings.ListStudentSessions(r.Context(), id)
	})
}

func (s *Server) handleMentorBookingRequests(w http.ResponseWriter, r *http.Request) {
	s.partyBookings(w, r, "mentor_id", func(r *http.Request, id int64) ([]*model.Booking, error) {
		return s.bookings.ListPendingForMentor(r.Context(), id)
	})
}

func (s *Server) handleAcceptedBookings(w http.ResponseWriter, r *http.Request) {
	s.partyBookings(w, r, "mentor_id", func(r *http.Request, id int64) ([]*model.Booking, error) {
		return s.bookings.ListAcceptedForMentor(r.Context(), id)
	})
}

func (s *Server) handleMentorSessions(w http.ResponseWriter, r *http.Request) {
	s.partyBookings(w, r, "mentor_id", func(r *http.Request, id int64) ([]*model.Booking, error) {
		return s.bookings.ListMentorSessions(r.Context(), id)
	})
}
