package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Freeeeeet/mentorship_hub/internal/realtime"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	Identifier realtime.Identifier
	Users      *service.UserService
	Relations  *service.RelationshipService
	Bookings   *service.BookingService
	Messages   *service.MessageService
	WebSocket  *realtime.Handler
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

type Server struct {
	identifier realtime.Identifier
	users      *service.UserService
	relations  *service.RelationshipService
	bookings   *service.BookingService
	messages   *service.MessageService
	ws         *realtime.Handler
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
}

func NewServer(deps Deps) *Server {
	return &Server{
		identifier: deps.Identifier,
		users:      deps.Users,
		relations:  deps.Relations,
		bookings:   deps.Bookings,
		messages:   deps.Messages,
		ws:         deps.WebSocket,
		gatherer:   deps.Gatherer,
		logger:     deps.Logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	// Регистрация без идентификации: учётные записи выдаёт внешний auth
	r.Post("/api/users/", s.handleRegisterUser)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/api/users/{userID}/", s.handleGetUser)
		r.Post("/api/users/{userID}/telegram/", s.handleLinkTelegram)

		r.Post("/api/simple-connection-request/", s.handleCreateConnection)
		r.Get("/api/connection-requests/{requestID}/", s.handleGetConnection)
		r.Patch("/api/connection-requests/{requestID}/", s.handleRespondConnection)
		r.Get("/api/connection-status/", s.handleConnectionStatus)
		r.Get("/api/mentor/requests/", s.handleMentorRequests)
		r.Get("/api/student/connections/", s.handleStudentConnections)

		r.Post("/api/book-session/", s.handleCreateBooking)
		r.Get("/api/bookings/", s.handleListBookings)
		r.Get("/api/bookings/{bookingID}/", s.handleGetBooking)
		r.Patch("/api/booking-status/{bookingID}/", s.handleRespondBooking)
		r.Post("/api/schedule-session/{bookingID}/", s.handleScheduleBooking)
		r.Get("/api/student/sessions/", s.handleStudentSessions)
		r.Get("/api/mentor/booking-requests/", s.handleMentorBookingRequests)
		r.Get("/api/accepted-bookings/", s.handleAcceptedBookings)
		r.Get("/api/mentor/sessions/", s.handleMentorSessions)

		r.Post("/api/messages/", s.handleSendMessage)
		r.Get("/api/messages/list/", s.handleConversation)
		r.Get("/api/messages/inbox/", s.handleInbox)
		r.Post("/api/messages/read/", s.handleMarkRead)
	})

	if s.ws != nil {
		s.ws.Routes(r)
	}

	return r
}

type actorKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.identifier.Identify(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(ctx context.Context) service.Actor {
	actor, _ := ctx.Value(actorKey{}).(service.Actor)
	return actor
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError ошибки сервисов в HTTP статус
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requireSelf списки стороны видит только она сама или админ
func requireSelf(w http.ResponseWriter, actor service.Actor, partyID int64) bool {
	if actor.UserID != partyID && !actor.IsAdmin() {
		writeError(w, http.StatusForbidden, "cannot read data of another user")
		return false
	}
	return true
}

// emptyList null в JSON ломает клиентов, отдаём []
func emptyList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
