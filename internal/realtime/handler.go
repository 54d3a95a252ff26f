package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Identifier определяет пользователя по запросу на подключение
type Identifier interface {
	Identify(r *http.Request) (service.Actor, error)
}

type ConnectionLookup interface {
	Get(ctx context.Context, actor service.Actor, requestID int64) (*model.ConnectionRequest, error)
}

type BookingLookup interface {
	Get(ctx context.Context, actor service.Actor, bookingID int64) (*model.Booking, error)
}

type MessageSender interface {
	Send(ctx context.Context, actor service.Actor, in service.SendInput) (*model.Message, error)
}

// Handler websocket endpoints: переписка, статусы заявок и бронирований, личные уведомления
type Handler struct {
	hub         *Hub
	identifier  Identifier
	connections ConnectionLookup
	bookings    BookingLookup
	sender      MessageSender
	opts        Options
	logger      *zap.Logger
}

func NewHandler(
	hub *Hub,
	identifier Identifier,
	connections ConnectionLookup,
	bookings BookingLookup,
	sender MessageSender,
	opts Options,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		hub:         hub,
		identifier:  identifier,
		connections: connections,
		bookings:    bookings,
		sender:      sender,
		opts:        opts,
		logger:      logger,
	}
}

// Routes регистрирует endpoints с завершающим слэшем и без
func (h *Handler) Routes(r chi.Router) {
	routes := map[string]http.HandlerFunc{
		"/ws/chat/{sender_id}/{receiver_id}": h.chat,
		"/ws/status/{connection_id}":         h.connectionStatus,
		"/ws/booking-status/{booking_id}":    h.bookingStatus,
		"/ws/notifications/{user_id}":        h.notifications,
	}
	for pattern, fn := range routes {
		r.Get(pattern, fn)
		r.Get(pattern+"/", fn)
	}
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	senderID, ok1 := pathID(r, "sender_id")
	receiverID, ok2 := pathID(r, "receiver_id")
	if !ok1 || !ok2 {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	actor, ok := h.identify(w, r)
	if !ok {
		return
	}
	if actor.UserID != senderID && actor.UserID != receiverID && !actor.IsAdmin() {
		http.Error(w, "not a participant of this conversation", http.StatusForbidden)
		return
	}

	h.serve(w, r, actor, model.ChatTopic(senderID, receiverID), h.chatInbound)
}

func (h *Handler) connectionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "connection_id")
	if !ok {
		http.Error(w, "invalid connection id", http.StatusBadRequest)
		return
	}

	actor, ok := h.identify(w, r)
	if !ok {
		return
	}
	if _, err := h.connections.Get(r.Context(), actor, id); err != nil {
		h.lookupFailed(w, err)
		return
	}

	h.serve(w, r, actor, model.StatusTopic(id), nil)
}

func (h *Handler) bookingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "booking_id")
	if !ok {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}

	actor, ok := h.identify(w, r)
	if !ok {
		return
	}
	if _, err := h.bookings.Get(r.Context(), actor, id); err != nil {
		h.lookupFailed(w, err)
		return
	}

	h.serve(w, r, actor, model.BookingStatusTopic(id), nil)
}

func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "user_id")
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	actor, ok := h.identify(w, r)
	if !ok {
		return
	}
	if actor.UserID != userID && !actor.IsAdmin() {
		http.Error(w, "cannot subscribe to another user's notifications", http.StatusForbidden)
		return
	}

	h.serve(w, r, actor, model.UserTopic(userID), nil)
}

// serve апгрейдит соединение, подписывает на топик и держит его до закрытия
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, actor service.Actor, topic string, inbound func(*Connection, []byte)) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.String("topic", topic), zap.Error(err))
		return
	}

	wsConn := NewConnection(conn, actor, h.opts)
	h.hub.Subscribe(topic, wsConn)
	defer h.hub.Unsubscribe(topic, wsConn)

	h.logger.Debug("Channel opened",
		zap.String("topic", topic),
		zap.String("connection_id", wsConn.ID()),
		zap.Int64("user_id", actor.UserID),
	)

	wsConn.ReadLoop(func(data []byte) {
		if inbound != nil {
			inbound(wsConn, data)
		}
	})

	h.logger.Debug("Channel closed",
		zap.String("topic", topic),
		zap.String("connection_id", wsConn.ID()),
	)
}

// chatInbound сообщение, отправленное прямо в сокет переписки
func (h *Handler) chatInbound(c *Connection, data []byte) {
	var frame model.ChatSend
	if err := json.Unmarshal(data, &frame); err != nil {
		h.logger.Debug("Dropping malformed chat frame", zap.String("connection_id", c.ID()), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.sender.Send(ctx, c.Actor(), service.SendInput{
		SenderType: frame.SenderType,
		SenderID:   int64(frame.SenderID),
		ReceiverID: int64(frame.ReceiverID),
		Content:    frame.Content,
	})
	if err != nil {
		h.logger.Info("Chat message rejected", zap.String("connection_id", c.ID()), zap.Error(err))
		reply, _ := json.Marshal(model.ErrorFrame{Type: model.FrameError, Error: err.Error()})
		_ = c.Send(reply)
	}
}

func (h *Handler) identify(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	actor, err := h.identifier.Identify(r)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return service.Actor{}, false
	}
	return actor, true
}

func (h *Handler) lookupFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		h.logger.Error("Channel lookup failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
