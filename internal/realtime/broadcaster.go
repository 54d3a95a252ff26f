package realtime

import (
	"context"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/Freeeeeet/mentorship_hub/internal/service"
	"go.uber.org/zap"
)

// Broadcaster превращает события сервисов в кадры push-каналов
type Broadcaster struct {
	hub     *Hub
	metrics *Metrics
	logger  *zap.Logger
}

var _ service.Observer = (*Broadcaster)(nil)

func NewBroadcaster(hub *Hub, metrics *Metrics, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, metrics: metrics, logger: logger}
}

func (b *Broadcaster) publish(ctx context.Context, topic string, frame interface{}) {
	if err := b.hub.Publish(ctx, topic, frame); err != nil {
		b.logger.Warn("Failed to publish frame", zap.String("topic", topic), zap.Error(err))
	}
}

// ConnectionRequested кадр new_request в личный канал ментора
func (b *Broadcaster) ConnectionRequested(ctx context.Context, req *model.ConnectionRequest) {
	b.publish(ctx, model.UserTopic(req.MentorID), model.UserFrame{
		Type:       model.FrameNewRequest,
		SenderID:   req.StudentID,
		SenderName: req.StudentName,
		SenderType: model.SenderStudent,
		Content:    req.Message,
		Timestamp:  req.CreatedAt.UTC().Format(time.RFC3339),
		ReceiverID: req.MentorID,
		Request:    req,
	})
}

// ConnectionAnswered кадр status_update в канал статуса заявки
func (b *Broadcaster) ConnectionAnswered(ctx context.Context, req *model.ConnectionRequest) {
	b.metrics.transition(string(model.StatusKindConnection), string(req.Status))

	update := &model.StatusUpdate{ID: req.ID, Kind: model.StatusKindConnection, Status: string(req.Status)}
	if req.UpdatedAt != nil {
		update.UpdatedAt = req.UpdatedAt.UTC()
	}
	b.publish(ctx, model.StatusTopic(req.ID), model.StatusFrame{StatusUpdate: update})
}

// BookingRequested кадр booking_request в личный канал ментора
func (b *Broadcaster) BookingRequested(ctx context.Context, booking *model.Booking) {
	b.publish(ctx, model.UserTopic(booking.MentorID), model.UserFrame{
		Type:       model.FrameBookingRequest,
		SenderID:   booking.StudentID,
		SenderName: booking.StudentName,
		SenderType: model.SenderStudent,
		Content:    booking.Topic,
		Timestamp:  booking.CreatedAt.UTC().Format(time.RFC3339),
		ReceiverID: booking.MentorID,
		Booking:    booking,
	})
}

// BookingChanged кадр status_update в канал статуса бронирования
func (b *Broadcaster) BookingChanged(ctx context.Context, booking *model.Booking) {
	b.metrics.transition(string(model.StatusKindBooking), string(booking.Status))

	b.publish(ctx, model.BookingStatusTopic(booking.ID), model.StatusFrame{StatusUpdate: &model.StatusUpdate{
		ID:        booking.ID,
		Kind:      model.StatusKindBooking,
		Status:    string(booking.Status),
		UpdatedAt: booking.UpdatedAt.UTC(),
	}})
}

// MessageSent сообщение в комнату пары и message_notification получателю
func (b *Broadcaster) MessageSent(ctx context.Context, msg *model.Message, senderName string) {
	b.publish(ctx, model.ChatTopic(msg.SenderID, msg.ReceiverID), model.ChatFrame{
		Type:       model.FrameChatMessage,
		Message:    msg,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
	})

	b.publish(ctx, model.UserTopic(msg.ReceiverID), model.UserFrame{
		Type:       model.FrameMessageNotification,
		SenderID:   msg.SenderID,
		SenderName: senderName,
		SenderType: msg.SenderType,
		Content:    model.NewMessageNotificationText(senderName),
		Timestamp:  msg.Timestamp.UTC().Format(time.RFC3339Nano),
		ReceiverID: msg.ReceiverID,
	})
}
