package service

import (
	"context"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
)

// Observer получает события после успешной записи в хранилище.
// Доставка best-effort: ошибки обработчик логирует сам, на операцию они не влияют.
type Observer interface {
	ConnectionRequested(ctx context.Context, req *model.ConnectionRequest)
	ConnectionAnswered(ctx context.Context, req *model.ConnectionRequest)
	BookingRequested(ctx context.Context, booking *model.Booking)
	BookingChanged(ctx context.Context, booking *model.Booking)
	MessageSent(ctx context.Context, msg *model.Message, senderName string)
}

// Observers рассылает событие всем наблюдателям по очереди
type Observers []Observer

func (o Observers) ConnectionRequested(ctx context.Context, req *model.ConnectionRequest) {
	for _, obs := range o {
		obs.ConnectionRequested(ctx, req)
	}
}

func (o Observers) ConnectionAnswered(ctx context.Context, req *model.ConnectionRequest) {
	for _, obs := range o {
		obs.ConnectionAnswered(ctx, req)
	}
}

func (o Observers) BookingRequested(ctx context.Context, booking *model.Booking) {
	for _, obs := range o {
		obs.BookingRequested(ctx, booking)
	}
}

func (o Observers) BookingChanged(ctx context.Context, booking *model.Booking) {
	for _, obs := range o {
		obs.BookingChanged(ctx, booking)
	}
}

func (o Observers) MessageSent(ctx context.Context, msg *model.Message, senderName string) {
	for _, obs := range o {
		obs.MessageSent(ctx, msg, senderName)
	}
}

// NopObserver встраивается в наблюдателей, которым нужны не все события
type NopObserver struct{}

func (NopObserver) ConnectionRequested(context.Context, *model.ConnectionRequest) {}
func (NopObserver) ConnectionAnswered(context.Context, *model.ConnectionRequest) {}
func (NopObserver) BookingRequested(context.Context, *model.Booking) {}
func (NopObserver) BookingChanged(context.Context, *model.Booking) {}
func (NopObserver) MessageSent(context.Context, *model.Message, string) {}
