package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Freeeeeet/mentorship_hub/internal/api"
	"github.com/Freeeeeet/mentorship_hub/internal/channel"
	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"go.uber.org/zap"
)

type watchKey struct {
	kind model.StatusKind
	id   int64
}

// StatusTracker держит последний известный статус заявок и бронирований,
// на которые подписан пользователь
type StatusTracker struct {
	wsBase string
	creds  api.Credentials
	logger *zap.Logger

	mu       sync.Mutex
	statuses map[watchKey]string
	channels map[watchKey]*channel.StatusChannel
	onUpdate func(model.StatusUpdate)
}

func NewStatusTracker(wsBase string, creds api.Credentials, logger *zap.Logger) *StatusTracker {
	return &StatusTracker{
		wsBase:   wsBase,
		creds:    creds,
		logger:   logger,
		statuses: make(map[watchKey]string),
		channels: make(map[watchKey]*channel.StatusChannel),
	}
}

// OnUpdate вызывается на каждый принятый кадр статуса
func (t *StatusTracker) OnUpdate(fn func(model.StatusUpdate)) {
	t.mu.Lock()
	t.onUpdate = fn
	t.mu.Unlock()
}

// WatchConnection подписывается на статусы заявки. initial известный статус до подписки
func (t *StatusTracker) WatchConnection(ctx context.Context, requestID int64, initial model.ConnectionStatus) error {
	key := watchKey{kind: model.StatusKindConnection, id: requestID}
	return t.watch(ctx, key, string(initial), channel.NewConnectionStatusChannel(t.wsBase, t.creds, requestID, t.logger))
}

// WatchBooking подписывается на статусы бронирования
func (t *StatusTracker) WatchBooking(ctx context.Context, bookingID int64, initial model.BookingStatus) error {
	key := watchKey{kind: model.StatusKindBooking, id: bookingID}
	return t.watch(ctx, key, string(initial), channel.NewBookingStatusChannel(t.wsBase, t.creds, bookingID, t.logger))
}

func (t *StatusTracker) watch(ctx context.Context, key watchKey, initial string, ch *channel.StatusChannel) error {
	t.mu.Lock()
	if _, ok := t.channels[key]; ok {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	ch.OnMessage(func(frame model.StatusFrame) {
		if frame.StatusUpdate == nil || frame.StatusUpdate.ID != key.id {
			return
		}
		t.apply(key, *frame.StatusUpdate)
	})
	if err := ch.Connect(ctx); err != nil {
		return fmt.Errorf("watch %s %d: %w", key.kind, key.id, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.channels[key]; ok {
		// параллельный Watch успел раньше
		_ = ch.Close()
		return nil
	}
	t.channels[key] = ch
	if initial != "" {
		if _, known := t.statuses[key]; !known {
			t.statuses[key] = initial
		}
	}
	return nil
}

func (t *StatusTracker) apply(key watchKey, update model.StatusUpdate) {
	t.mu.Lock()
	t.statuses[key] = update.Status
	notify := t.onUpdate
	t.mu.Unlock()

	t.logger.Debug("Status updated",
		zap.String("kind", string(key.kind)),
		zap.Int64("id", key.id),
		zap.String("status", update.Status),
	)
	if notify != nil {
		notify(update)
	}
}

// ConnectionStatus последний известный статус заявки
func (t *StatusTracker) ConnectionStatus(requestID int64) (model.ConnectionStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.statuses[watchKey{kind: model.StatusKindConnection, id: requestID}]
	return model.ConnectionStatus(s), ok
}

// BookingStatus последний известный статус бронирования
func (t *StatusTracker) BookingStatus(bookingID int64) (model.BookingStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.statuses[watchKey{kind: model.StatusKindBooking, id: bookingID}]
	return model.BookingStatus(s), ok
}

// Close закрывает все каналы статусов
func (t *StatusTracker) Close() {
	t.mu.Lock()
	channels := t.channels
	t.channels = make(map[watchKey]*channel.StatusChannel)
	t.mu.Unlock()

	for key, ch := range channels {
		if err := ch.Close(); err != nil {
			t.logger.Warn("Failed to close status channel",
				zap.String("kind", string(key.kind)),
				zap.Int64("id", key.id),
				zap.Error(err),
			)
		}
	}
}
