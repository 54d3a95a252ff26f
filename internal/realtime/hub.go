package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Bridge пересылает кадры между экземплярами сервера
type Bridge interface {
	Publish(ctx context.Context, topic string, data []byte) error
}

// Hub подписки соединений на топики (chat_*, status_*, notifications_*)
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Connection]struct{}

	bridge  Bridge
	metrics *Metrics
	logger  *zap.Logger
}

func NewHub(metrics *Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		topics:  make(map[string]map[*Connection]struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// SetBridge с мостом Publish идёт через него, а локальная доставка приходит обратно из моста
func (h *Hub) SetBridge(b Bridge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bridge = b
}

func (h *Hub) Subscribe(topic string, c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Connection]struct{})
		h.topics[topic] = subs
	}
	subs[c] = struct{}{}
	h.metrics.channelOpened(topic)
}

func (h *Hub) Unsubscribe(topic string, c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	if _, ok := subs[c]; !ok {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
	h.metrics.channelClosed(topic)
}

// Subscribers количество соединений на топике
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish сериализует кадр и отправляет его подписчикам топика
func (h *Hub) Publish(ctx context.Context, topic string, frame interface{}) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	h.mu.RLock()
	bridge := h.bridge
	h.mu.RUnlock()

	if bridge != nil {
		if err := bridge.Publish(ctx, topic, data); err != nil {
			return fmt.Errorf("publish to bridge: %w", err)
		}
		return nil
	}

	h.Deliver(topic, data)
	return nil
}

// Deliver пишет готовый кадр всем локальным подписчикам топика
func (h *Hub) Deliver(topic string, data []byte) int {
	h.mu.RLock()
	subs := make([]*Connection, 0, len(h.topics[topic]))
	for c := range h.topics[topic] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range subs {
		if err := c.Send(data); err != nil {
			h.metrics.deliveryFailed(topic)
			h.logger.Debug("Failed to queue frame",
				zap.String("topic", topic),
				zap.String("connection_id", c.ID()),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}

	h.metrics.delivered(topic, delivered)
	return delivered
}

// Close закрывает все соединения
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, subs := range h.topics {
		for c := range subs {
			_ = c.Close()
			h.metrics.channelClosed(topic)
		}
	}
	h.topics = make(map[string]map[*Connection]struct{})
}
