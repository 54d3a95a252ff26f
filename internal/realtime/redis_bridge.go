package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// envelope кадр в redis канале: топик хаба и готовый JSON
type envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBridge fan-out кадров между экземплярами через redis pub/sub
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

func NewRedisBridge(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger,
	}
}

func (b *RedisBridge) Publish(ctx context.Context, topic string, data []byte) error {
	payload, err := encodeEnvelope(topic, data)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Run подписывается на канал и раздаёт кадры локальным подписчикам до отмены ctx
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Ждём подтверждения подписки, иначе первые кадры потеряются
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	b.logger.Info("Redis bridge subscribed", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			topic, data, err := decodeEnvelope(msg.Payload)
			if err != nil {
				b.logger.Warn("Dropping malformed bridge frame", zap.Error(err))
				continue
			}
			b.hub.Deliver(topic, data)
		}
	}
}

func encodeEnvelope(topic string, data []byte) ([]byte, error) {
	payload, err := json.Marshal(envelope{Topic: topic, Payload: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return payload, nil
}

func decodeEnvelope(payload string) (string, []byte, error) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return "", nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Topic == "" {
		return "", nil, errors.New("envelope without topic")
	}
	return env.Topic, env.Payload, nil
}
