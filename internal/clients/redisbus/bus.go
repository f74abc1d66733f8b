package redisbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/skillforge-hq/skillforge-backend/internal/logger"
	"github.com/skillforge-hq/skillforge-backend/internal/sse"
	"github.com/skillforge-hq/skillforge-backend/internal/utils"
)

// Bus mirrors progress messages through Redis pub/sub so every replica's SSE
// hub sees events produced on any other replica. It is optional: a nil *Bus
// is safe to call and does nothing.
type Bus struct {
	log     *logger.Logger
	client  *redis.Client
	channel string
}

func New(log *logger.Logger) (*Bus, error) {
	busLog := log.With("component", "RedisBus")
	addr := utils.GetEnv("REDIS_ADDR", "", busLog)
	if addr == "" {
		busLog.Info("REDIS_ADDR not set, progress events stay in-process")
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.GetEnv("REDIS_PASSWORD", "", busLog),
		DB:       utils.GetEnvAsInt("REDIS_DB", 0, busLog),
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Bus{
		log:     busLog,
		client:  client,
		channel: utils.GetEnv("REDIS_EVENTS_CHANNEL", "skillforge:generation-events", busLog),
	}, nil
}

func (b *Bus) Publish(ctx context.Context, msg sse.Message) error {
	if b == nil {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal bus message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish bus message: %w", err)
	}
	return nil
}

// StartForwarder subscribes to the bus channel and hands every received
// message to deliver until ctx is cancelled.
func (b *Bus) StartForwarder(ctx context.Context, deliver func(sse.Message)) {
	if b == nil {
		return
	}
	sub := b.client.Subscribe(ctx, b.channel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				var msg sse.Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					b.log.Warn("Dropping malformed bus message", "error", err)
					continue
				}
				deliver(msg)
			}
		}
	}()
}

func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	return b.client.Close()
}
