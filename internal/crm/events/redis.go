package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisRelay publishes events on a redis channel and feeds every event seen
// on that channel into the local hub, so all instances see all changes.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger
}

func NewRedisRelay(rdb *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{rdb: rdb, channel: channel, hub: hub, logger: logger}
}

// Publish falls back to the local hub when redis is unavailable.
func (r *RedisRelay) Publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("marshal event", zap.Error(err))
		return
	}
	if err := r.rdb.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Warn("redis publish failed, delivering locally", zap.Error(err))
		r.hub.Broadcast(event)
	}
}

// Start subscribes to the channel and relays messages until ctx is done.
// It returns once the subscription is confirmed.
func (r *RedisRelay) Start(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					r.logger.Warn("discarding malformed event", zap.Error(err))
					continue
				}
				r.hub.Broadcast(event)
			}
		}
	}()

	r.logger.Info("redis event relay started", zap.String("channel", r.channel))
	return nil
}
