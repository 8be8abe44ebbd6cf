package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRelayChannel is the Redis pub/sub channel carrying events between
// server instances.
const DefaultRelayChannel = "checkin:events"

const (
	relayMinBackoff = 500 * time.Millisecond
	relayMaxBackoff = 30 * time.Second
)

type relayMessage struct {
	Room  string          `json:"room"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// subscription is the part of *redis.PubSub the relay uses.
type subscription interface {
	Receive(ctx context.Context) (interface{}, error)
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// RedisRelay publishes broadcasts through Redis so that every server
// instance, including the publishing one, delivers them to its own hub.
// While the relay is not subscribed, broadcasts are also delivered to the
// local hub directly so that this instance's displays keep working.
type RedisRelay struct {
	hub     *Hub
	channel string
	logger  *slog.Logger

	publish    func(ctx context.Context, channel, body string) error
	subscribe  func(ctx context.Context, channel string) subscription
	minBackoff time.Duration
	maxBackoff time.Duration

	live atomic.Bool
}

// NewRedisRelay returns a relay feeding hub from channel.
func NewRedisRelay(rdb *redis.Client, hub *Hub, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &RedisRelay{
		hub:     hub,
		channel: channel,
		logger:  hub.logger,
		publish: func(ctx context.Context, channel, body string) error {
			return rdb.Publish(ctx, channel, body).Err()
		},
		subscribe: func(ctx context.Context, channel string) subscription {
			return rdb.Subscribe(ctx, channel)
		},
		minBackoff: relayMinBackoff,
		maxBackoff: relayMaxBackoff,
	}
}

// Subscribed reports whether the relay currently receives from Redis.
func (r *RedisRelay) Subscribed() bool { return r.live.Load() }

// Broadcast publishes the event.  If Redis rejects the publish the event is
// delivered to the local hub only and the error is returned.
func (r *RedisRelay) Broadcast(ctx context.Context, room, event string, payload any) error {
	body, err := encodeRelay(room, event, payload)
	if err != nil {
		return err
	}
	if err := r.publish(ctx, r.channel, body); err != nil {
		_ = r.hub.Broadcast(ctx, room, event, payload)
		return fmt.Errorf("relay publish %s: %w", event, err)
	}
	if !r.live.Load() {
		return r.hub.Broadcast(ctx, room, event, payload)
	}
	return nil
}

// Run keeps the relay subscribed until ctx is cancelled, resubscribing with
// exponential backoff whenever the subscription fails or closes.
func (r *RedisRelay) Run(ctx context.Context) error {
	backoff := r.minBackoff
	for {
		received, err := r.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if received {
			backoff = r.minBackoff
		}
		r.logger.Warn("realtime relay disconnected, delivering locally", "error", err, "retry_in", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > r.maxBackoff {
			backoff = r.maxBackoff
		}
	}
}

// runOnce holds one subscription.  It reports whether the subscription was
// confirmed before it ended.
func (r *RedisRelay) runOnce(ctx context.Context) (bool, error) {
	sub := r.subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()
	if _, err := sub.Receive(ctx); err != nil {
		return false, fmt.Errorf("relay subscribe: %w", err)
	}
	r.live.Store(true)
	defer r.live.Store(false)
	r.logger.Info("realtime relay subscribed", "channel", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return true, errors.New("relay channel closed")
			}
			if err := r.deliver(ctx, msg.Payload); err != nil {
				r.logger.Warn("relay message dropped", "error", err)
			}
		}
	}
}

func (r *RedisRelay) deliver(ctx context.Context, body string) error {
	var m relayMessage
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return fmt.Errorf("decode relay message: %w", err)
	}
	var payload any
	if len(m.Data) > 0 {
		payload = m.Data
	}
	return r.hub.Broadcast(ctx, m.Room, m.Event, payload)
}

func encodeRelay(room, event string, payload any) (string, error) {
	m := relayMessage{Room: room, Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("marshal %s: %w", event, err)
		}
		m.Data = data
	}
	body, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
