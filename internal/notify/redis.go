package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel carrying change events.
const DefaultChannel = "tutorbook:changes"

type envelope struct {
	Origin string `json:"origin"`
	Event
}

// RedisNotifier publishes events to Redis and relays events published by
// other processes into the local hub.
type RedisNotifier struct {
	client  *redis.Client
	hub     *Hub
	channel string
	origin  string
	logger  *slog.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

var _ Publisher = (*RedisNotifier)(nil)

func NewRedisNotifier(client *redis.Client, hub *Hub, channel string, logger *slog.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisNotifier{
		client:  client,
		hub:     hub,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
	}
}

// NewRedisClient parses a redis:// URL and checks connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Publish delivers locally first, then to Redis for the other processes.
func (n *RedisNotifier) Publish(ctx context.Context, ev Event) error {
	if err := n.hub.Publish(ctx, ev); err != nil {
		return err
	}
	b, err := json.Marshal(envelope{Origin: n.origin, Event: ev})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Start subscribes to the channel and relays remote events until ctx ends or
// Close is called. It returns once the subscription is confirmed.
func (n *RedisNotifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pubsub != nil {
		return fmt.Errorf("notifier already started")
	}
	ps := n.client.Subscribe(ctx, n.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	n.pubsub = ps
	n.done = make(chan struct{})
	go n.relay(ctx, ps.Channel(), n.done)
	return nil
}

func (n *RedisNotifier) relay(ctx context.Context, msgs <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				n.logger.Warn("Dropping malformed change event", "channel", msg.Channel, "error", err)
				continue
			}
			if env.Origin == n.origin {
				continue
			}
			_ = n.hub.Publish(ctx, env.Event)
		}
	}
}

// Close stops the relay. The Redis client is owned by the caller.
func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	ps, done := n.pubsub, n.done
	n.pubsub = nil
	n.mu.Unlock()
	if ps == nil {
		return nil
	}
	err := ps.Close()
	<-done
	return err
}
