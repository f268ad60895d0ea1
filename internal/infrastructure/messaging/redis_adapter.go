package messaging

import (
	"context"

	rediscache "github.com/learnhub/scoring-engine/internal/infrastructure/persistence/redis"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDIS CLIENT ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// CachePubSub adapts the persistence-layer Redis client to the RedisClient
// interface of the event bus, so both share one connection pool.
type CachePubSub struct {
	cache *rediscache.Cache
}

// NewCachePubSub creates the adapter.
func NewCachePubSub(cache *rediscache.Cache) *CachePubSub {
	return &CachePubSub{cache: cache}
}

// Publish sends a message to a channel.
func (a *CachePubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	return a.cache.Publish(ctx, channel, message)
}

// Subscribe opens a subscription and pumps messages into a RedisMessage
// channel until the context is cancelled.
func (a *CachePubSub) Subscribe(ctx context.Context, channels ...string) (<-chan RedisMessage, error) {
	pubsub := a.cache.Subscribe(ctx, channels...)

	// Force the subscription to be established before returning.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan RedisMessage)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				out <- RedisMessage{Channel: msg.Channel, Payload: msg.Payload}
			}
		}
	}()

	return out, nil
}

// Close is a no-op: the underlying cache client is owned by the caller.
func (a *CachePubSub) Close() error {
	return nil
}
