package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultInvalidationChannel is the Pub/Sub channel credential writes are announced on
const DefaultInvalidationChannel = "order_source:credential:invalidate"

// invalidationMessage announces that a scope's credential changed
type invalidationMessage struct {
	ScopeID   string `json:"scope_id"`
	Origin    string `json:"origin"`
	Timestamp int64  `json:"timestamp"`
}

// RedisCredentialInvalidator broadcasts credential writes between gateway instances
type RedisCredentialInvalidator struct {
	client  redis.UniversalClient
	channel string
	origin  string
	logger  *zap.Logger

	mu        sync.Mutex
	isRunning bool
}

// NewRedisCredentialInvalidator creates an invalidator. origin identifies this
// instance so it can ignore its own messages.
func NewRedisCredentialInvalidator(client redis.UniversalClient, channel, origin string, logger *zap.Logger) *RedisCredentialInvalidator {
	if channel == "" {
		channel = DefaultInvalidationChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCredentialInvalidator{
		client:  client,
		channel: channel,
		origin:  origin,
		logger:  logger,
	}
}

// Publish announces that scopeID's credential changed
func (i *RedisCredentialInvalidator) Publish(ctx context.Context, scopeID string) error {
	data, err := json.Marshal(invalidationMessage{
		ScopeID:   scopeID,
		Origin:    i.origin,
		Timestamp: time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal invalidation: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	return nil
}

// Subscribe blocks, invoking onInvalidate for each scope announced by another
// instance, until ctx is canceled or the channel closes.
func (i *RedisCredentialInvalidator) Subscribe(ctx context.Context, onInvalidate func(scopeID string)) error {
	i.mu.Lock()
	if i.isRunning {
		i.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	i.isRunning = true
	i.mu.Unlock()
	defer func() {
		i.mu.Lock()
		i.isRunning = false
		i.mu.Unlock()
	}()

	pubsub := i.client.Subscribe(ctx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	i.logger.Info("Subscribed to credential invalidation channel", zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			i.logger.Info("Credential invalidation subscription stopped")
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				i.logger.Warn("Credential invalidation channel closed")
				return nil
			}
			var m invalidationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				i.logger.Error("Failed to unmarshal invalidation message",
					zap.String("payload", msg.Payload),
					zap.Error(err))
				continue
			}
			if m.Origin == i.origin || m.ScopeID == "" {
				continue
			}
			onInvalidate(m.ScopeID)
		}
	}
}
