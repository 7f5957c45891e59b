package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ===========================================================================
// Redis Pub/Sub
// Publisher + Subscriber backed by Redis channels. Used when multiple
// server instances need to fan events out to in-process subscribers
// (the widget client core and the inbox store both consume through this).
// ===========================================================================

// RedisBroker implements Publisher and Subscriber over Redis pub/sub
type RedisBroker struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisBroker creates a broker on an existing Redis client
func NewRedisBroker(client *redis.Client, log *zap.Logger) *RedisBroker {
	return &RedisBroker{client: client, log: log}
}

func (b *RedisBroker) publish(channel string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.client.Publish(context.Background(), channel, payload).Err(); err != nil {
		b.log.Warn("redis publish failed",
			zap.String("channel", channel),
			zap.Error(err),
		)
		return fmt.Errorf("redis publish: %w", err)
	}

	b.log.Debug("published to redis", zap.String("channel", channel))
	return nil
}

// PublishNewConversation publishes to the session channel and the domain
// inbox channel
func (b *RedisBroker) PublishNewConversation(event *ConversationEvent) error {
	event.Type = EventNewConversation
	if event.SessionID != "" {
		if err := b.publish(SessionConversationsChannel(event.SessionID), event); err != nil {
			return err
		}
	}
	return b.publish(DomainConversationsChannel(event.DomainID), event)
}

// PublishConversationUpdate publishes a conversation update
func (b *RedisBroker) PublishConversationUpdate(event *ConversationEvent) error {
	event.Type = EventConversationUpdate
	if event.SessionID != "" {
		if err := b.publish(SessionUpdatesChannel(event.SessionID), event); err != nil {
			return err
		}
	}
	return b.publish(DomainConversationsChannel(event.DomainID), event)
}

// PublishNewMessage publishes a message insert
func (b *RedisBroker) PublishNewMessage(event *MessageEvent) error {
	event.Type = EventNewMessage
	return b.publish(ConversationMessagesChannel(event.ConversationID), event)
}

// Subscribe delivers raw payloads from a Redis channel until ctx is
// cancelled. The returned channel is closed on cancellation.
func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := b.client.Subscribe(ctx, channel)

	// Wait for the subscription to be confirmed so callers never miss
	// events published right after Subscribe returns
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan []byte, 16)
	msgs := sub.Channel()

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
