package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// ===========================================================================
// In-Process Bus
// Publisher + Subscriber without external infrastructure. Used in
// development and tests; single-instance deployments can run on it too.
// ===========================================================================

// Bus implements Publisher and Subscriber in memory
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]chan []byte
}

// NewBus creates an in-process bus
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]chan []byte)}
}

func (b *Bus) publish(channel string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[channel] {
		// Non-blocking: a slow subscriber drops events rather than
		// stalling the publisher
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

// PublishNewConversation publishes to the session channel and the domain
// inbox channel
func (b *Bus) PublishNewConversation(event *ConversationEvent) error {
	event.Type = EventNewConversation
	if event.SessionID != "" {
		if err := b.publish(SessionConversationsChannel(event.SessionID), event); err != nil {
			return err
		}
	}
	return b.publish(DomainConversationsChannel(event.DomainID), event)
}

// PublishConversationUpdate publishes a conversation update
func (b *Bus) PublishConversationUpdate(event *ConversationEvent) error {
	event.Type = EventConversationUpdate
	if event.SessionID != "" {
		if err := b.publish(SessionUpdatesChannel(event.SessionID), event); err != nil {
			return err
		}
	}
	return b.publish(DomainConversationsChannel(event.DomainID), event)
}

// PublishNewMessage publishes a message insert
func (b *Bus) PublishNewMessage(event *MessageEvent) error {
	event.Type = EventNewMessage
	return b.publish(ConversationMessagesChannel(event.ConversationID), event)
}

// Subscribe delivers payloads from a channel until ctx is cancelled
func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	ch := make(chan []byte, 16)

	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()

		b.mu.Lock()
		subs := b.subs[channel]
		for i, c := range subs {
			if c == ch {
				b.subs[channel] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()

		close(ch)
	}()

	return ch, nil
}
