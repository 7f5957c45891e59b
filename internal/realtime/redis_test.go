package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func testBroker(t *testing.T) *RedisBroker {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisBroker(client, zap.NewNop())
}

func TestRedisBrokerRoundTrip(t *testing.T) {
	broker := testBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conversationID := uuid.New()
	ch, err := broker.Subscribe(ctx, ConversationMessagesChannel(conversationID))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	messageID := uuid.New()
	if err := broker.PublishNewMessage(&MessageEvent{
		MessageID:      messageID,
		ConversationID: conversationID,
		SenderType:     "bot",
		Content:        "hi there",
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case payload := <-ch:
		var event MessageEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if event.MessageID != messageID {
			t.Errorf("wrong message ID: %s", event.MessageID)
		}
		if event.Type != EventNewMessage {
			t.Errorf("expected type %q, got %q", EventNewMessage, event.Type)
		}
		if event.Content != "hi there" {
			t.Errorf("wrong content: %q", event.Content)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestRedisBrokerUpdateReachesInbox(t *testing.T) {
	broker := testBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	domainID := uuid.New()
	ch, err := broker.Subscribe(ctx, DomainConversationsChannel(domainID))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := broker.PublishConversationUpdate(&ConversationEvent{
		ConversationID: uuid.New(),
		DomainID:       domainID,
		SessionID:      "sess-1",
		Status:         "archived",
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case payload := <-ch:
		var event ConversationEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if event.Type != EventConversationUpdate {
			t.Errorf("expected type %q, got %q", EventConversationUpdate, event.Type)
		}
		if event.Status != "archived" {
			t.Errorf("wrong status: %q", event.Status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestRedisBrokerSubscribeClosedOnCancel(t *testing.T) {
	broker := testBroker(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := broker.Subscribe(ctx, "some-channel")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
