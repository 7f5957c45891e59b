package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ===========================================================================
// Centrifugo Client
// Publish realtime events to a Centrifugo server
// Browser clients (widget embeds and the dashboard) connect to Centrifugo
// directly over WebSocket; the backend only publishes.
// ===========================================================================

// CentrifugoClient implements Publisher
type CentrifugoClient struct {
	url    string
	apiKey string
	client *http.Client
	log    *zap.Logger
}

// NewCentrifugoClient creates a new Centrifugo client
func NewCentrifugoClient(url, apiKey string, log *zap.Logger) *CentrifugoClient {
	return &CentrifugoClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

// publishRequest sends a request to Centrifugo API
type publishRequest struct {
	Method string      `json:"method"`
	Params interface{} `json:"params"`
}

type publishParams struct {
	Channel string      `json:"channel"`
	Data    interface{} `json:"data"`
}

func (c *CentrifugoClient) publish(channel string, data interface{}) error {
	req := publishRequest{
		Method: "publish",
		Params: publishParams{
			Channel: channel,
			Data:    data,
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", c.url+"/api", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "apikey "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.log.Warn("centrifugo publish failed", zap.Error(err))
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("centrifugo publish bad status",
			zap.Int("status", resp.StatusCode),
			zap.String("channel", channel),
		)
		return fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	c.log.Debug("published to centrifugo",
		zap.String("channel", channel),
	)

	return nil
}

// PublishNewConversation publishes a new-conversation event to the
// session channel and the domain inbox channel
func (c *CentrifugoClient) PublishNewConversation(event *ConversationEvent) error {
	event.Type = EventNewConversation
	if event.SessionID != "" {
		if err := c.publish(SessionConversationsChannel(event.SessionID), event); err != nil {
			return err
		}
	}
	return c.publish(DomainConversationsChannel(event.DomainID), event)
}

// PublishConversationUpdate publishes a conversation update
func (c *CentrifugoClient) PublishConversationUpdate(event *ConversationEvent) error {
	event.Type = EventConversationUpdate
	if event.SessionID != "" {
		if err := c.publish(SessionUpdatesChannel(event.SessionID), event); err != nil {
			return err
		}
	}
	return c.publish(DomainConversationsChannel(event.DomainID), event)
}

// PublishNewMessage publishes a message insert to the conversation channel
func (c *CentrifugoClient) PublishNewMessage(event *MessageEvent) error {
	event.Type = EventNewMessage
	return c.publish(ConversationMessagesChannel(event.ConversationID), event)
}

// ===========================================================================
// Noop Publisher (for when realtime is not configured)
// ===========================================================================

// NoopPublisher does nothing (used when realtime is disabled)
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (n *NoopPublisher) PublishNewConversation(event *ConversationEvent) error { return nil }

func (n *NoopPublisher) PublishConversationUpdate(event *ConversationEvent) error { return nil }

func (n *NoopPublisher) PublishNewMessage(event *MessageEvent) error { return nil }
