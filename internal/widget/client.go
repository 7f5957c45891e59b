package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"deplodash/internal/models"
	"deplodash/internal/services"

	"github.com/google/uuid"
)

// ===========================================================================
// Widget API Client
// HTTP client for the embed endpoints. Mirrors the calls the widget
// script makes: mint an anonymous token, create conversations, post
// messages, read history.
// ===========================================================================

// API is the surface the reconciler needs; *Client implements it
type API interface {
	Authenticate(ctx context.Context, sessionID string) error
	CreateConversation(ctx context.Context, domainID uuid.UUID, title string) (*models.Conversation, error)
	SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*models.Message, error)
	ListConversations(ctx context.Context) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error)
	GetSettings(ctx context.Context, domainID uuid.UUID) (*models.DomainSettings, error)
}

// Client talks to the widget API
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// NewClient creates a client for a server base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// envelope is the dashboard API response wrapper (the anonymous token
// endpoint uses it; the embed endpoints do not)
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("%s %s: %d: %s", method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Authenticate mints an anonymous token for the session
func (c *Client) Authenticate(ctx context.Context, sessionID string) error {
	var env envelope
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/anonymous",
		map[string]string{"session_id": sessionID}, &env)
	if err != nil {
		return err
	}

	var result services.AnonymousTokenResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}

	c.token = result.Token
	return nil
}

// CreateConversation starts a conversation, returning the raw row
func (c *Client) CreateConversation(ctx context.Context, domainID uuid.UUID, title string) (*models.Conversation, error) {
	var conv models.Conversation
	err := c.do(ctx, http.MethodPost, "/api/conversations", map[string]interface{}{
		"domain_id": domainID,
		"title":     title,
	}, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// SendMessage posts a visitor message, returning the raw row
func (c *Client) SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*models.Message, error) {
	var msg models.Message
	err := c.do(ctx, http.MethodPost, "/api/messages", map[string]interface{}{
		"conversation_id": conversationID,
		"content":         content,
		"sender_type":     string(models.SenderUser),
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListConversations returns the session's conversations
func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/widget/conversations", nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// ListMessages returns a conversation's history
func (c *Client) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	path := fmt.Sprintf("/api/widget/conversations/%s/messages", conversationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// GetSettings returns a domain's public chatbot settings
func (c *Client) GetSettings(ctx context.Context, domainID uuid.UUID) (*models.DomainSettings, error) {
	var settings models.DomainSettings
	path := fmt.Sprintf("/api/widget/settings?domain_id=%s", domainID)
	if err := c.do(ctx, http.MethodGet, path, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}
