package services

import (
	"context"
	"time"

	"deplodash/internal/models"

	"github.com/google/uuid"
)

// ===========================================================================
// Service Interfaces
// ===========================================================================

// TokenPair tokens returned to authenticated dashboard clients
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// LoginResult of a login or token refresh
type LoginResult struct {
	Profile *models.Profile
	Tokens  *TokenPair
}

// AnonymousTokenResult token issued to a widget session
type AnonymousTokenResult struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthService handles dashboard and widget authentication
type AuthService interface {
	// Signup registers a new profile
	Signup(ctx context.Context, username, email, password, fullName string) (*LoginResult, error)

	// Login authenticates with email and password
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// RefreshTokens rotates the token pair using a refresh token
	RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error)

	// GetProfileByID loads a profile
	GetProfileByID(ctx context.Context, profileID uuid.UUID) (*models.Profile, error)

	// RevokeRefreshToken invalidates the stored refresh token (logout)
	RevokeRefreshToken(ctx context.Context, profileID uuid.UUID) error

	// IssueAnonymousToken mints a widget session token. An empty
	// sessionID gets a freshly generated one.
	IssueAnonymousToken(ctx context.Context, sessionID string) (*AnonymousTokenResult, error)
}

// SendMessageInput input for WidgetService.SendMessage
type SendMessageInput struct {
	ConversationID uuid.UUID
	SessionID      string
	Content        string
	SenderType     models.SenderType
}

// SendMessageResult message created plus the bot's reply when one was sent
type SendMessageResult struct {
	Message  *models.Message
	BotReply *models.Message
}

// WidgetService handles the embeddable widget's conversation flow
type WidgetService interface {
	// CreateConversation starts a new conversation for a widget session
	CreateConversation(ctx context.Context, domainID uuid.UUID, sessionID, title string) (*models.Conversation, error)

	// SendMessage appends a message, touches the parent conversation and
	// triggers the bot auto-reply for visitor messages
	SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error)

	// ArchiveExpired archives a session's stale active conversations.
	// Returns the IDs archived.
	ArchiveExpired(ctx context.Context, sessionID string, now time.Time) ([]uuid.UUID, error)
}
