package widget

import (
	"context"
	"sync"
	"testing"
	"time"

	"deplodash/internal/models"
	"deplodash/internal/realtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAPI in-memory stand-in for the widget HTTP client
type fakeAPI struct {
	mu            sync.Mutex
	conversations []models.Conversation
	messages      map[uuid.UUID][]models.Message
	createCalls   int
	authCalls     int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{messages: make(map[uuid.UUID][]models.Message)}
}

func (f *fakeAPI) Authenticate(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	return nil
}

func (f *fakeAPI) authCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls
}

func (f *fakeAPI) CreateConversation(ctx context.Context, domainID uuid.UUID, title string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	now := time.Now()
	conv := models.Conversation{
		BaseModel:     models.BaseModel{ID: uuid.New(), CreatedAt: now},
		DomainID:      domainID,
		Title:         title,
		Status:        models.StatusActive,
		LastMessageAt: &now,
	}
	f.conversations = append(f.conversations, conv)
	copied := conv
	return &copied, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, conversationID uuid.UUID, content string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	msg := models.Message{
		BaseModel:      models.BaseModel{ID: uuid.New(), CreatedAt: time.Now()},
		ConversationID: conversationID,
		Content:        content,
		SenderType:     models.SenderUser,
	}
	f.messages[conversationID] = append(f.messages[conversationID], msg)
	copied := msg
	return &copied, nil
}

func (f *fakeAPI) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Listing runs the server's expiry sweep before building the result
	cutoff := time.Now().Add(-180 * 24 * time.Hour)
	for i := range f.conversations {
		c := &f.conversations[i]
		if c.Status == models.StatusActive && c.LastMessageAt != nil && c.LastMessageAt.Before(cutoff) {
			c.Status = models.StatusArchived
		}
	}

	out := make([]models.Conversation, len(f.conversations))
	copy(out, f.conversations)
	return out, nil
}

func (f *fakeAPI) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Message, len(f.messages[conversationID]))
	copy(out, f.messages[conversationID])
	return out, nil
}

func (f *fakeAPI) GetSettings(ctx context.Context, domainID uuid.UUID) (*models.DomainSettings, error) {
	return &models.DomainSettings{DomainID: domainID}, nil
}

func startReconciler(t *testing.T, api API) (*Reconciler, *realtime.Bus) {
	t.Helper()

	bus := realtime.NewBus()
	r, err := NewReconciler(api, bus, uuid.New(), "sess-1", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = r.Run(ctx) }()

	return r, bus
}

func TestReconcilerDedupesRealtimeEcho(t *testing.T) {
	api := newFakeAPI()
	r, bus := startReconciler(t, api)

	msg, err := r.SendMessage(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, r.Messages(), 1)

	// The server echoes the same insert over realtime; SendMessage already
	// subscribed to the conversation channel, so delivery is guaranteed
	require.NoError(t, bus.PublishNewMessage(&realtime.MessageEvent{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderType:     string(models.SenderUser),
		Content:        "hello",
		CreatedAt:      msg.CreatedAt,
	}))

	// A genuinely new message from the other side must still land
	replyID := uuid.New()
	require.NoError(t, bus.PublishNewMessage(&realtime.MessageEvent{
		MessageID:      replyID,
		ConversationID: msg.ConversationID,
		SenderType:     string(models.SenderBot),
		Content:        "hi there",
		CreatedAt:      time.Now(),
	}))

	require.Eventually(t, func() bool {
		messages := r.Messages()
		return len(messages) == 2 && messages[1].ID == replyID
	}, 2*time.Second, 10*time.Millisecond, "echo must be dropped, bot reply appended")
}

func TestReconcilerAdoptsConversationFromAnotherTab(t *testing.T) {
	api := newFakeAPI()
	r, bus := startReconciler(t, api)

	require.Nil(t, r.Conversation())

	event := &realtime.ConversationEvent{
		ConversationID: uuid.New(),
		DomainID:       uuid.New(),
		SessionID:      "sess-1",
		Title:          "New Conversation",
		Status:         string(models.StatusActive),
		CreatedAt:      time.Now(),
	}

	// Republish until the run loop has the session subscription up
	require.Eventually(t, func() bool {
		require.NoError(t, bus.PublishNewConversation(event))
		conv := r.Conversation()
		return conv != nil && conv.ID == event.ConversationID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReconcilerArchivalClosesComposer(t *testing.T) {
	api := newFakeAPI()
	r, bus := startReconciler(t, api)

	msg, err := r.SendMessage(context.Background(), "hello")
	require.NoError(t, err)
	require.True(t, r.CanSend())

	event := &realtime.ConversationEvent{
		ConversationID: msg.ConversationID,
		DomainID:       uuid.New(),
		SessionID:      "sess-1",
		Status:         string(models.StatusArchived),
	}

	require.Eventually(t, func() bool {
		require.NoError(t, bus.PublishConversationUpdate(event))
		return !r.CanSend()
	}, 2*time.Second, 10*time.Millisecond)

	_, err = r.SendMessage(context.Background(), "still there?")
	require.ErrorIs(t, err, ErrConversationClosed)
}

func TestReconcilerStartNewOpensFreshConversation(t *testing.T) {
	api := newFakeAPI()
	r, _ := startReconciler(t, api)

	first, err := r.SendMessage(context.Background(), "hello")
	require.NoError(t, err)

	r.StartNew()
	require.Nil(t, r.Conversation())
	require.Empty(t, r.Messages())
	require.True(t, r.CanSend())

	second, err := r.SendMessage(context.Background(), "hello again")
	require.NoError(t, err)
	require.NotEqual(t, first.ConversationID, second.ConversationID)
	require.Equal(t, 2, api.createCalls)
}

func TestReconcilerSendMintsFreshCredential(t *testing.T) {
	api := newFakeAPI()
	r, _ := startReconciler(t, api)
	require.Equal(t, 1, api.authCount())

	// Opening a conversation re-authenticates: the token from Init may
	// have expired while the widget sat idle
	_, err := r.SendMessage(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, 2, api.authCount())

	// Sending into the open conversation reuses the credential
	_, err = r.SendMessage(context.Background(), "and another thing")
	require.NoError(t, err)
	require.Equal(t, 2, api.authCount())
}

func TestReconcilerMessageFeedSurvivesConversationSwap(t *testing.T) {
	api := newFakeAPI()
	r, bus := startReconciler(t, api)

	_, err := r.SendMessage(context.Background(), "hello")
	require.NoError(t, err)

	// Swap conversations while the run loop may still be draining the
	// old message subscription
	r.StartNew()
	second, err := r.SendMessage(context.Background(), "fresh start")
	require.NoError(t, err)
	require.Len(t, r.Messages(), 1)

	// Replies to the new conversation must keep arriving
	replyID := uuid.New()
	require.Eventually(t, func() bool {
		require.NoError(t, bus.PublishNewMessage(&realtime.MessageEvent{
			MessageID:      replyID,
			ConversationID: second.ConversationID,
			SenderType:     string(models.SenderBot),
			Content:        "welcome back",
			CreatedAt:      time.Now(),
		}))
		messages := r.Messages()
		return len(messages) == 2 && messages[1].ID == replyID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReconcilerInitArchivesStaleConversation(t *testing.T) {
	api := newFakeAPI()

	_, err := api.CreateConversation(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	stale := time.Now().Add(-181 * 24 * time.Hour)
	api.conversations[0].LastMessageAt = &stale

	bus := realtime.NewBus()
	r, err := NewReconciler(api, bus, uuid.New(), "sess-1", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.Init(context.Background()))

	// The listing swept the idle thread into the archive; it is not
	// offered as a continuation
	require.Nil(t, r.Conversation())
	require.True(t, r.CanSend())
	require.Equal(t, models.StatusArchived, api.conversations[0].Status)
}

func TestReconcilerInitResumesActiveConversation(t *testing.T) {
	api := newFakeAPI()

	// Seed a previous visit: one archived, one active thread
	archived, err := api.CreateConversation(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	api.conversations[0].Status = models.StatusArchived
	_ = archived

	active, err := api.CreateConversation(context.Background(), uuid.New(), "")
	require.NoError(t, err)
	_, err = api.SendMessage(context.Background(), active.ID, "earlier message")
	require.NoError(t, err)

	bus := realtime.NewBus()
	r, err := NewReconciler(api, bus, uuid.New(), "sess-1", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, r.Init(context.Background()))

	conv := r.Conversation()
	require.NotNil(t, conv)
	require.Equal(t, active.ID, conv.ID)

	messages := r.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, "earlier message", messages[0].Content)
}
