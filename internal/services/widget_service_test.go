package services

import (
	"context"
	"testing"
	"time"

	"deplodash/internal/bot"
	apperrors "deplodash/internal/errors"
	"deplodash/internal/models"
	"deplodash/internal/realtime"
	"deplodash/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ===========================================================================
// Fakes
// ===========================================================================

type fakeConversationRepo struct {
	byID    map[uuid.UUID]*models.Conversation
	touched map[uuid.UUID]time.Time
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		byID:    make(map[uuid.UUID]*models.Conversation),
		touched: make(map[uuid.UUID]time.Time),
	}
}

func (f *fakeConversationRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	conv, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *conv
	return &copied, nil
}

func (f *fakeConversationRepo) FindByDomain(ctx context.Context, domainID uuid.UUID, opts repositories.ListConversationsOptions) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range f.byID {
		if c.DomainID == domainID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) FindBySession(ctx context.Context, sessionID string) ([]models.Conversation, error) {
	var out []models.Conversation
	for _, c := range f.byID {
		if c.SessionID != nil && *c.SessionID == sessionID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) FindActiveBySession(ctx context.Context, sessionID string) (*models.Conversation, error) {
	for _, c := range f.byID {
		if c.SessionID != nil && *c.SessionID == sessionID && c.IsActive() {
			copied := *c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeConversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	if conv.ID == uuid.Nil {
		conv.ID = uuid.New()
	}
	conv.CreatedAt = time.Now()
	copied := *conv
	f.byID[conv.ID] = &copied
	return nil
}

func (f *fakeConversationRepo) Update(ctx context.Context, conv *models.Conversation) error {
	copied := *conv
	f.byID[conv.ID] = &copied
	return nil
}

func (f *fakeConversationRepo) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.touched[id] = at
	if c, ok := f.byID[id]; ok {
		c.LastMessageAt = &at
	}
	return nil
}

type fakeMessageRepo struct {
	messages []models.Message
}

func (f *fakeMessageRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	for i := range f.messages {
		if f.messages[i].ID == id {
			return &f.messages[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return nil
}

type fakeResponder struct {
	reply string
}

func (f *fakeResponder) Process(ctx context.Context, domainID uuid.UUID, content string) (*bot.BotResponse, error) {
	return &bot.BotResponse{Content: f.reply}, nil
}

type recordingPublisher struct {
	newConversations []*realtime.ConversationEvent
	updates          []*realtime.ConversationEvent
	messages         []*realtime.MessageEvent
}

func (p *recordingPublisher) PublishNewConversation(e *realtime.ConversationEvent) error {
	p.newConversations = append(p.newConversations, e)
	return nil
}

func (p *recordingPublisher) PublishConversationUpdate(e *realtime.ConversationEvent) error {
	p.updates = append(p.updates, e)
	return nil
}

func (p *recordingPublisher) PublishNewMessage(e *realtime.MessageEvent) error {
	p.messages = append(p.messages, e)
	return nil
}

func newTestWidgetService() (WidgetService, *fakeConversationRepo, *fakeMessageRepo, *recordingPublisher) {
	convRepo := newFakeConversationRepo()
	msgRepo := &fakeMessageRepo{}
	pub := &recordingPublisher{}
	svc := NewWidgetService(convRepo, msgRepo, &fakeResponder{reply: "auto reply"}, pub, 180*24*time.Hour, zap.NewNop())
	return svc, convRepo, msgRepo, pub
}

// ===========================================================================
// Tests
// ===========================================================================

func TestCreateConversation(t *testing.T) {
	svc, convRepo, _, pub := newTestWidgetService()

	domainID := uuid.New()
	conv, err := svc.CreateConversation(context.Background(), domainID, "sess-1", "")
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, conv.Status)
	require.Equal(t, "New Conversation", conv.Title)
	require.NotNil(t, conv.LastMessageAt, "a fresh conversation must sort into the inbox immediately")
	require.Contains(t, convRepo.byID, conv.ID)

	require.Len(t, pub.newConversations, 1)
	require.Equal(t, "sess-1", pub.newConversations[0].SessionID)
}

func TestCreateConversationRequiresSession(t *testing.T) {
	svc, _, _, _ := newTestWidgetService()

	_, err := svc.CreateConversation(context.Background(), uuid.New(), "", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSendMessageUserTriggersBotReply(t *testing.T) {
	svc, convRepo, msgRepo, pub := newTestWidgetService()

	conv, err := svc.CreateConversation(context.Background(), uuid.New(), "sess-1", "")
	require.NoError(t, err)

	result, err := svc.SendMessage(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SessionID:      "sess-1",
		Content:        "hello",
		SenderType:     models.SenderUser,
	})
	require.NoError(t, err)
	require.Equal(t, models.SenderUser, result.Message.SenderType)
	require.NotNil(t, result.BotReply)
	require.Equal(t, "auto reply", result.BotReply.Content)
	require.Equal(t, models.SenderBot, result.BotReply.SenderType)

	// Visitor message + bot reply both stored
	require.Len(t, msgRepo.messages, 2)

	// Parent conversation touched for both inserts
	require.Contains(t, convRepo.touched, conv.ID)

	// Both inserts published
	require.Len(t, pub.messages, 2)
}

func TestSendMessageBotSkipsAutoReply(t *testing.T) {
	svc, _, msgRepo, _ := newTestWidgetService()

	conv, err := svc.CreateConversation(context.Background(), uuid.New(), "sess-1", "")
	require.NoError(t, err)

	result, err := svc.SendMessage(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SessionID:      "sess-1",
		Content:        "greeting from operator",
		SenderType:     models.SenderBot,
	})
	require.NoError(t, err)
	require.Nil(t, result.BotReply)
	require.Len(t, msgRepo.messages, 1)
}

func TestSendMessageSessionMismatch(t *testing.T) {
	svc, _, _, _ := newTestWidgetService()

	conv, err := svc.CreateConversation(context.Background(), uuid.New(), "sess-1", "")
	require.NoError(t, err)

	_, err = svc.SendMessage(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SessionID:      "someone-else",
		Content:        "hello",
		SenderType:     models.SenderUser,
	})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSendMessageArchivedConversation(t *testing.T) {
	svc, convRepo, _, _ := newTestWidgetService()

	conv, err := svc.CreateConversation(context.Background(), uuid.New(), "sess-1", "")
	require.NoError(t, err)

	stored := convRepo.byID[conv.ID]
	stored.Status = models.StatusArchived

	_, err = svc.SendMessage(context.Background(), SendMessageInput{
		ConversationID: conv.ID,
		SessionID:      "sess-1",
		Content:        "hello",
		SenderType:     models.SenderUser,
	})
	require.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	svc, _, _, _ := newTestWidgetService()

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		ConversationID: uuid.New(),
		SessionID:      "sess-1",
		Content:        "hello",
		SenderType:     models.SenderUser,
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSendMessageInvalidSenderType(t *testing.T) {
	svc, _, _, _ := newTestWidgetService()

	_, err := svc.SendMessage(context.Background(), SendMessageInput{
		ConversationID: uuid.New(),
		SessionID:      "sess-1",
		Content:        "hello",
		SenderType:     models.SenderType("system"),
	})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestArchiveExpired(t *testing.T) {
	svc, convRepo, _, pub := newTestWidgetService()

	now := time.Now()
	stale := now.Add(-200 * 24 * time.Hour)
	fresh := now.Add(-time.Hour)
	sessionID := "sess-1"

	old := &models.Conversation{
		DomainID:      uuid.New(),
		SessionID:     &sessionID,
		Status:        models.StatusActive,
		LastMessageAt: &stale,
	}
	recent := &models.Conversation{
		DomainID:      uuid.New(),
		SessionID:     &sessionID,
		Status:        models.StatusActive,
		LastMessageAt: &fresh,
	}
	require.NoError(t, convRepo.Create(context.Background(), old))
	require.NoError(t, convRepo.Create(context.Background(), recent))

	archived, err := svc.ArchiveExpired(context.Background(), sessionID, now)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{old.ID}, archived)

	require.Equal(t, models.StatusArchived, convRepo.byID[old.ID].Status)
	require.Equal(t, models.StatusActive, convRepo.byID[recent.ID].Status)

	// Archival is announced so open widgets close their composer
	require.Len(t, pub.updates, 1)
	require.Equal(t, old.ID, pub.updates[0].ConversationID)
}

func TestArchiveExpiredNeverTouchesNilLastMessage(t *testing.T) {
	svc, convRepo, _, _ := newTestWidgetService()

	sessionID := "sess-1"
	conv := &models.Conversation{
		DomainID:  uuid.New(),
		SessionID: &sessionID,
		Status:    models.StatusActive,
	}
	require.NoError(t, convRepo.Create(context.Background(), conv))

	archived, err := svc.ArchiveExpired(context.Background(), sessionID, time.Now())
	require.NoError(t, err)
	require.Empty(t, archived)
	require.Equal(t, models.StatusActive, convRepo.byID[conv.ID].Status)
}
