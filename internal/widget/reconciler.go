package widget

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"deplodash/internal/models"
	"deplodash/internal/realtime"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// ===========================================================================
// Widget Reconciler
// Client-side state machine of the chat widget. Holds the active
// conversation and its messages, merges realtime events with the
// results of its own API calls, and dedupes messages that arrive both
// as an API response and as a realtime echo.
//
// It watches three event surfaces:
// - new conversations for the session (another tab may create one)
// - conversation updates for the session (archival closes the composer)
// - message inserts for the active conversation
// ===========================================================================

// ErrConversationClosed returned when sending into an archived conversation
var ErrConversationClosed = errors.New("conversation is closed")

// seenCapacity bounds the dedup set; old entries fall out once their
// realtime echoes can no longer be in flight
const seenCapacity = 512

// Reconciler maintains the widget's local conversation state
type Reconciler struct {
	api        API
	subscriber realtime.Subscriber
	domainID   uuid.UUID
	sessionID  string
	logger     *zap.Logger

	mu           sync.RWMutex
	conversation *models.Conversation
	messages     []models.Message
	seen         *lru.Cache[uuid.UUID, struct{}]

	// watchConv cancels the message subscription of the previous
	// conversation when the active one changes
	watchMu     sync.Mutex
	watchCancel context.CancelFunc
	msgCh       <-chan []byte
	msgChanged  chan struct{}
}

// NewReconciler creates a reconciler for one widget session
func NewReconciler(api API, subscriber realtime.Subscriber, domainID uuid.UUID, sessionID string, logger *zap.Logger) (*Reconciler, error) {
	seen, err := lru.New[uuid.UUID, struct{}](seenCapacity)
	if err != nil {
		return nil, err
	}

	return &Reconciler{
		api:        api,
		subscriber: subscriber,
		domainID:   domainID,
		sessionID:  sessionID,
		logger:     logger,
		seen:       seen,
		msgChanged: make(chan struct{}, 1),
	}, nil
}

// Init authenticates and loads the session's current state.
// Listing conversations also triggers the server-side sweep that
// archives threads idle past the expiry window.
func (r *Reconciler) Init(ctx context.Context) error {
	if err := r.api.Authenticate(ctx, r.sessionID); err != nil {
		return err
	}

	conversations, err := r.api.ListConversations(ctx)
	if err != nil {
		return err
	}

	// Most recent active conversation resumes; everything else stays
	// in history
	var active *models.Conversation
	for i := range conversations {
		if conversations[i].IsActive() {
			active = &conversations[i]
			break
		}
	}

	if active == nil {
		return nil
	}

	messages, err := r.api.ListMessages(ctx, active.ID)
	if err != nil {
		return err
	}
	for i := range messages {
		r.seen.Add(messages[i].ID, struct{}{})
	}

	r.mu.Lock()
	r.conversation = active
	r.messages = messages
	r.mu.Unlock()

	return nil
}

// Run consumes realtime events until ctx is cancelled
func (r *Reconciler) Run(ctx context.Context) error {
	newConvCh, err := r.subscriber.Subscribe(ctx, realtime.SessionConversationsChannel(r.sessionID))
	if err != nil {
		return err
	}
	updateCh, err := r.subscriber.Subscribe(ctx, realtime.SessionUpdatesChannel(r.sessionID))
	if err != nil {
		return err
	}

	if conv := r.Conversation(); conv != nil {
		if err := r.watchConversation(ctx, conv.ID); err != nil {
			return err
		}
	}

	for {
		r.watchMu.Lock()
		msgCh := r.msgCh
		r.watchMu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()

		case payload, ok := <-newConvCh:
			if !ok {
				return nil
			}
			r.handleNewConversation(ctx, payload)

		case payload, ok := <-updateCh:
			if !ok {
				return nil
			}
			r.handleConversationUpdate(payload)

		case <-r.msgChanged:
			// Active conversation changed, re-enter the select with the
			// new message channel

		case payload, ok := <-msgCh:
			if !ok {
				// Subscription ended; a newer watch may already have
				// replaced the channel, so only clear our own
				r.watchMu.Lock()
				if r.msgCh == msgCh {
					r.msgCh = nil
				}
				r.watchMu.Unlock()
				continue
			}
			r.handleMessage(payload)
		}
	}
}

// watchConversation subscribes to a conversation's message channel,
// replacing any previous subscription
func (r *Reconciler) watchConversation(ctx context.Context, conversationID uuid.UUID) error {
	watchCtx, cancel := context.WithCancel(ctx)
	ch, err := r.subscriber.Subscribe(watchCtx, realtime.ConversationMessagesChannel(conversationID))
	if err != nil {
		cancel()
		return err
	}

	r.watchMu.Lock()
	if r.watchCancel != nil {
		r.watchCancel()
	}
	r.watchCancel = cancel
	r.msgCh = ch
	r.watchMu.Unlock()

	select {
	case r.msgChanged <- struct{}{}:
	default:
	}

	return nil
}

// handleNewConversation adopts a conversation another tab created when
// this one has none active
func (r *Reconciler) handleNewConversation(ctx context.Context, payload []byte) {
	var event realtime.ConversationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		r.logger.Warn("bad conversation event", zap.Error(err))
		return
	}

	r.mu.Lock()
	adopt := r.conversation == nil
	if adopt {
		r.conversation = &models.Conversation{
			BaseModel: models.BaseModel{ID: event.ConversationID, CreatedAt: event.CreatedAt},
			DomainID:  event.DomainID,
			SessionID: &event.SessionID,
			Title:     event.Title,
			Status:    models.ConversationStatus(event.Status),
		}
		r.messages = nil
	}
	r.mu.Unlock()

	if adopt {
		if err := r.watchConversation(ctx, event.ConversationID); err != nil {
			r.logger.Warn("watch adopted conversation failed",
				zap.String("conversation_id", event.ConversationID.String()),
				zap.Error(err),
			)
		}
	}
}

// handleConversationUpdate applies status changes to the active
// conversation. Archival flips the composer read-only.
func (r *Reconciler) handleConversationUpdate(payload []byte) {
	var event realtime.ConversationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		r.logger.Warn("bad conversation event", zap.Error(err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conversation == nil || r.conversation.ID != event.ConversationID {
		return
	}

	r.conversation.Status = models.ConversationStatus(event.Status)
	if event.Title != "" {
		r.conversation.Title = event.Title
	}
	r.conversation.LastMessageAt = event.LastMessageAt
}

// handleMessage appends a message insert, ignoring ones already seen
// through an API response
func (r *Reconciler) handleMessage(payload []byte) {
	var event realtime.MessageEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		r.logger.Warn("bad message event", zap.Error(err))
		return
	}

	// Dedup: the sender receives its own message twice, once as the
	// POST response and once over realtime
	if dup, _ := r.seen.ContainsOrAdd(event.MessageID, struct{}{}); dup {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conversation == nil || r.conversation.ID != event.ConversationID {
		return
	}

	r.messages = append(r.messages, models.Message{
		BaseModel:      models.BaseModel{ID: event.MessageID, CreatedAt: event.CreatedAt},
		ConversationID: event.ConversationID,
		Content:        event.Content,
		SenderType:     models.SenderType(event.SenderType),
	})
}

// SendMessage sends a visitor message. With no active conversation it
// runs the full send sequence: mint a fresh anonymous credential, create
// a conversation, post the message. The calls are not atomic, so a
// conversation can be left empty if the message call fails.
func (r *Reconciler) SendMessage(ctx context.Context, content string) (*models.Message, error) {
	conv := r.Conversation()

	if conv != nil && !conv.IsActive() {
		return nil, ErrConversationClosed
	}

	if conv == nil {
		// The token from Init may have expired while the widget sat idle
		if err := r.api.Authenticate(ctx, r.sessionID); err != nil {
			return nil, err
		}

		created, err := r.api.CreateConversation(ctx, r.domainID, "")
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.conversation = created
		r.messages = nil
		r.mu.Unlock()

		if err := r.watchConversation(ctx, created.ID); err != nil {
			r.logger.Warn("watch new conversation failed",
				zap.String("conversation_id", created.ID.String()),
				zap.Error(err),
			)
		}
		conv = created
	}

	msg, err := r.api.SendMessage(ctx, conv.ID, content)
	if err != nil {
		return nil, err
	}

	// Mark seen before the realtime echo lands
	r.seen.Add(msg.ID, struct{}{})

	r.mu.Lock()
	r.messages = append(r.messages, *msg)
	r.mu.Unlock()

	return msg, nil
}

// StartNew detaches from the current conversation; the next SendMessage
// creates a fresh one
func (r *Reconciler) StartNew() {
	r.mu.Lock()
	r.conversation = nil
	r.messages = nil
	r.mu.Unlock()

	r.watchMu.Lock()
	if r.watchCancel != nil {
		r.watchCancel()
		r.watchCancel = nil
		r.msgCh = nil
	}
	r.watchMu.Unlock()

	select {
	case r.msgChanged <- struct{}{}:
	default:
	}
}

// CanSend reports whether the composer is usable
func (r *Reconciler) CanSend() bool {
	conv := r.Conversation()
	return conv == nil || conv.IsActive()
}

// Conversation returns a copy of the active conversation, nil when none
func (r *Reconciler) Conversation() *models.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.conversation == nil {
		return nil
	}
	conv := *r.conversation
	return &conv
}

// Messages returns a copy of the message list
func (r *Reconciler) Messages() []models.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Message, len(r.messages))
	copy(out, r.messages)
	return out
}
