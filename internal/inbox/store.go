package inbox

import (
	"context"
	"sync"

	"deplodash/internal/models"
	"deplodash/internal/realtime"
	"deplodash/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Inbox Store
// Client-side state of the dashboard inbox: active filter, sort order,
// tag selection and the conversation list. Filter and sort changes go
// back to the server; the tag selection narrows the fetched list
// locally. Every mutation refetches rather than patching local state.
// ===========================================================================

// API is the server surface the store consumes
type API interface {
	// ListConversations fetches the inbox list for a filter/sort combo
	ListConversations(ctx context.Context, domainID uuid.UUID, opts repositories.ListConversationsOptions) ([]models.Conversation, error)

	// ListTags fetches the domain's tag vocabulary
	ListTags(ctx context.Context, domainID uuid.UUID) ([]models.Tag, error)

	// DeleteTag removes a tag everywhere
	DeleteTag(ctx context.Context, tagID uuid.UUID) error
}

// Store holds the inbox view state for one domain
type Store struct {
	api        API
	subscriber realtime.Subscriber
	domainID   uuid.UUID
	logger     *zap.Logger

	mu            sync.RWMutex
	activeFilter  repositories.InboxFilter
	sortOrder     repositories.SortOrder
	selectedTags  []uuid.UUID
	conversations []models.Conversation
	tags          []models.Tag
}

// NewStore creates an inbox store with the default view (active, newest)
func NewStore(api API, subscriber realtime.Subscriber, domainID uuid.UUID, logger *zap.Logger) *Store {
	return &Store{
		api:          api,
		subscriber:   subscriber,
		domainID:     domainID,
		logger:       logger,
		activeFilter: repositories.FilterActive,
		sortOrder:    repositories.SortNewest,
	}
}

// Refresh refetches conversations and tags
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.refetchConversations(ctx); err != nil {
		return err
	}
	return s.refetchTags(ctx)
}

// refetchConversations pulls the list for the current filter/sort
func (s *Store) refetchConversations(ctx context.Context) error {
	s.mu.RLock()
	opts := repositories.ListConversationsOptions{
		Filter: s.activeFilter,
		Sort:   s.sortOrder,
	}
	s.mu.RUnlock()

	conversations, err := s.api.ListConversations(ctx, s.domainID, opts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conversations = conversations
	s.mu.Unlock()
	return nil
}

// refetchTags pulls the tag vocabulary
func (s *Store) refetchTags(ctx context.Context) error {
	tags, err := s.api.ListTags(ctx, s.domainID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tags = tags
	s.mu.Unlock()
	return nil
}

// SetActiveFilter switches the filter and refetches
func (s *Store) SetActiveFilter(ctx context.Context, filter repositories.InboxFilter) error {
	if !filter.Valid() {
		filter = repositories.FilterActive
	}

	s.mu.Lock()
	s.activeFilter = filter
	s.mu.Unlock()

	return s.refetchConversations(ctx)
}

// SetSortOrder switches the sort order and refetches
func (s *Store) SetSortOrder(ctx context.Context, order repositories.SortOrder) error {
	s.mu.Lock()
	s.sortOrder = order
	s.mu.Unlock()

	return s.refetchConversations(ctx)
}

// SetSelectedTags narrows the visible list to conversations carrying
// every selected tag. Purely local, no refetch.
func (s *Store) SetSelectedTags(tagIDs []uuid.UUID) {
	s.mu.Lock()
	s.selectedTags = append([]uuid.UUID(nil), tagIDs...)
	s.mu.Unlock()
}

// DeleteTag removes a tag from the domain. A deleted tag also leaves
// the current selection, and the store refetches exactly once.
func (s *Store) DeleteTag(ctx context.Context, tagID uuid.UUID) error {
	if err := s.api.DeleteTag(ctx, tagID); err != nil {
		return err
	}

	s.mu.Lock()
	for i, id := range s.selectedTags {
		if id == tagID {
			s.selectedTags = append(s.selectedTags[:i], s.selectedTags[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if err := s.refetchTags(ctx); err != nil {
		return err
	}
	return s.refetchConversations(ctx)
}

// Run refetches whenever the domain's inbox channel announces a change.
// Events are treated as invalidations only; the payload is never merged
// into local state.
func (s *Store) Run(ctx context.Context) error {
	events, err := s.subscriber.Subscribe(ctx, realtime.DomainConversationsChannel(s.domainID))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.refetchConversations(ctx); err != nil {
				s.logger.Warn("inbox refetch failed",
					zap.String("domain_id", s.domainID.String()),
					zap.Error(err),
				)
			}
		}
	}
}

// Conversations returns the visible list with the tag selection applied
func (s *Store) Conversations() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.selectedTags) == 0 {
		out := make([]models.Conversation, len(s.conversations))
		copy(out, s.conversations)
		return out
	}

	var out []models.Conversation
	for _, conv := range s.conversations {
		if hasAllTags(&conv, s.selectedTags) {
			out = append(out, conv)
		}
	}
	return out
}

// Tags returns the tag vocabulary
func (s *Store) Tags() []models.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Tag, len(s.tags))
	copy(out, s.tags)
	return out
}

// ActiveFilter returns the current filter
func (s *Store) ActiveFilter() repositories.InboxFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeFilter
}

// SelectedTags returns the current tag selection
func (s *Store) SelectedTags() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]uuid.UUID(nil), s.selectedTags...)
}

// hasAllTags reports whether a conversation carries every tag in ids
func hasAllTags(conv *models.Conversation, ids []uuid.UUID) bool {
	for _, id := range ids {
		found := false
		for i := range conv.Tags {
			if conv.Tags[i].ID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
