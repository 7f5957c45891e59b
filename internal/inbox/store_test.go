package inbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"deplodash/internal/models"
	"deplodash/internal/realtime"
	"deplodash/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeInboxAPI records calls and serves canned rows
type fakeInboxAPI struct {
	mu               sync.Mutex
	conversations    []models.Conversation
	tags             []models.Tag
	listConvCalls    int
	listTagCalls     int
	deletedTags      []uuid.UUID
	lastListConvOpts repositories.ListConversationsOptions
}

func (f *fakeInboxAPI) ListConversations(ctx context.Context, domainID uuid.UUID, opts repositories.ListConversationsOptions) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listConvCalls++
	f.lastListConvOpts = opts
	out := make([]models.Conversation, len(f.conversations))
	copy(out, f.conversations)
	return out, nil
}

func (f *fakeInboxAPI) ListTags(ctx context.Context, domainID uuid.UUID) ([]models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listTagCalls++
	out := make([]models.Tag, len(f.tags))
	copy(out, f.tags)
	return out, nil
}

func (f *fakeInboxAPI) DeleteTag(ctx context.Context, tagID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedTags = append(f.deletedTags, tagID)
	for i := range f.tags {
		if f.tags[i].ID == tagID {
			f.tags = append(f.tags[:i], f.tags[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeInboxAPI) convCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listConvCalls
}

func taggedConversation(title string, tags ...models.Tag) models.Conversation {
	return models.Conversation{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Title:     title,
		Status:    models.StatusActive,
		Tags:      tags,
	}
}

func TestStoreDefaultsAndRefresh(t *testing.T) {
	api := &fakeInboxAPI{
		conversations: []models.Conversation{taggedConversation("first")},
		tags:          []models.Tag{{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "billing"}},
	}
	store := NewStore(api, realtime.NewBus(), uuid.New(), zap.NewNop())

	require.Equal(t, repositories.FilterActive, store.ActiveFilter())

	require.NoError(t, store.Refresh(context.Background()))
	require.Len(t, store.Conversations(), 1)
	require.Len(t, store.Tags(), 1)
	require.Equal(t, repositories.FilterActive, api.lastListConvOpts.Filter)
	require.Equal(t, repositories.SortNewest, api.lastListConvOpts.Sort)
}

func TestStoreSetActiveFilterRefetches(t *testing.T) {
	api := &fakeInboxAPI{}
	store := NewStore(api, realtime.NewBus(), uuid.New(), zap.NewNop())

	require.NoError(t, store.SetActiveFilter(context.Background(), repositories.FilterUrgent))
	require.Equal(t, repositories.FilterUrgent, store.ActiveFilter())
	require.Equal(t, 1, api.convCalls())
	require.Equal(t, repositories.FilterUrgent, api.lastListConvOpts.Filter)

	// Garbage falls back to the default filter instead of erroring
	require.NoError(t, store.SetActiveFilter(context.Background(), repositories.InboxFilter("bogus")))
	require.Equal(t, repositories.FilterActive, store.ActiveFilter())
	require.Equal(t, 2, api.convCalls())
}

func TestStoreSetSortOrderRefetches(t *testing.T) {
	api := &fakeInboxAPI{}
	store := NewStore(api, realtime.NewBus(), uuid.New(), zap.NewNop())

	require.NoError(t, store.SetSortOrder(context.Background(), repositories.SortOldest))
	require.Equal(t, 1, api.convCalls())
	require.Equal(t, repositories.SortOldest, api.lastListConvOpts.Sort)
}

func TestStoreTagSelectionIsLocal(t *testing.T) {
	urgent := models.Tag{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "urgent"}
	billing := models.Tag{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "billing"}

	api := &fakeInboxAPI{
		conversations: []models.Conversation{
			taggedConversation("both", urgent, billing),
			taggedConversation("urgent only", urgent),
			taggedConversation("untagged"),
		},
		tags: []models.Tag{urgent, billing},
	}
	store := NewStore(api, realtime.NewBus(), uuid.New(), zap.NewNop())
	require.NoError(t, store.Refresh(context.Background()))
	calls := api.convCalls()

	// Selecting tags never hits the server
	store.SetSelectedTags([]uuid.UUID{urgent.ID})
	require.Equal(t, calls, api.convCalls())

	visible := store.Conversations()
	require.Len(t, visible, 2)

	// Multi-tag selection intersects, it does not union
	store.SetSelectedTags([]uuid.UUID{urgent.ID, billing.ID})
	visible = store.Conversations()
	require.Len(t, visible, 1)
	require.Equal(t, "both", visible[0].Title)

	store.SetSelectedTags(nil)
	require.Len(t, store.Conversations(), 3)
}

func TestStoreDeleteTag(t *testing.T) {
	urgent := models.Tag{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "urgent"}
	billing := models.Tag{BaseModel: models.BaseModel{ID: uuid.New()}, Name: "billing"}

	api := &fakeInboxAPI{tags: []models.Tag{urgent, billing}}
	store := NewStore(api, realtime.NewBus(), uuid.New(), zap.NewNop())
	require.NoError(t, store.Refresh(context.Background()))

	store.SetSelectedTags([]uuid.UUID{urgent.ID, billing.ID})
	calls := api.convCalls()

	require.NoError(t, store.DeleteTag(context.Background(), urgent.ID))

	// The deleted tag left the selection, the other survived
	require.Equal(t, []uuid.UUID{billing.ID}, store.SelectedTags())
	require.Equal(t, []uuid.UUID{urgent.ID}, api.deletedTags)
	require.Len(t, store.Tags(), 1)

	// Exactly one conversations refetch for the whole operation
	require.Equal(t, calls+1, api.convCalls())
}

func TestStoreRunRefetchesOnInboxEvents(t *testing.T) {
	domainID := uuid.New()
	api := &fakeInboxAPI{}
	bus := realtime.NewBus()
	store := NewStore(api, bus, domainID, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = store.Run(ctx) }()

	event := &realtime.ConversationEvent{
		ConversationID: uuid.New(),
		DomainID:       domainID,
	}

	// Events are invalidations: any inbox announcement triggers a refetch
	require.Eventually(t, func() bool {
		require.NoError(t, bus.PublishNewConversation(event))
		return api.convCalls() > 0
	}, 2*time.Second, 10*time.Millisecond)
}
