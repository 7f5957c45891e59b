package inbox

import (
	"context"

	"deplodash/internal/models"
	"deplodash/internal/repositories"

	"github.com/google/uuid"
)

// ===========================================================================
// Repository-backed API
// Serves the store when the dashboard and its backend share a process;
// remote dashboards talk to the HTTP API instead.
// ===========================================================================

// RepositoryAPI implements API directly over the repositories
type RepositoryAPI struct {
	conversations repositories.ConversationRepository
	tags          repositories.TagRepository
}

// NewRepositoryAPI creates an API backed by the given repositories
func NewRepositoryAPI(conversations repositories.ConversationRepository, tags repositories.TagRepository) *RepositoryAPI {
	return &RepositoryAPI{conversations: conversations, tags: tags}
}

// ListConversations fetches the inbox list for a filter/sort combo
func (a *RepositoryAPI) ListConversations(ctx context.Context, domainID uuid.UUID, opts repositories.ListConversationsOptions) ([]models.Conversation, error) {
	return a.conversations.FindByDomain(ctx, domainID, opts)
}

// ListTags fetches the domain's tag vocabulary
func (a *RepositoryAPI) ListTags(ctx context.Context, domainID uuid.UUID) ([]models.Tag, error) {
	return a.tags.FindByDomain(ctx, domainID)
}

// DeleteTag removes a tag and its assignments
func (a *RepositoryAPI) DeleteTag(ctx context.Context, tagID uuid.UUID) error {
	return a.tags.Delete(ctx, tagID)
}
