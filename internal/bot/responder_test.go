package bot

import (
	"context"
	"testing"

	"deplodash/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeFAQRepo in-memory FAQRepository for responder tests
type fakeFAQRepo struct {
	faqs []models.FAQ
	hits map[uuid.UUID]int
}

func newFakeFAQRepo(faqs []models.FAQ) *fakeFAQRepo {
	return &fakeFAQRepo{faqs: faqs, hits: make(map[uuid.UUID]int)}
}

func (f *fakeFAQRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.FAQ, error) {
	for i := range f.faqs {
		if f.faqs[i].ID == id {
			return &f.faqs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeFAQRepo) FindByDomain(ctx context.Context, domainID uuid.UUID) ([]models.FAQ, error) {
	return f.faqs, nil
}

func (f *fakeFAQRepo) Create(ctx context.Context, faq *models.FAQ) error { return nil }
func (f *fakeFAQRepo) Update(ctx context.Context, faq *models.FAQ) error { return nil }
func (f *fakeFAQRepo) Delete(ctx context.Context, id uuid.UUID) error    { return nil }

func (f *fakeFAQRepo) IncrementHitCount(ctx context.Context, id uuid.UUID) error {
	f.hits[id]++
	return nil
}

func TestResponderMatchedFAQ(t *testing.T) {
	faqID := uuid.New()
	repo := newFakeFAQRepo([]models.FAQ{
		{
			BaseModel: models.BaseModel{ID: faqID},
			Question:  "What are your opening hours?",
			Answer:    "9am to 6pm.",
		},
	})

	r := NewResponder(repo, NewMatcher(zap.NewNop()), zap.NewNop())

	resp, err := r.Process(context.Background(), uuid.New(), "what are your opening hours?")
	require.NoError(t, err)
	require.Equal(t, "9am to 6pm.", resp.Content)
	require.NotNil(t, resp.MatchedFAQ)
	require.Equal(t, 1, repo.hits[faqID], "matched FAQ should get a hit")
}

func TestResponderFallback(t *testing.T) {
	repo := newFakeFAQRepo([]models.FAQ{
		{Question: "What are your opening hours?", Answer: "9am to 6pm."},
	})

	r := NewResponder(repo, NewMatcher(zap.NewNop()), zap.NewNop())

	resp, err := r.Process(context.Background(), uuid.New(), "completely unrelated question about invoices")
	require.NoError(t, err)
	require.Equal(t, FallbackReply, resp.Content)
	require.Nil(t, resp.MatchedFAQ)
	require.Empty(t, repo.hits)
}

func TestResponderEmptyKnowledgeBase(t *testing.T) {
	repo := newFakeFAQRepo(nil)

	r := NewResponder(repo, NewMatcher(zap.NewNop()), zap.NewNop())

	resp, err := r.Process(context.Background(), uuid.New(), "hello")
	require.NoError(t, err)
	require.Equal(t, FallbackReply, resp.Content)
}
