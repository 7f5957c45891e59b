package bot

import (
	"context"

	"deplodash/internal/models"
	"deplodash/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Bot Responder
// Bot logic: receive a visitor message, match an FAQ, build the reply
// Every user message gets a reply; unmatched messages get the fallback.
// ===========================================================================

// FallbackReply sent when no FAQ matches the visitor's message
const FallbackReply = "Thank you for your message! Our team will get back to you as soon as possible."

// BotResponse the bot's decision for one inbound message
type BotResponse struct {
	// Content reply text
	Content string

	// MatchedFAQ the FAQ that produced the reply (nil for fallback)
	MatchedFAQ *models.FAQ

	// Confidence match score
	Confidence float64
}

// Responder interface for the bot responder
type Responder interface {
	// Process handles an inbound visitor message and builds the reply
	Process(ctx context.Context, domainID uuid.UUID, content string) (*BotResponse, error)
}

// ===========================================================================
// Responder Implementation
// ===========================================================================

// responder implements Responder
type responder struct {
	faqRepo repositories.FAQRepository
	matcher Matcher
	logger  *zap.Logger
}

// NewResponder creates a new Responder
func NewResponder(
	faqRepo repositories.FAQRepository,
	matcher Matcher,
	logger *zap.Logger,
) Responder {
	return &responder{
		faqRepo: faqRepo,
		matcher: matcher,
		logger:  logger,
	}
}

// Process handles an inbound visitor message
func (r *responder) Process(ctx context.Context, domainID uuid.UUID, content string) (*BotResponse, error) {
	// 1. Load the domain's FAQ entries
	faqs, err := r.faqRepo.FindByDomain(ctx, domainID)
	if err != nil {
		r.logger.Error("failed to load faqs",
			zap.String("domain_id", domainID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	// 2. Match the message
	result := r.matcher.Match(ctx, faqs, content)

	if !result.Matched {
		r.logger.Debug("no faq matched, using fallback",
			zap.String("domain_id", domainID.String()),
			zap.String("content", truncateForLog(content, 50)),
		)
		return &BotResponse{Content: FallbackReply}, nil
	}

	// 3. Bump the hit counter for the matched entry
	if err := r.faqRepo.IncrementHitCount(ctx, result.FAQ.ID); err != nil {
		r.logger.Warn("failed to increment hit count",
			zap.String("faq_id", result.FAQ.ID.String()),
			zap.Error(err),
		)
		// Don't fail the reply over the counter
	}

	r.logger.Info("bot response generated",
		zap.String("question", result.FAQ.Question),
		zap.Float64("confidence", result.Confidence),
	)

	return &BotResponse{
		Content:    result.FAQ.Answer,
		MatchedFAQ: result.FAQ,
		Confidence: result.Confidence,
	}, nil
}

// truncateForLog shortens a string for logging
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
