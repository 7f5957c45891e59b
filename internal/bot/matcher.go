package bot

import (
	"context"
	"strings"
	"unicode"

	"deplodash/internal/models"

	"go.uber.org/zap"
)

// ===========================================================================
// FAQ Matcher
// Match a visitor message against the domain's FAQ entries
// Returns the best-scoring entry above the confidence threshold
// ===========================================================================

// MatchThreshold minimum token-overlap score for an FAQ to count as a match
const MatchThreshold = 0.5

// MatchResult result of matching a message against FAQs
type MatchResult struct {
	// Matched whether any FAQ cleared the threshold
	Matched bool

	// FAQ the matched entry (if any)
	FAQ *models.FAQ

	// Confidence overlap score of the match (0-1)
	Confidence float64
}

// Matcher interface for FAQ matching
type Matcher interface {
	// Match finds the FAQ best matching the message content
	Match(ctx context.Context, faqs []models.FAQ, content string) MatchResult
}

// ===========================================================================
// Matcher Implementation
// ===========================================================================

// matcher implements Matcher with token overlap scoring
type matcher struct {
	logger *zap.Logger
}

// NewMatcher creates a new Matcher
func NewMatcher(logger *zap.Logger) Matcher {
	return &matcher{logger: logger}
}

// Match scores every FAQ question against the message and returns the
// best one above the threshold
func (m *matcher) Match(ctx context.Context, faqs []models.FAQ, content string) MatchResult {
	contentTokens := tokenize(content)
	if len(contentTokens) == 0 {
		return MatchResult{Matched: false}
	}

	best := MatchResult{Matched: false}
	for i := range faqs {
		score := overlapScore(tokenize(faqs[i].Question), contentTokens)
		if score >= MatchThreshold && score > best.Confidence {
			best = MatchResult{
				Matched:    true,
				FAQ:        &faqs[i],
				Confidence: score,
			}
		}
	}

	if best.Matched {
		m.logger.Debug("faq matched",
			zap.String("question", best.FAQ.Question),
			zap.Float64("confidence", best.Confidence),
		)
	}

	return best
}

// tokenize lowercases, strips punctuation and splits into word set
func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		// Skip very short stop-ish words
		if len(f) < 2 {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

// overlapScore fraction of question tokens present in the message
func overlapScore(question, content map[string]struct{}) float64 {
	if len(question) == 0 {
		return 0
	}

	hits := 0
	for tok := range question {
		if _, ok := content[tok]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(question))
}
