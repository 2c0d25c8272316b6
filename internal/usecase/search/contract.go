package search

import (
	"context"

	"github.com/chowgpt/chowgpt/internal/domain"
)

// Rewriter expands the raw query before retrieval. Implementations must
// degrade to the original text instead of failing.
type Rewriter interface {
	Rewrite(ctx context.Context, query string) string
}

// CandidateGatherer runs hybrid retrieval and returns enriched finalists.
type CandidateGatherer interface {
	Execute(ctx context.Context, originalQuery, rewrittenQuery string, filters domain.Filters, limit int) ([]domain.Candidate, error)
}

// RelevanceScorer attaches LLM relevance scores. It never fails: unscorable
// candidates carry fallback scores.
type RelevanceScorer interface {
	Score(ctx context.Context, query string, candidates []domain.Candidate) []domain.ScoredCandidate
}
