// Package search orchestrates the full query pipeline: rewrite, hybrid
// candidate gathering, AI relevance scoring and weighted score fusion.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/domain"
	"github.com/chowgpt/chowgpt/internal/metrics"
)

// Service runs search requests end to end.
type Service struct {
	rewriter Rewriter
	gatherer CandidateGatherer
	scorer   RelevanceScorer
	logger   *zap.Logger
}

// New creates the search orchestrator.
func New(rewriter Rewriter, gatherer CandidateGatherer, scorer RelevanceScorer, logger *zap.Logger) *Service {
	return &Service{rewriter: rewriter, gatherer: gatherer, scorer: scorer, logger: logger}
}

// Search executes the pipeline for a validated query and returns results
// sorted by fused score, truncated to the query limit.
func (s *Service) Search(ctx context.Context, q domain.Query) (domain.SearchResult, error) {
	start := time.Now()
	steps := make([]string, 0, 4)
	record := func(stage string, from time.Time) {
		elapsed := time.Since(from)
		steps = append(steps, fmt.Sprintf("%s: %dms", stage, elapsed.Milliseconds()))
		metrics.SearchStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	}

	t := time.Now()
	rewritten := s.rewriter.Rewrite(ctx, q.Text())
	record("query_rewrite", t)

	t = time.Now()
	candidates, err := s.gatherer.Execute(ctx, q.Text(), rewritten, q.Filters(), q.Limit())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return domain.SearchResult{}, fmt.Errorf("gather candidates: %w", err)
	}
	record("hybrid_search", t)

	t = time.Now()
	scored := s.scorer.Score(ctx, q.Text(), candidates)
	record("ai_scoring", t)

	t = time.Now()
	for i := range scored {
		scored[i].AIMatchScore = domain.FuseScores(
			scored[i].VectorScore, scored[i].KeywordScore, scored[i].LLMScore)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].AIMatchScore > scored[j].AIMatchScore
	})
	if len(scored) > q.Limit() {
		scored = scored[:q.Limit()]
	}
	record("score_fusion", t)

	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Search completed",
		zap.String("query", q.Text()),
		zap.Int("results", len(scored)),
		zap.Int64("took_ms", time.Since(start).Milliseconds()))

	return domain.SearchResult{
		Results:        scored,
		Query:          q.Text(),
		RewrittenQuery: rewritten,
		Steps:          steps,
		TookMS:         time.Since(start).Milliseconds(),
	}, nil
}
