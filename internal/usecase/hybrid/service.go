// Package hybrid gathers and ranks search candidates by combining vector
// similarity with keyword scoring, then enriches the finalists with the
// data the AI scoring stage needs.
package hybrid

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chowgpt/chowgpt/internal/domain"
	"github.com/chowgpt/chowgpt/internal/metrics"
)

// Config bounds the candidate funnel.
type Config struct {
	TopK                 int // vector matches fetched per query
	FinalistCap          int // candidates surviving to enrichment
	ReviewsPerRestaurant int
	FallbackPageSize     int // restaurants scanned in keyword-only mode
}

func (c *Config) applyDefaults() {
	if c.TopK <= 0 {
		c.TopK = 30
	}
	if c.FinalistCap <= 0 {
		c.FinalistCap = 9
	}
	if c.ReviewsPerRestaurant <= 0 {
		c.ReviewsPerRestaurant = 7
	}
	if c.FallbackPageSize <= 0 {
		c.FallbackPageSize = 100
	}
}

// Service runs the candidate gathering stage.
type Service struct {
	vec    VectorSearcher
	store  RestaurantStore
	cfg    Config
	logger *zap.Logger
}

// New creates a hybrid search service.
func New(vec VectorSearcher, store RestaurantStore, cfg Config, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	return &Service{vec: vec, store: store, cfg: cfg, logger: logger}
}

// Execute returns up to FinalistCap enriched candidates for the query.
// The rewritten query drives vector retrieval; the original query drives
// keyword scoring. When vector search fails or matches nothing, the whole
// stage degrades to a keyword-only scan.
func (s *Service) Execute(
	ctx context.Context,
	originalQuery, rewrittenQuery string,
	filters domain.Filters,
	limit int,
) ([]domain.Candidate, error) {
	matches, err := s.vec.Search(ctx, rewrittenQuery, s.cfg.TopK)
	if err != nil || len(matches) == 0 {
		if err != nil {
			s.logger.Warn("Vector search failed, falling back to keyword-only search", zap.Error(err))
		} else {
			s.logger.Info("Vector search returned no matches, falling back to keyword-only search")
		}
		metrics.SearchFallbackTotal.WithLabelValues("keyword_only").Inc()
		return s.keywordFallback(ctx, originalQuery, filters, limit)
	}

	ids, vectorScores := collapseMatches(matches)

	rows, err := s.store.FetchMeta(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate metadata: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(rows))
	for _, row := range rows {
		c := domain.CandidateFromRestaurant(row)
		c.VectorScore = vectorScores[c.PlaceID]
		c.KeywordScore = KeywordScore(c, originalQuery)
		if !matchesFilters(c, filters) {
			continue
		}
		c.KeywordScore = EnhanceKeywordScore(c, originalQuery)
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].VectorScore+candidates[i].KeywordScore >
			candidates[j].VectorScore+candidates[j].KeywordScore
	})
	if len(candidates) > s.cfg.FinalistCap {
		candidates = candidates[:s.cfg.FinalistCap]
	}

	if err := s.enrich(ctx, candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// collapseMatches dedupes chunk matches per restaurant, keeping first-seen
// order and the best mapped similarity score.
func collapseMatches(matches []domain.VectorMatch) ([]string, map[string]float64) {
	ids := make([]string, 0, len(matches))
	best := make(map[string]float64, len(matches))
	for _, m := range matches {
		score := domain.MapSimilarity(m.Similarity)
		if existing, ok := best[m.PlaceID]; ok {
			if score > existing {
				best[m.PlaceID] = score
			}
			continue
		}
		ids = append(ids, m.PlaceID)
		best[m.PlaceID] = score
	}
	return ids, best
}

// keywordFallback scans the restaurant catalog and ranks purely by keyword
// score. Fallback candidates keep VectorScore 0 and are enriched like
// regular finalists.
func (s *Service) keywordFallback(
	ctx context.Context,
	originalQuery string,
	filters domain.Filters,
	limit int,
) ([]domain.Candidate, error) {
	rows, err := s.store.List(ctx, s.cfg.FallbackPageSize)
	if err != nil {
		return nil, fmt.Errorf("keyword fallback: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(rows))
	for _, row := range rows {
		c := domain.CandidateFromRestaurant(row)
		c.KeywordScore = KeywordScore(c, originalQuery)
		if !matchesFilters(c, filters) {
			continue
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].KeywordScore > candidates[j].KeywordScore
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	if err := s.enrich(ctx, candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// enrich attaches full details and reviews to the finalists. Both fetches
// run concurrently; either failure is fatal for the request.
func (s *Service) enrich(ctx context.Context, candidates []domain.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.PlaceID
	}

	var (
		details []domain.Restaurant
		reviews map[string][]domain.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details, err = s.store.FetchDetails(gctx, ids)
		if err != nil {
			return fmt.Errorf("fetch finalist details: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reviews, err = s.store.FetchReviews(gctx, ids, s.cfg.ReviewsPerRestaurant)
		if err != nil {
			return fmt.Errorf("fetch finalist reviews: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	byID := make(map[string]domain.Restaurant, len(details))
	for _, d := range details {
		byID[d.PlaceID] = d
	}
	for i := range candidates {
		if d, ok := byID[candidates[i].PlaceID]; ok {
			candidates[i].Description = d.Description
			candidates[i].OpeningHours = d.OpeningHours
			candidates[i].HoursText = d.HoursText()
			candidates[i].ParkingText = d.ParkingText
		}
		candidates[i].Reviews = reviews[candidates[i].PlaceID]
	}
	return nil
}

// matchesFilters applies the user filters to a candidate: a candidate is
// dropped as soon as one specified filter fails. Cuisines match any-of,
// features must all be present.
func matchesFilters(c domain.Candidate, f domain.Filters) bool {
	if f.IsEmpty() {
		return true
	}

	if len(f.Cuisines) > 0 && !anySubstring(c.Cuisines, f.Cuisines) {
		return false
	}
	if f.PriceMin > 0 && c.PriceLevel < f.PriceMin {
		return false
	}
	if f.PriceMax > 0 && (c.PriceLevel == 0 || c.PriceLevel > f.PriceMax) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(c.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.MinRating > 0 && c.Rating < f.MinRating {
		return false
	}
	for _, want := range f.Features {
		if !anySubstring(c.Features, []string{want}) {
			return false
		}
	}
	return true
}

// anySubstring reports whether any wanted string appears, case-insensitively,
// inside any of the tags.
func anySubstring(tags, wanted []string) bool {
	for _, w := range wanted {
		lw := strings.ToLower(w)
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), lw) {
				return true
			}
		}
	}
	return false
}
