package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/domain"
)

type mockRewriter struct{ out string }

func (m *mockRewriter) Rewrite(_ context.Context, query string) string {
	if m.out == "" {
		return query
	}
	return m.out
}

type mockGatherer struct {
	candidates []domain.Candidate
	err        error
	lastOrig   string
	lastRewr   string
}

func (m *mockGatherer) Execute(
	_ context.Context, originalQuery, rewrittenQuery string, _ domain.Filters, _ int,
) ([]domain.Candidate, error) {
	m.lastOrig = originalQuery
	m.lastRewr = rewrittenQuery
	return m.candidates, m.err
}

type mockScorer struct{ scores map[string]int }

func (m *mockScorer) Score(_ context.Context, _ string, candidates []domain.Candidate) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, domain.ScoredCandidate{Candidate: c, LLMScore: m.scores[c.PlaceID]})
	}
	return out
}

func mustQuery(t *testing.T, text string, limit int) domain.Query {
	t.Helper()
	q, err := domain.NewQuery(text, domain.Filters{}, limit)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	return q
}

func TestSearch_FusesAndOrders(t *testing.T) {
	gatherer := &mockGatherer{candidates: []domain.Candidate{
		{PlaceID: "low", VectorScore: 50, KeywordScore: 20},
		{PlaceID: "high", VectorScore: 90, KeywordScore: 70},
	}}
	scorer := &mockScorer{scores: map[string]int{"low": 40, "high": 95}}
	s := New(&mockRewriter{out: "expanded query"}, gatherer, scorer, zap.NewNop())

	res, err := s.Search(context.Background(), mustQuery(t, "dinner", 9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gatherer.lastOrig != "dinner" || gatherer.lastRewr != "expanded query" {
		t.Errorf("gatherer got %q / %q", gatherer.lastOrig, gatherer.lastRewr)
	}
	if res.RewrittenQuery != "expanded query" {
		t.Errorf("unexpected rewritten query %q", res.RewrittenQuery)
	}
	if len(res.Results) != 2 || res.Results[0].PlaceID != "high" {
		t.Fatalf("unexpected order: %+v", res.Results)
	}
	// round(0.20*90 + 0.15*70 + 0.65*95) = round(90.25) = 90
	if res.Results[0].AIMatchScore != 90 {
		t.Errorf("expected fused score 90, got %d", res.Results[0].AIMatchScore)
	}
	// round(0.20*50 + 0.15*20 + 0.65*40) = round(39) = 39
	if res.Results[1].AIMatchScore != 39 {
		t.Errorf("expected fused score 39, got %d", res.Results[1].AIMatchScore)
	}
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	gatherer := &mockGatherer{candidates: []domain.Candidate{
		{PlaceID: "a"}, {PlaceID: "b"}, {PlaceID: "c"},
	}}
	s := New(&mockRewriter{}, gatherer, &mockScorer{scores: map[string]int{"a": 90, "b": 50, "c": 70}}, zap.NewNop())

	res, err := s.Search(context.Background(), mustQuery(t, "anything", 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res.Results))
	}
	if res.Results[0].PlaceID != "a" || res.Results[1].PlaceID != "c" {
		t.Errorf("unexpected ranking: %+v", res.Results)
	}
}

func TestSearch_GathererErrorPropagates(t *testing.T) {
	gatherer := &mockGatherer{err: errors.New("store down")}
	s := New(&mockRewriter{}, gatherer, &mockScorer{}, zap.NewNop())

	if _, err := s.Search(context.Background(), mustQuery(t, "q", 0)); err == nil {
		t.Fatal("expected gatherer error to propagate")
	}
}

func TestSearch_RecordsStepTimings(t *testing.T) {
	s := New(&mockRewriter{}, &mockGatherer{}, &mockScorer{}, zap.NewNop())

	res, err := s.Search(context.Background(), mustQuery(t, "q", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Steps) != 4 {
		t.Fatalf("expected 4 step labels, got %v", res.Steps)
	}
	for i, prefix := range []string{"query_rewrite: ", "hybrid_search: ", "ai_scoring: ", "score_fusion: "} {
		if !strings.HasPrefix(res.Steps[i], prefix) || !strings.HasSuffix(res.Steps[i], "ms") {
			t.Errorf("unexpected step label %q", res.Steps[i])
		}
	}
}

func TestSuggestions_FiltersBySubstring(t *testing.T) {
	s := New(&mockRewriter{}, &mockGatherer{}, &mockScorer{}, zap.NewNop())

	got := s.Suggestions("sushi")
	if len(got) == 0 {
		t.Fatal("expected at least one sushi suggestion")
	}
	for _, g := range got {
		if !strings.Contains(strings.ToLower(g), "sushi") {
			t.Errorf("suggestion %q does not contain query", g)
		}
	}

	all := s.Suggestions("")
	if len(all) != maxSuggestions {
		t.Errorf("expected %d default suggestions, got %d", maxSuggestions, len(all))
	}
}
