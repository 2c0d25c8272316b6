package aiscore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/domain"
)

type mockCaller struct {
	responses []string // one JSON payload per call, in order
	err       error
	calls     int
	prompts   []string
}

func (m *mockCaller) CallStructured(_ context.Context, req domain.StructuredRequest, out any) error {
	m.prompts = append(m.prompts, req.User)
	idx := m.calls
	m.calls++
	if m.err != nil {
		return m.err
	}
	return json.Unmarshal([]byte(m.responses[idx]), out)
}

func TestScore_MergesByID(t *testing.T) {
	llm := &mockCaller{responses: []string{`{"restaurantScores":[
		{"placeId":"p2","score":91,"reasoning":"perfect sushi match","keyStrengths":["fresh fish"]},
		{"placeId":"p1","score":62,"reasoning":"partly relevant","missingCriteria":["sushi"]}
	]}`}}
	s := New(llm, zap.NewNop())

	got := s.Score(context.Background(), "sushi", []domain.Candidate{
		{PlaceID: "p1", Name: "Karibu"},
		{PlaceID: "p2", Name: "Umi Sushi"},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 scored candidates, got %d", len(got))
	}
	// Input order preserved regardless of response order.
	if got[0].PlaceID != "p1" || got[0].LLMScore != 62 {
		t.Errorf("unexpected first: %+v", got[0])
	}
	if got[1].LLMScore != 91 || got[1].KeyStrengths[0] != "fresh fish" {
		t.Errorf("unexpected second: %+v", got[1])
	}
}

func TestScore_FallbackOnCallFailure(t *testing.T) {
	llm := &mockCaller{err: errors.New("rate limited")}
	s := New(llm, zap.NewNop())

	got := s.Score(context.Background(), "q", []domain.Candidate{
		{PlaceID: "p1", VectorScore: 80, KeywordScore: 41},
	})
	if got[0].LLMScore != 61 { // round((80+41)/2)
		t.Errorf("expected fallback score 61, got %d", got[0].LLMScore)
	}
	if got[0].LLMReasoning != FallbackReasoning {
		t.Errorf("expected fallback reasoning, got %q", got[0].LLMReasoning)
	}
}

func TestScore_FallbackForOmittedCandidate(t *testing.T) {
	llm := &mockCaller{responses: []string{`{"restaurantScores":[
		{"placeId":"p1","score":88,"reasoning":"strong match"}
	]}`}}
	s := New(llm, zap.NewNop())

	got := s.Score(context.Background(), "q", []domain.Candidate{
		{PlaceID: "p1"},
		{PlaceID: "p2", VectorScore: 60, KeywordScore: 20},
	})
	if got[0].LLMScore != 88 {
		t.Errorf("scored candidate must keep LLM score, got %d", got[0].LLMScore)
	}
	if got[1].LLMScore != 40 || got[1].LLMReasoning != FallbackReasoning {
		t.Errorf("omitted candidate must fall back, got %+v", got[1])
	}
}

func TestScore_BatchesOfNine(t *testing.T) {
	var first, second strings.Builder
	first.WriteString(`{"restaurantScores":[`)
	for i := 0; i < BatchSize; i++ {
		if i > 0 {
			first.WriteString(",")
		}
		fmt.Fprintf(&first, `{"placeId":"p%d","score":70,"reasoning":"ok"}`, i)
	}
	first.WriteString(`]}`)
	second.WriteString(`{"restaurantScores":[{"placeId":"p9","score":70,"reasoning":"ok"}]}`)

	llm := &mockCaller{responses: []string{first.String(), second.String()}}
	s := New(llm, zap.NewNop())

	var candidates []domain.Candidate
	for i := 0; i < BatchSize+1; i++ {
		candidates = append(candidates, domain.Candidate{PlaceID: fmt.Sprintf("p%d", i)})
	}
	got := s.Score(context.Background(), "q", candidates)
	if llm.calls != 2 {
		t.Errorf("expected 2 batches, got %d calls", llm.calls)
	}
	if len(got) != BatchSize+1 {
		t.Errorf("expected %d results, got %d", BatchSize+1, len(got))
	}
}

func TestScore_ClampsOutOfRangeScores(t *testing.T) {
	llm := &mockCaller{responses: []string{`{"restaurantScores":[
		{"placeId":"p1","score":140,"reasoning":"over"},
		{"placeId":"p2","score":-5,"reasoning":"under"}
	]}`}}
	s := New(llm, zap.NewNop())

	got := s.Score(context.Background(), "q", []domain.Candidate{{PlaceID: "p1"}, {PlaceID: "p2"}})
	if got[0].LLMScore != 100 || got[1].LLMScore != 0 {
		t.Errorf("expected clamped scores, got %d and %d", got[0].LLMScore, got[1].LLMScore)
	}
}

func TestBuildBatchPrompt_TruncatesReviewSnippets(t *testing.T) {
	long := strings.Repeat("a", 80)
	prompt := buildBatchPrompt("q", []domain.Candidate{{
		PlaceID: "p1",
		Name:    "Karibu",
		Reviews: []domain.Review{{Text: long, Rating: 4}},
	}})
	if strings.Contains(prompt, long) {
		t.Error("review text must be truncated")
	}
	if !strings.Contains(prompt, strings.Repeat("a", 60)+"...") {
		t.Error("expected 60-char snippet with ellipsis")
	}
}
