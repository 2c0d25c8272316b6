// Package aiscore asks the LLM to judge how well each candidate matches
// the user's intent. The stage never fails a search: any batch that cannot
// be scored gets deterministic fallback scores instead.
package aiscore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/domain"
	"github.com/chowgpt/chowgpt/internal/metrics"
)

// BatchSize is the number of candidates scored per LLM call.
const BatchSize = 9

const snippetMaxLen = 60

// FallbackReasoning marks results scored without the LLM.
const FallbackReasoning = "Based on overall search relevance"

const scoreSystem = `You are a restaurant recommendation expert for Cape Town, South Africa. ` +
	`Score how well each restaurant matches the user's query, using the full candidate data including reviews. ` +
	`Score bands: 85-100 excellent match for the stated intent; 70-84 good match with minor gaps; ` +
	`55-69 fair match, some relevant aspects; 40-54 weak match; 0-39 not relevant. ` +
	`Use the whole band range and differentiate between candidates. ` +
	`Keep each reasoning under 10 words. Return a score for every restaurant listed.`

var scoreSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "restaurantScores": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "placeId": {"type": "string"},
          "score": {"type": "integer", "minimum": 0, "maximum": 100},
          "reasoning": {"type": "string", "description": "Under 10 words"},
          "matchedCriteria": {"type": "array", "items": {"type": "string"}},
          "missingCriteria": {"type": "array", "items": {"type": "string"}},
          "keyStrengths": {"type": "array", "items": {"type": "string"}}
        },
        "required": ["placeId", "score", "reasoning"]
      }
    }
  },
  "required": ["restaurantScores"]
}`)

type scorePayload struct {
	RestaurantScores []restaurantScore `json:"restaurantScores"`
}

type restaurantScore struct {
	PlaceID         string   `json:"placeId"`
	Score           int      `json:"score"`
	Reasoning       string   `json:"reasoning"`
	MatchedCriteria []string `json:"matchedCriteria"`
	MissingCriteria []string `json:"missingCriteria"`
	KeyStrengths    []string `json:"keyStrengths"`
}

// Service scores candidates with the LLM.
type Service struct {
	llm    domain.StructuredCaller
	logger *zap.Logger
}

// New creates an AI scoring service.
func New(llm domain.StructuredCaller, logger *zap.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Score returns one scored candidate per input, in input order. Candidates
// the LLM fails to score fall back to the mean of their vector and keyword
// scores with FallbackReasoning attached.
func (s *Service) Score(ctx context.Context, query string, candidates []domain.Candidate) []domain.ScoredCandidate {
	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for start := 0; start < len(candidates); start += BatchSize {
		end := start + BatchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		scored = append(scored, s.scoreBatch(ctx, query, candidates[start:end])...)
	}
	return scored
}

func (s *Service) scoreBatch(ctx context.Context, query string, batch []domain.Candidate) []domain.ScoredCandidate {
	var payload scorePayload
	err := s.llm.CallStructured(ctx, domain.StructuredRequest{
		System:      scoreSystem,
		User:        buildBatchPrompt(query, batch),
		Name:        "score_restaurants",
		Description: "Score each restaurant's relevance to the query",
		Parameters:  scoreSchema,
		Temperature: 0.2,
	}, &payload)
	if err != nil {
		s.logger.Warn("AI scoring failed for batch, using fallback scores",
			zap.Int("batch_size", len(batch)), zap.Error(err))
		metrics.SearchFallbackTotal.WithLabelValues("ai_scoring").Inc()
	}

	byID := make(map[string]restaurantScore, len(payload.RestaurantScores))
	for _, rs := range payload.RestaurantScores {
		byID[rs.PlaceID] = rs
	}

	out := make([]domain.ScoredCandidate, 0, len(batch))
	for _, c := range batch {
		sc := domain.ScoredCandidate{Candidate: c}
		if rs, ok := byID[c.PlaceID]; ok {
			sc.LLMScore = clampScore(rs.Score)
			sc.LLMReasoning = rs.Reasoning
			sc.MatchedCriteria = rs.MatchedCriteria
			sc.MissingCriteria = rs.MissingCriteria
			sc.KeyStrengths = rs.KeyStrengths
		} else {
			sc.LLMScore = fallbackScore(c)
			sc.LLMReasoning = FallbackReasoning
		}
		out = append(out, sc)
	}
	return out
}

func fallbackScore(c domain.Candidate) int {
	return int(math.Round((c.VectorScore + c.KeywordScore) / 2))
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// buildBatchPrompt renders the user query and a compact record per
// candidate, reviews included as short snippets.
func buildBatchPrompt(query string, batch []domain.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User query: %q\n\nRestaurants:\n", query)
	for i, c := range batch {
		fmt.Fprintf(&b, "\n%d. %s (id: %s)\n", i+1, c.Name, c.PlaceID)
		if len(c.Cuisines) > 0 {
			fmt.Fprintf(&b, "   Cuisine: %s\n", strings.Join(c.Cuisines, ", "))
		}
		if c.Location != "" {
			fmt.Fprintf(&b, "   Location: %s\n", c.Location)
		}
		if c.Rating > 0 {
			fmt.Fprintf(&b, "   Rating: %.1f (%d reviews)\n", c.Rating, c.ReviewsCount)
		}
		if c.Price != "" {
			fmt.Fprintf(&b, "   Price: %s\n", c.Price)
		}
		if c.Description != "" {
			fmt.Fprintf(&b, "   About: %s\n", c.Description)
		}
		if len(c.Features) > 0 {
			fmt.Fprintf(&b, "   Features: %s\n", strings.Join(c.Features, ", "))
		}
		if c.HoursText != "" {
			fmt.Fprintf(&b, "   Hours: %s\n", c.HoursText)
		}
		if c.ParkingText != "" {
			fmt.Fprintf(&b, "   Parking: %s\n", c.ParkingText)
		}
		for _, r := range c.Reviews {
			fmt.Fprintf(&b, "   Review (%.1f stars): %s\n", r.Rating, snippet(r.Text))
		}
	}
	return b.String()
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= snippetMaxLen {
		return text
	}
	return string(runes[:snippetMaxLen]) + "..."
}
