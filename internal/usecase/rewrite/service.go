// Package rewrite expands a raw user query into a richer search query
// before vectorization. The stage is advisory: any failure falls back to
// the original text so a broken LLM never breaks search.
package rewrite

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/domain"
	"github.com/chowgpt/chowgpt/internal/metrics"
)

const rewriteSystem = `You are a restaurant search expert for Cape Town, South Africa. ` +
	`Rewrite the user's query so it retrieves better results from a semantic search index of restaurant descriptions and reviews. ` +
	`Expand implicit requirements (e.g. "date night" implies romantic, intimate, good wine), add cuisine and atmosphere synonyms, ` +
	`and keep every explicit constraint from the original query (location, price, dietary needs). ` +
	`Keep the rewritten query under 60 words. Do not invent constraints the user did not imply.`

const keyTermsSystem = `Extract the most important search terms from a restaurant query. ` +
	`Return at most 5 single words or short phrases, most important first. No explanations.`

var rewriteSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "rewrittenQuery": {"type": "string", "description": "The expanded search query"},
    "reasoning": {"type": "string", "description": "One sentence on what was expanded"},
    "keyTerms": {"type": "array", "items": {"type": "string"}, "description": "Up to 5 key terms"}
  },
  "required": ["rewrittenQuery"]
}`)

var keyTermsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "keyTerms": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["keyTerms"]
}`)

type rewriteResult struct {
	RewrittenQuery string   `json:"rewrittenQuery"`
	Reasoning      string   `json:"reasoning"`
	KeyTerms       []string `json:"keyTerms"`
}

type keyTermsResult struct {
	KeyTerms []string `json:"keyTerms"`
}

// Service rewrites queries via a structured LLM call.
type Service struct {
	llm    domain.StructuredCaller
	logger *zap.Logger
}

// New creates a rewrite service.
func New(llm domain.StructuredCaller, logger *zap.Logger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Rewrite returns the expanded query, or the original text unchanged when
// the LLM call fails or returns an empty rewrite.
func (s *Service) Rewrite(ctx context.Context, query string) string {
	var out rewriteResult
	err := s.llm.CallStructured(ctx, domain.StructuredRequest{
		System:      rewriteSystem,
		User:        query,
		Name:        "rewrite_query",
		Description: "Rewrite a restaurant search query for semantic retrieval",
		Parameters:  rewriteSchema,
		Temperature: 0.3,
	}, &out)

	rewritten := strings.TrimSpace(out.RewrittenQuery)
	if err != nil || rewritten == "" {
		s.logger.Warn("Query rewrite failed, using original query", zap.Error(err))
		metrics.SearchFallbackTotal.WithLabelValues("rewrite").Inc()
		return query
	}

	s.logger.Debug("Query rewritten",
		zap.String("original", query),
		zap.String("rewritten", rewritten),
		zap.String("reasoning", out.Reasoning))
	return rewritten
}

// ExtractKeyTerms returns up to 5 key terms for the query. On LLM failure
// it tokenizes locally instead of failing.
func (s *Service) ExtractKeyTerms(ctx context.Context, query string) []string {
	var out keyTermsResult
	err := s.llm.CallStructured(ctx, domain.StructuredRequest{
		System:      keyTermsSystem,
		User:        query,
		Name:        "extract_key_terms",
		Description: "Extract key search terms from a restaurant query",
		Parameters:  keyTermsSchema,
		Temperature: 0,
	}, &out)
	if err != nil || len(out.KeyTerms) == 0 {
		return localKeyTerms(query)
	}
	if len(out.KeyTerms) > 5 {
		out.KeyTerms = out.KeyTerms[:5]
	}
	return out.KeyTerms
}

// localKeyTerms keeps up to 5 whitespace-delimited words longer than two
// characters, in order of appearance.
func localKeyTerms(query string) []string {
	var terms []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) <= 2 {
			continue
		}
		terms = append(terms, w)
		if len(terms) == 5 {
			break
		}
	}
	return terms
}
