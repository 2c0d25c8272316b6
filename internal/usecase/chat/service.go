// Package chat answers conversational restaurant questions by running the
// search pipeline and narrating the results with the LLM.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/domain"
)

// narratedResults caps how many search hits feed the answer prompt.
const narratedResults = 3

const answerSystem = `You are a friendly restaurant concierge for Cape Town, South Africa. ` +
	`Answer the user's question using only the restaurants provided. ` +
	`Recommend by name, mention why each fits, and keep the answer under 120 words. ` +
	`If no restaurant fits, say so honestly.`

var answerSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "answer": {"type": "string"}
  },
  "required": ["answer"]
}`)

type answerResult struct {
	Answer string `json:"answer"`
}

// Searcher runs the search pipeline for a validated query.
type Searcher interface {
	Search(ctx context.Context, q domain.Query) (domain.SearchResult, error)
}

// Reply is the outcome of one chat turn.
type Reply struct {
	SessionID string
	Answer    string
	Results   []domain.ScoredCandidate
}

// Service handles chat turns over persistent sessions.
type Service struct {
	search     Searcher
	llm        domain.StructuredCaller
	store      SessionStore
	maxHistory int
	logger     *zap.Logger
}

// New creates a chat service. maxHistory bounds stored turns per session.
func New(search Searcher, llm domain.StructuredCaller, store SessionStore, maxHistory int, logger *zap.Logger) *Service {
	if maxHistory <= 0 {
		maxHistory = 20
	}
	return &Service{search: search, llm: llm, store: store, maxHistory: maxHistory, logger: logger}
}

// Message runs one chat turn. An empty sessionID starts a new session; an
// unknown one returns domain.ErrSessionNotFound.
func (s *Service) Message(ctx context.Context, sessionID, text string) (Reply, error) {
	session, err := s.resolveSession(sessionID)
	if err != nil {
		return Reply{}, err
	}

	q, err := domain.NewQuery(text, domain.Filters{}, 0)
	if err != nil {
		return Reply{}, err
	}

	res, err := s.search.Search(ctx, q)
	if err != nil {
		return Reply{}, fmt.Errorf("chat search: %w", err)
	}

	answer := s.narrate(ctx, session, text, res.Results)
	s.appendTurn(session, text, answer)

	return Reply{SessionID: session.ID, Answer: answer, Results: res.Results}, nil
}

// End discards a session.
func (s *Service) End(sessionID string) {
	s.store.Delete(sessionID)
}

func (s *Service) resolveSession(sessionID string) (*Session, error) {
	if sessionID == "" {
		return s.store.Create(), nil
	}
	session, ok := s.store.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// narrate asks the LLM to phrase an answer over the top results. On any
// failure it falls back to a plain listing so the chat never errors out
// when search itself succeeded.
func (s *Service) narrate(ctx context.Context, session *Session, text string, results []domain.ScoredCandidate) string {
	var out answerResult
	err := s.llm.CallStructured(ctx, domain.StructuredRequest{
		System:      answerSystem,
		User:        buildAnswerPrompt(session, text, results),
		Name:        "answer_question",
		Description: "Answer the user's restaurant question",
		Parameters:  answerSchema,
		Temperature: 0.6,
	}, &out)
	if err != nil || strings.TrimSpace(out.Answer) == "" {
		s.logger.Warn("Chat answer generation failed, using plain listing", zap.Error(err))
		return plainAnswer(results)
	}
	return out.Answer
}

func (s *Service) appendTurn(session *Session, question, answer string) {
	now := time.Now()
	session.Messages = append(session.Messages,
		Message{Role: "user", Content: question, At: now},
		Message{Role: "assistant", Content: answer, At: now},
	)
	if len(session.Messages) > s.maxHistory {
		session.Messages = session.Messages[len(session.Messages)-s.maxHistory:]
	}
	session.UpdatedAt = now
}

func buildAnswerPrompt(session *Session, text string, results []domain.ScoredCandidate) string {
	var b strings.Builder
	if len(session.Messages) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range session.Messages {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Question: %s\n\nMatching restaurants:\n", text)
	for i, r := range results {
		if i == narratedResults {
			break
		}
		fmt.Fprintf(&b, "- %s (%s, rating %.1f): %s\n",
			r.Name, strings.Join(r.Cuisines, "/"), r.Rating, r.LLMReasoning)
	}
	if len(results) == 0 {
		b.WriteString("(none found)\n")
	}
	return b.String()
}

func plainAnswer(results []domain.ScoredCandidate) string {
	if len(results) == 0 {
		return "I couldn't find any restaurants matching that. Try rephrasing your question."
	}
	names := make([]string, 0, narratedResults)
	for i, r := range results {
		if i == narratedResults {
			break
		}
		names = append(names, r.Name)
	}
	return "Here are some places that match your search: " + strings.Join(names, ", ") + "."
}
