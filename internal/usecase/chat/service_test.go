package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/domain"
)

type mockSearcher struct {
	res domain.SearchResult
	err error
}

func (m *mockSearcher) Search(_ context.Context, _ domain.Query) (domain.SearchResult, error) {
	return m.res, m.err
}

type mockCaller struct {
	args string
	err  error
}

func (m *mockCaller) CallStructured(_ context.Context, _ domain.StructuredRequest, out any) error {
	if m.err != nil {
		return m.err
	}
	return json.Unmarshal([]byte(m.args), out)
}

func searchResultWith(names ...string) domain.SearchResult {
	var results []domain.ScoredCandidate
	for _, n := range names {
		results = append(results, domain.ScoredCandidate{
			Candidate: domain.Candidate{PlaceID: strings.ToLower(n), Name: n, Rating: 4.5},
		})
	}
	return domain.SearchResult{Results: results}
}

func TestMessage_NewSession(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	llm := &mockCaller{args: `{"answer":"Try Umi Sushi, great fresh fish."}`}
	s := New(&mockSearcher{res: searchResultWith("Umi Sushi")}, llm, store, 20, zap.NewNop())

	reply, err := s.Message(context.Background(), "", "where can I get sushi?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if reply.Answer != "Try Umi Sushi, great fresh fish." {
		t.Errorf("unexpected answer %q", reply.Answer)
	}

	session, ok := store.Get(reply.SessionID)
	if !ok {
		t.Fatal("session must persist")
	}
	if len(session.Messages) != 2 || session.Messages[1].Role != "assistant" {
		t.Errorf("unexpected history: %+v", session.Messages)
	}
}

func TestMessage_UnknownSession(t *testing.T) {
	s := New(&mockSearcher{}, &mockCaller{}, NewMemoryStore(time.Hour), 20, zap.NewNop())

	_, err := s.Message(context.Background(), "no-such-session", "hello")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMessage_LLMFailureFallsBackToListing(t *testing.T) {
	llm := &mockCaller{err: errors.New("down")}
	s := New(&mockSearcher{res: searchResultWith("Karibu", "Nonna Lina")}, llm,
		NewMemoryStore(time.Hour), 20, zap.NewNop())

	reply, err := s.Message(context.Background(), "", "dinner tonight")
	if err != nil {
		t.Fatalf("chat must not fail when only narration fails: %v", err)
	}
	if !strings.Contains(reply.Answer, "Karibu") || !strings.Contains(reply.Answer, "Nonna Lina") {
		t.Errorf("fallback listing must name the results, got %q", reply.Answer)
	}
}

func TestMessage_SearchErrorPropagates(t *testing.T) {
	s := New(&mockSearcher{err: errors.New("store down")}, &mockCaller{},
		NewMemoryStore(time.Hour), 20, zap.NewNop())

	if _, err := s.Message(context.Background(), "", "anything"); err == nil {
		t.Fatal("expected search error to propagate")
	}
}

func TestMessage_HistoryBounded(t *testing.T) {
	llm := &mockCaller{args: `{"answer":"ok"}`}
	store := NewMemoryStore(time.Hour)
	s := New(&mockSearcher{res: searchResultWith("Karibu")}, llm, store, 4, zap.NewNop())

	reply, err := s.Message(context.Background(), "", "first question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.Message(context.Background(), reply.SessionID, "follow up"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	session, _ := store.Get(reply.SessionID)
	if len(session.Messages) != 4 {
		t.Fatalf("expected history capped at 4, got %d", len(session.Messages))
	}
	if session.Messages[0].Content == "first question" {
		t.Error("oldest turns must be evicted first")
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	base := time.Now()
	store.now = func() time.Time { return base }

	s := store.Create()

	store.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := store.Get(s.ID); ok {
		t.Fatal("expected session to expire")
	}
}

func TestEnd_DeletesSession(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	s := New(&mockSearcher{}, &mockCaller{}, store, 20, zap.NewNop())

	sess := store.Create()
	s.End(sess.ID)
	if _, ok := store.Get(sess.ID); ok {
		t.Fatal("expected session deleted")
	}
}
