package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/domain"
	chatuc "github.com/chowgpt/chowgpt/internal/usecase/chat"
	healthuc "github.com/chowgpt/chowgpt/internal/usecase/health"
)

type mockSearch struct {
	res domain.SearchResult
	err error
}

func (m *mockSearch) Search(_ context.Context, _ domain.Query) (domain.SearchResult, error) {
	return m.res, m.err
}

func (m *mockSearch) Suggestions(text string) []string {
	if text == "" {
		return []string{"best sushi in Sea Point", "family friendly pizza"}
	}
	return []string{"best sushi in Sea Point"}
}

type mockChat struct {
	reply chatuc.Reply
	err   error
	ended []string
}

func (m *mockChat) Message(_ context.Context, _, _ string) (chatuc.Reply, error) {
	return m.reply, m.err
}

func (m *mockChat) End(sessionID string) { m.ended = append(m.ended, sessionID) }

type mockHealth struct{ report healthuc.Report }

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestServer(search SearchService, chat ChatService, health HealthService) *Server {
	s := NewServer(search, chat, health, zap.NewNop())
	// Wednesday 10:00.
	s.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }
	return s
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSearch_OK(t *testing.T) {
	search := &mockSearch{res: domain.SearchResult{
		Results: []domain.ScoredCandidate{{
			Candidate: domain.Candidate{
				PlaceID:      "p1",
				Name:         "Umi Sushi",
				Cuisines:     []string{"Sushi"},
				VectorScore:  92,
				KeywordScore: 70,
				OpeningHours: []domain.DayHours{{Day: "Wednesday", Hours: "9 AM to 5 PM"}},
				Reviews:      []domain.Review{{Text: "fresh", Rating: 5}},
			},
			LLMScore:     95,
			LLMReasoning: "perfect sushi match",
			AIMatchScore: 91,
		}},
		Query:          "sushi",
		RewrittenQuery: "fresh sushi restaurant",
		Steps:          []string{"query_rewrite: 120ms"},
		TookMS:         450,
	}}
	srv := newTestServer(search, &mockChat{}, &mockHealth{})
	router := srv.Router(RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/search", `{"query":"sushi","limit":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].PlaceID != "p1" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
	if resp.Results[0].AIMatchScore != 91 || resp.Results[0].LLMReasoning != "perfect sushi match" {
		t.Errorf("unexpected scores: %+v", resp.Results[0])
	}
	if resp.Results[0].OpenNow == nil || !*resp.Results[0].OpenNow {
		t.Error("expected openNow true for Wednesday 10:00 with 9 AM to 5 PM hours")
	}
	if resp.RewrittenQuery != "fresh sushi restaurant" {
		t.Errorf("unexpected rewritten query %q", resp.RewrittenQuery)
	}
}

func TestHandleSearch_InvalidBody(t *testing.T) {
	srv := newTestServer(&mockSearch{}, &mockChat{}, &mockHealth{})
	router := srv.Router(RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/search", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	srv := newTestServer(&mockSearch{}, &mockChat{}, &mockHealth{})
	router := srv.Router(RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/search", `{"query":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Code != codeValidation {
		t.Errorf("expected %q, got %q", codeValidation, resp.Code)
	}
}

func TestHandleSearch_InternalError(t *testing.T) {
	srv := newTestServer(&mockSearch{err: fmt.Errorf("store down")}, &mockChat{}, &mockHealth{})
	router := srv.Router(RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/search", `{"query":"sushi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHandleSearch_ProviderError(t *testing.T) {
	srv := newTestServer(
		&mockSearch{err: fmt.Errorf("embed: %w", domain.ErrEmbeddingProviderError)},
		&mockChat{}, &mockHealth{})
	router := srv.Router(RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/search", `{"query":"sushi"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestHandleSuggestions(t *testing.T) {
	srv := newTestServer(&mockSearch{}, &mockChat{}, &mockHealth{})
	router := srv.Router(RouterConfig{})

	rec := doRequest(t, router, http.MethodGet, "/api/search/suggestions?q=sushi", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp suggestionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Suggestions) != 1 {
		t.Errorf("unexpected suggestions: %v", resp.Suggestions)
	}
}

func TestHandleChat_OK(t *testing.T) {
	chat := &mockChat{reply: chatuc.Reply{SessionID: "abc", Answer: "Try Umi Sushi."}}
	srv := newTestServer(&mockSearch{}, chat, &mockHealth{})
	router := srv.Router(RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/chat", `{"message":"where for sushi?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp chatResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.SessionID != "abc" || resp.Answer != "Try Umi Sushi." {
		t.Errorf("unexpected reply: %+v", resp)
	}
}

func TestHandleChat_UnknownSession(t *testing.T) {
	chat := &mockChat{err: fmt.Errorf("%w: nope", domain.ErrSessionNotFound)}
	srv := newTestServer(&mockSearch{}, chat, &mockHealth{})
	router := srv.Router(RouterConfig{})

	rec := doRequest(t, router, http.MethodPost, "/api/chat", `{"sessionId":"nope","message":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleEndChat(t *testing.T) {
	chat := &mockChat{}
	srv := newTestServer(&mockSearch{}, chat, &mockHealth{})
	router := srv.Router(RouterConfig{})

	rec := doRequest(t, router, http.MethodDelete, "/api/chat/abc", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(chat.ended) != 1 || chat.ended[0] != "abc" {
		t.Errorf("expected session abc ended, got %v", chat.ended)
	}
}

func TestHandleHealth(t *testing.T) {
	cases := []struct {
		status healthuc.Status
		code   int
	}{
		{healthuc.Healthy, http.StatusOK},
		{healthuc.Degraded, http.StatusOK},
		{healthuc.Unhealthy, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		srv := newTestServer(&mockSearch{}, &mockChat{}, &mockHealth{report: healthuc.Report{
			Status: tc.status,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}})
		rec := doRequest(t, srv.Router(RouterConfig{}), http.MethodGet, "/api/health", "")
		if rec.Code != tc.code {
			t.Errorf("status %q: expected %d, got %d", tc.status, tc.code, rec.Code)
		}
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServer(&mockSearch{}, &mockChat{}, &mockHealth{})
	router := srv.Router(RouterConfig{APIKeys: []string{"secret"}})

	rec := doRequest(t, router, http.MethodPost, "/api/search", `{"query":"q"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", rec2.Code)
	}

	// Health stays reachable without a token.
	rec3 := doRequest(t, router, http.MethodGet, "/api/health", "")
	if rec3.Code == http.StatusUnauthorized {
		t.Fatal("health must be exempt from auth")
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(&mockSearch{}, &mockChat{}, &mockHealth{})
	router := srv.Router(RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	first := doRequest(t, router, http.MethodPost, "/api/search", `{"query":"q"}`)
	if first.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", first.Code)
	}
	second := doRequest(t, router, http.MethodPost, "/api/search", `{"query":"q"}`)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", second.Code)
	}

	health := doRequest(t, router, http.MethodGet, "/api/health", "")
	if health.Code == http.StatusTooManyRequests {
		t.Fatal("health must be exempt from rate limiting")
	}
}
