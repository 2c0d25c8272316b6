// Package chi exposes the search, chat and health usecases over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/domain"
	"github.com/chowgpt/chowgpt/internal/logger"
	"github.com/chowgpt/chowgpt/internal/metrics"
	chatuc "github.com/chowgpt/chowgpt/internal/usecase/chat"
	healthuc "github.com/chowgpt/chowgpt/internal/usecase/health"
)

type errorCode string

const (
	codeBadRequest      errorCode = "bad_request"
	codeValidation      errorCode = "validation_failed"
	codeSessionNotFound errorCode = "session_not_found"
	codeProviderError   errorCode = "provider_error"
	codeRateLimited     errorCode = "rate_limited"
	codeInternalError   errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchService runs the query pipeline.
type SearchService interface {
	Search(ctx context.Context, q domain.Query) (domain.SearchResult, error)
	Suggestions(text string) []string
}

// ChatService handles conversational turns.
type ChatService interface {
	Message(ctx context.Context, sessionID, text string) (chatuc.Reply, error)
	End(sessionID string)
}

// HealthService reports component availability.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	search SearchService
	chat   ChatService
	health HealthService
	logger *zap.Logger
	now    func() time.Time
}

// NewServer creates an HTTP API server.
func NewServer(search SearchService, chat ChatService, health HealthService, logger *zap.Logger) *Server {
	return &Server{search: search, chat: chat, health: health, logger: logger, now: time.Now}
}

// RouterConfig carries transport-level settings.
type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	APIKeys        []string
}

// Router assembles the chi router with middleware.
func (s *Server) Router(cfg RouterConfig) http.Handler {
	r := chirouter.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(RequestLogger(s.logger))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.Route("/api", func(r chirouter.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/search/suggestions", s.handleSuggestions)
		r.Post("/chat", s.handleChat)
		r.Delete("/chat/{sessionID}", s.handleEndChat)
		r.Get("/health", s.handleHealth)
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	return r
}

// --- Request/response DTOs ---

type searchFiltersDTO struct {
	Cuisines  []string `json:"cuisines,omitempty"`
	PriceMin  int      `json:"priceMin,omitempty"`
	PriceMax  int      `json:"priceMax,omitempty"`
	Location  string   `json:"location,omitempty"`
	MinRating float64  `json:"minRating,omitempty"`
	Features  []string `json:"features,omitempty"`
}

type searchRequest struct {
	Query   string            `json:"query"`
	Limit   int               `json:"limit,omitempty"`
	Filters *searchFiltersDTO `json:"filters,omitempty"`
}

type reviewDTO struct {
	Text   string  `json:"text"`
	Rating float64 `json:"rating"`
}

type resultItemDTO struct {
	PlaceID         string      `json:"placeId"`
	Name            string      `json:"name"`
	Cuisines        []string    `json:"cuisines,omitempty"`
	Description     string      `json:"description,omitempty"`
	Location        string      `json:"location,omitempty"`
	Rating          float64     `json:"rating"`
	ReviewsCount    int         `json:"reviewsCount"`
	Price           string      `json:"price,omitempty"`
	Features        []string    `json:"features,omitempty"`
	VectorScore     float64     `json:"vectorScore"`
	KeywordScore    float64     `json:"keywordScore"`
	LLMScore        int         `json:"llmScore"`
	LLMReasoning    string      `json:"llmReasoning,omitempty"`
	MatchedCriteria []string    `json:"matchedCriteria,omitempty"`
	MissingCriteria []string    `json:"missingCriteria,omitempty"`
	KeyStrengths    []string    `json:"keyStrengths,omitempty"`
	AIMatchScore    int         `json:"aiMatchScore"`
	OpenNow         *bool       `json:"openNow,omitempty"`
	Hours           string      `json:"hours,omitempty"`
	Parking         string      `json:"parking,omitempty"`
	Reviews         []reviewDTO `json:"reviews,omitempty"`
}

type searchResponse struct {
	Results        []resultItemDTO `json:"results"`
	Query          string          `json:"query"`
	RewrittenQuery string          `json:"rewrittenQuery"`
	Steps          []string        `json:"steps"`
	TookMs         int64           `json:"tookMs"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

type chatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string          `json:"sessionId"`
	Answer    string          `json:"answer"`
	Results   []resultItemDTO `json:"results,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// --- Handlers ---

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	q, err := domain.NewQuery(req.Query, filtersFromDTO(req.Filters), req.Limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]resultItemDTO, len(res.Results))
	for i := range res.Results {
		items[i] = s.resultToDTO(&res.Results[i])
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Results:        items,
		Query:          res.Query,
		RewrittenQuery: res.RewrittenQuery,
		Steps:          res.Steps,
		TookMs:         res.TookMS,
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, suggestionsResponse{
		Suggestions: s.search.Suggestions(r.URL.Query().Get("q")),
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reply, err := s.chat.Message(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]resultItemDTO, len(reply.Results))
	for i := range reply.Results {
		items[i] = s.resultToDTO(&reply.Results[i])
	}
	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: reply.SessionID,
		Answer:    reply.Answer,
		Results:   items,
	})
}

func (s *Server) handleEndChat(w http.ResponseWriter, r *http.Request) {
	s.chat.End(chirouter.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// --- Helpers ---

func filtersFromDTO(f *searchFiltersDTO) domain.Filters {
	if f == nil {
		return domain.Filters{}
	}
	return domain.Filters{
		Cuisines:  f.Cuisines,
		PriceMin:  f.PriceMin,
		PriceMax:  f.PriceMax,
		Location:  f.Location,
		MinRating: f.MinRating,
		Features:  f.Features,
	}
}

func (s *Server) resultToDTO(r *domain.ScoredCandidate) resultItemDTO {
	item := resultItemDTO{
		PlaceID:         r.PlaceID,
		Name:            r.Name,
		Cuisines:        r.Cuisines,
		Description:     r.Description,
		Location:        r.Location,
		Rating:          r.Rating,
		ReviewsCount:    r.ReviewsCount,
		Price:           r.Price,
		Features:        r.Features,
		VectorScore:     r.VectorScore,
		KeywordScore:    r.KeywordScore,
		LLMScore:        r.LLMScore,
		LLMReasoning:    r.LLMReasoning,
		MatchedCriteria: r.MatchedCriteria,
		MissingCriteria: r.MissingCriteria,
		KeyStrengths:    r.KeyStrengths,
		AIMatchScore:    r.AIMatchScore,
		Hours:           r.HoursText,
		Parking:         r.ParkingText,
	}
	if len(r.OpeningHours) > 0 {
		open := domain.IsOpenNow(r.OpeningHours, s.now())
		item.OpenNow = &open
	}
	if len(r.Reviews) > 0 {
		item.Reviews = make([]reviewDTO, len(r.Reviews))
		for i, rev := range r.Reviews {
			item.Reviews[i] = reviewDTO{Text: rev.Text, Rating: rev.Rating}
		}
	}
	return item
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		writeError(w, http.StatusBadRequest, codeValidation, domain.ErrInvalidQuery.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, codeSessionNotFound, domain.ErrSessionNotFound.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, codeProviderError, domain.ErrEmbeddingProviderError.Error())
	case errors.Is(err, domain.ErrLLMProviderError):
		writeError(w, http.StatusBadGateway, codeProviderError, domain.ErrLLMProviderError.Error())
	default:
		logger.FromContext(r.Context()).Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
