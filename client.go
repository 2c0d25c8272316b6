// Package chowgpt is the embedded SDK: it wires the search pipeline
// directly against Redis and the AI providers, without the HTTP server.
package chowgpt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/db"
	dbRedis "github.com/chowgpt/chowgpt/internal/db/redis"
	"github.com/chowgpt/chowgpt/internal/domain"
	"github.com/chowgpt/chowgpt/internal/repository/embcache"
	restaurantrepo "github.com/chowgpt/chowgpt/internal/repository/restaurant"
	vectorrepo "github.com/chowgpt/chowgpt/internal/repository/vector"
	openaiTransport "github.com/chowgpt/chowgpt/internal/transport/openai"
	aiscoreuc "github.com/chowgpt/chowgpt/internal/usecase/aiscore"
	chatuc "github.com/chowgpt/chowgpt/internal/usecase/chat"
	hybriduc "github.com/chowgpt/chowgpt/internal/usecase/hybrid"
	rewriteuc "github.com/chowgpt/chowgpt/internal/usecase/rewrite"
	searchuc "github.com/chowgpt/chowgpt/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

type clientConfig struct {
	addrs          []string
	password       string
	apiKey         string
	baseURL        string
	embeddingModel string
	dimensions     int
	llmModel       string
	cacheTTL       time.Duration
	searchCfg      hybriduc.Config
	sessionTTL     time.Duration
	logger         *zap.Logger
}

// Option configures the Client.
type Option func(*clientConfig)

// WithRedis sets the Redis connection.
func WithRedis(addrs []string, password string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
		c.password = password
	}
}

// WithOpenAI sets the AI provider credentials. baseURL may be empty for
// the public API.
func WithOpenAI(apiKey, baseURL string) Option {
	return func(c *clientConfig) {
		c.apiKey = apiKey
		c.baseURL = baseURL
	}
}

// WithEmbeddingModel overrides the embedding model and vector dimensions.
func WithEmbeddingModel(model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.embeddingModel = model
		c.dimensions = dimensions
	}
}

// WithLLMModel overrides the chat-completion model.
func WithLLMModel(model string) Option {
	return func(c *clientConfig) {
		c.llmModel = model
	}
}

// WithEmbeddingCache enables query-embedding caching with the given TTL.
func WithEmbeddingCache(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheTTL = ttl
	}
}

// WithSearchTuning overrides retrieval pipeline bounds. Zero fields keep
// their defaults.
func WithSearchTuning(cfg SearchTuning) Option {
	return func(c *clientConfig) {
		c.searchCfg = hybriduc.Config{
			TopK:                 cfg.TopK,
			FinalistCap:          cfg.FinalistCap,
			ReviewsPerRestaurant: cfg.ReviewsPerRestaurant,
			FallbackPageSize:     cfg.FallbackPageSize,
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// SearchTuning bounds the candidate funnel.
type SearchTuning struct {
	TopK                 int
	FinalistCap          int
	ReviewsPerRestaurant int
	FallbackPageSize     int
}

// Client is the chowgpt SDK entry point.
type Client struct {
	store       db.Store
	dimensions  int
	restaurants *restaurantrepo.Repo
	indexer     *vectorrepo.Indexer
	searchSvc   *searchuc.Service
	chatSvc     *chatuc.Service
}

// New creates a Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		embeddingModel: "text-embedding-3-small",
		dimensions:     1536,
		llmModel:       "gpt-4o-mini",
		sessionTTL:     30 * time.Minute,
		logger:         zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("chowgpt: database address required (use WithRedis)")
	}
	if cfg.apiKey == "" {
		return nil, errors.New("chowgpt: AI provider key required (use WithOpenAI)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("chowgpt: create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("chowgpt: database not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.apiKey,
		BaseURL:    cfg.baseURL,
		Model:      cfg.embeddingModel,
		Dimensions: cfg.dimensions,
		Logger:     cfg.logger,
	})
	if cfg.cacheTTL > 0 {
		embedder = embcache.New(embedder, store, cfg.cacheTTL, nil, cfg.logger)
	}

	llm := openaiTransport.NewLLM(&openaiTransport.LLMConfig{
		APIKey:  cfg.apiKey,
		BaseURL: cfg.baseURL,
		Model:   cfg.llmModel,
		Logger:  cfg.logger,
	})

	restaurants := restaurantrepo.New(store)
	retriever := vectorrepo.New(embedder, store)

	rewriteSvc := rewriteuc.New(llm, cfg.logger)
	hybridSvc := hybriduc.New(retriever, restaurants, cfg.searchCfg, cfg.logger)
	aiscoreSvc := aiscoreuc.New(llm, cfg.logger)
	searchSvc := searchuc.New(rewriteSvc, hybridSvc, aiscoreSvc, cfg.logger)

	sessions := chatuc.NewMemoryStore(cfg.sessionTTL)
	chatSvc := chatuc.New(searchSvc, llm, sessions, 0, cfg.logger)

	return &Client{
		store:       store,
		dimensions:  cfg.dimensions,
		restaurants: restaurants,
		indexer:     vectorrepo.NewIndexer(embedder, store),
		searchSvc:   searchSvc,
		chatSvc:     chatSvc,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// EnsureIndexes creates the restaurant and chunk FT indexes if missing.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	for _, def := range []*db.IndexDefinition{
		restaurantrepo.IndexDefinition(),
		vectorrepo.IndexDefinition(c.dimensions),
	} {
		exists, err := c.store.IndexExists(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", def.Name, err)
		}
		if exists {
			continue
		}
		if err := c.store.CreateIndex(ctx, def); err != nil {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}
