package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/config"
	"github.com/chowgpt/chowgpt/internal/db"
	dbRedis "github.com/chowgpt/chowgpt/internal/db/redis"
	"github.com/chowgpt/chowgpt/internal/domain"
	logpkg "github.com/chowgpt/chowgpt/internal/logger"
	"github.com/chowgpt/chowgpt/internal/metrics"
	"github.com/chowgpt/chowgpt/internal/repository/embcache"
	restaurantrepo "github.com/chowgpt/chowgpt/internal/repository/restaurant"
	vectorrepo "github.com/chowgpt/chowgpt/internal/repository/vector"
	chiTransport "github.com/chowgpt/chowgpt/internal/transport/chi"
	openaiTransport "github.com/chowgpt/chowgpt/internal/transport/openai"
	aiscoreuc "github.com/chowgpt/chowgpt/internal/usecase/aiscore"
	chatuc "github.com/chowgpt/chowgpt/internal/usecase/chat"
	healthuc "github.com/chowgpt/chowgpt/internal/usecase/health"
	hybriduc "github.com/chowgpt/chowgpt/internal/usecase/hybrid"
	rewriteuc "github.com/chowgpt/chowgpt/internal/usecase/rewrite"
	searchuc "github.com/chowgpt/chowgpt/internal/usecase/search"
	"github.com/chowgpt/chowgpt/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting chowgpt API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterLLMMetrics()

	if err := ensureIndexes(ctx, store, cfg.Embedding.Dimensions); err != nil {
		logger.Fatal("Failed to ensure search indexes", zap.Error(err))
	}

	// Embedder chain — composition root
	providerEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	var embedder domain.Embedder = providerEmbedder
	if cfg.Embedding.CacheTTLHours > 0 {
		embedder = embcache.New(
			embedder, store,
			time.Duration(cfg.Embedding.CacheTTLHours)*time.Hour,
			metrics.EmbeddingCacheTotal, logger,
		)
	}
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.CacheTTLHours > 0),
	)

	llm := openaiTransport.NewLLM(&openaiTransport.LLMConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Logger:  logger,
	})

	// Repositories
	restaurants := restaurantrepo.New(store)
	retriever := vectorrepo.New(embedder, store)

	// Use case services
	rewriteSvc := rewriteuc.New(llm, logger)
	hybridSvc := hybriduc.New(retriever, restaurants, hybriduc.Config{
		TopK:                 cfg.Search.TopK,
		FinalistCap:          cfg.Search.FinalistCap,
		ReviewsPerRestaurant: cfg.Search.ReviewsPerRestaurant,
		FallbackPageSize:     cfg.Search.FallbackPageSize,
	}, logger)
	aiscoreSvc := aiscoreuc.New(llm, logger)
	searchSvc := searchuc.New(rewriteSvc, hybridSvc, aiscoreSvc, logger)

	sessions := chatuc.NewMemoryStore(time.Duration(cfg.Chat.SessionTTLMinutes) * time.Minute)
	chatSvc := chatuc.New(searchSvc, llm, sessions, cfg.Chat.MaxHistory, logger)

	healthSvc := healthuc.New(store, providerEmbedder, llm)

	server := chiTransport.NewServer(searchSvc, chatSvc, healthSvc, logger)
	router := server.Router(chiTransport.RouterConfig{
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
		APIKeys:        cfg.HTTP.APIKeys,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// ensureIndexes creates the restaurant and chunk FT indexes if missing.
// The ingestion pipeline writes the documents; the API only queries them.
func ensureIndexes(ctx context.Context, store db.Store, dimensions int) error {
	for _, def := range []*db.IndexDefinition{
		restaurantrepo.IndexDefinition(),
		vectorrepo.IndexDefinition(dimensions),
	} {
		exists, err := store.IndexExists(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", def.Name, err)
		}
		if exists {
			continue
		}
		if err := store.CreateIndex(ctx, def); err != nil {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}
