package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/chowgpt/chowgpt/internal/domain"
	"github.com/chowgpt/chowgpt/internal/metrics"
)

// LLM executes structured chat-completion calls via function calling:
// the declared schema is sent as a single tool the model is forced to
// invoke, and the returned arguments are unmarshalled into the caller's
// result type.
type LLM struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// LLMConfig holds the chat-completion provider settings.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewLLM creates an OpenAI-compatible structured-call provider.
func NewLLM(cfg *LLMConfig) *LLM {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &LLM{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

var _ domain.StructuredCaller = (*LLM)(nil)

// CallStructured implements domain.StructuredCaller. A response missing the
// expected tool call, or whose arguments do not unmarshal into out, is
// reported identically to a transport failure.
func (l *LLM) CallStructured(ctx context.Context, req domain.StructuredRequest, out any) error {
	chatReq := openai.ChatCompletionRequest{
		Model:       l.model,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        req.Name,
				Description: req.Description,
				Parameters:  req.Parameters,
			},
		}},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.Name},
		},
	}

	start := time.Now()

	resp, err := l.client.CreateChatCompletion(ctx, chatReq)

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(l.model, req.Name, "error").Inc()
		return fmt.Errorf("chat completion %q: %v: %w", req.Name, err, domain.ErrLLMProviderError)
	}

	args, err := extractToolArguments(&resp, req.Name)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(l.model, req.Name, "error").Inc()
		return err
	}

	if err := json.Unmarshal([]byte(args), out); err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(l.model, req.Name, "error").Inc()
		return fmt.Errorf("unmarshal %q arguments: %v: %w", req.Name, err, domain.ErrLLMProviderError)
	}

	metrics.LLMRequestsTotal.WithLabelValues(l.model, req.Name, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(l.model, req.Name).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(l.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.LLMTokensTotal.WithLabelValues(l.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	return nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (l *LLM) HealthCheck(ctx context.Context) error {
	if _, err := l.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func extractToolArguments(resp *openai.ChatCompletionResponse, name string) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in %q response: %w", name, domain.ErrLLMProviderError)
	}
	for _, call := range resp.Choices[0].Message.ToolCalls {
		if call.Type == openai.ToolTypeFunction && call.Function.Name == name {
			return call.Function.Arguments, nil
		}
	}
	return "", fmt.Errorf("missing %q tool call in response: %w", name, domain.ErrLLMProviderError)
}
