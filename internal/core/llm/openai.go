package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
)

// OpenAI model constants.
const (
	ModelGPT4oMini     = "gpt-4o-mini"
	defaultOpenAIModel = ModelGPT4oMini
	defaultLLMTimeout  = 120 * time.Second
)

// openaiProvider talks to any OpenAI-compatible chat completion API. It backs
// both the OpenAI fallback and the Together scoring service.
type openaiProvider struct {
	name         ProviderName
	apiKey       string
	defaultModel string
	priority     int
	timeout      time.Duration
	client       *openai.Client
	logger       *zerolog.Logger
	rateLimiter  *rate.Limiter
}

// NewOpenAIProvider creates the OpenAI provider.
func NewOpenAIProvider(cfg *config.Config, logger *zerolog.Logger) *openaiProvider {
	return newOpenAICompatible(ProviderOpenAI, cfg.OpenAIAPIKey, "", cfg.OpenAIModel, PrioritySecondFallback, cfg, logger)
}

func newOpenAICompatible(name ProviderName, apiKey, baseURL, model string, priority int, cfg *config.Config, logger *zerolog.Logger) *openaiProvider {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}

	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	if model == "" {
		model = defaultOpenAIModel
	}

	return &openaiProvider{
		name:         name,
		apiKey:       apiKey,
		defaultModel: model,
		priority:     priority,
		timeout:      timeout,
		client:       openai.NewClientWithConfig(clientCfg),
		logger:       logger,
		rateLimiter:  newRateLimiter(cfg.LLMRateLimitRPS),
	}
}

// newRateLimiter builds the per-provider limiter, defaulting to 1 rps.
func newRateLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		rps = 1
	}

	return rate.NewLimiter(rate.Limit(rps), rateLimiterBurst)
}

// Name returns the provider identifier.
func (p *openaiProvider) Name() ProviderName {
	return p.name
}

// IsAvailable returns true if the provider is configured and available.
func (p *openaiProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// Priority returns the provider priority.
func (p *openaiProvider) Priority() int {
	return p.priority
}

// Complete implements Provider interface.
func (p *openaiProvider) Complete(ctx context.Context, req Request) (Response, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	if req.JSONMode {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, fmt.Errorf(errOpenAIChatCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%s: %w", p.name, apperrors.ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)

	if text == "" {
		return Response{}, fmt.Errorf("%s: %w", p.name, apperrors.ErrEmptyResponse)
	}

	p.logger.Debug().
		Str(logKeyProvider, string(p.name)).
		Str(logKeyModel, model).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("LLM response")

	return Response{
		Text:             text,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Truncated:        choice.FinishReason == openai.FinishReasonLength,
	}, nil
}

// Ensure openaiProvider implements Provider interface.
var _ Provider = (*openaiProvider)(nil)
