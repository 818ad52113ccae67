package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
)

// Anthropic model constants.
const (
	ModelClaudeSonnet4 = "claude-sonnet-4-20250514"

	defaultAnthropicModel     = ModelClaudeSonnet4
	anthropicMaxTokensDefault = 2000
	anthropicStopMaxTokens    = "max_tokens"
)

// anthropicProvider implements the Provider interface for Anthropic Claude.
type anthropicProvider struct {
	apiKey       string
	defaultModel string
	timeout      time.Duration
	client       anthropic.Client
	logger       *zerolog.Logger
	rateLimiter  *rate.Limiter
}

// NewAnthropicProvider creates a new Anthropic LLM provider.
func NewAnthropicProvider(cfg *config.Config, logger *zerolog.Logger, opts ...option.RequestOption) *anthropicProvider {
	opts = append([]option.RequestOption{option.WithAPIKey(cfg.AnthropicAPIKey)}, opts...)

	model := cfg.AnthropicModel
	if model == "" {
		model = defaultAnthropicModel
	}

	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}

	return &anthropicProvider{
		apiKey:       cfg.AnthropicAPIKey,
		defaultModel: model,
		timeout:      timeout,
		client:       anthropic.NewClient(opts...),
		logger:       logger,
		rateLimiter:  newRateLimiter(cfg.LLMRateLimitRPS),
	}
}

// Name returns the provider identifier.
func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

// IsAvailable returns true if the provider is configured and available.
func (p *anthropicProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// Priority returns the provider priority.
func (p *anthropicProvider) Priority() int {
	return PriorityFallback
}

// resolveModel maps non-Claude model names onto the configured default.
func (p *anthropicProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixClaude) {
		return model
	}

	return p.defaultModel
}

// Complete implements Provider interface.
func (p *anthropicProvider) Complete(ctx context.Context, req Request) (Response, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokensDefault
	}

	model := p.resolveModel(req.Model)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf(errAnthropicMessages, err)
	}

	text := strings.TrimSpace(extractTextFromResponse(resp))
	if text == "" {
		return Response{}, fmt.Errorf("anthropic: %w", apperrors.ErrEmptyResponse)
	}

	return Response{
		Text:             text,
		Model:            model,
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		Truncated:        string(resp.StopReason) == anthropicStopMaxTokens,
	}, nil
}

// extractTextFromResponse concatenates the text blocks of a message.
func extractTextFromResponse(resp *anthropic.Message) string {
	if resp == nil {
		return ""
	}

	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}

// Ensure anthropicProvider implements Provider interface.
var _ Provider = (*anthropicProvider)(nil)
