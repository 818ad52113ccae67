package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
)

// Google model constants.
const (
	// ModelGeminiFlashLite is the cheapest/fastest Google model.
	ModelGeminiFlashLite = "gemini-2.5-flash-lite"

	defaultGoogleModel = ModelGeminiFlashLite
	mimeTypeJSON       = "application/json"
)

// sanitizeUTF8 replaces invalid UTF-8 sequences. Google's protobuf API
// requires valid UTF-8, and fetched page content may contain invalid bytes.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

// googleProvider implements the Provider interface for Google Gemini.
type googleProvider struct {
	apiKey       string
	defaultModel string
	timeout      time.Duration
	client       *genai.Client
	logger       *zerolog.Logger
	rateLimiter  *rate.Limiter
}

// NewGoogleProvider creates a new Google Gemini LLM provider.
func NewGoogleProvider(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*googleProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GoogleAPIKey))
	if err != nil {
		return nil, fmt.Errorf("creating google genai client: %w", err)
	}

	model := cfg.GoogleModel
	if model == "" {
		model = defaultGoogleModel
	}

	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = defaultLLMTimeout
	}

	return &googleProvider{
		apiKey:       cfg.GoogleAPIKey,
		defaultModel: model,
		timeout:      timeout,
		client:       client,
		logger:       logger,
		rateLimiter:  newRateLimiter(cfg.LLMRateLimitRPS),
	}, nil
}

// Close closes the Google client.
func (p *googleProvider) Close() error {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			return fmt.Errorf("closing google genai client: %w", err)
		}
	}

	return nil
}

// Name returns the provider identifier.
func (p *googleProvider) Name() ProviderName {
	return ProviderGoogle
}

// IsAvailable returns true if the provider is configured and available.
func (p *googleProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// Priority returns the provider priority.
func (p *googleProvider) Priority() int {
	return PriorityThirdFallback
}

func (p *googleProvider) resolveModel(model string) string {
	if strings.HasPrefix(model, modelPrefixGemini) {
		return model
	}

	return p.defaultModel
}

// Complete implements Provider interface.
func (p *googleProvider) Complete(ctx context.Context, req Request) (Response, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return Response{}, fmt.Errorf(errRateLimiter, err)
	}

	model := p.resolveModel(req.Model)
	genModel := p.client.GenerativeModel(model)

	if req.MaxTokens > 0 {
		genModel.SetMaxOutputTokens(int32(req.MaxTokens)) //nolint:gosec // token limits are small
	}

	if req.Temperature > 0 {
		genModel.SetTemperature(req.Temperature)
	}

	if req.JSONMode {
		genModel.ResponseMIMEType = mimeTypeJSON
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := genModel.GenerateContent(ctx, genai.Text(sanitizeUTF8(req.Prompt)))
	if err != nil {
		return Response{}, fmt.Errorf(errGoogleGenAICompletion, err)
	}

	text := strings.TrimSpace(extractGoogleResponseText(resp))
	if text == "" {
		return Response{}, fmt.Errorf("google: %w", apperrors.ErrEmptyResponse)
	}

	out := Response{Text: text, Model: model}

	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	for _, c := range resp.Candidates {
		if c.FinishReason == genai.FinishReasonMaxTokens {
			out.Truncated = true
		}
	}

	return out, nil
}

func extractGoogleResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var result strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					result.WriteString(string(text))
				}
			}
		}
	}

	return result.String()
}

// Ensure googleProvider implements Provider interface.
var _ Provider = (*googleProvider)(nil)
