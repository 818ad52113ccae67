package llm

import (
	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/platform/config"
)

// Together model constants.
const (
	ModelGPTOSS120B      = "openai/gpt-oss-120b"
	defaultTogetherURL   = "https://api.together.xyz/v1"
	defaultTogetherModel = ModelGPTOSS120B
)

// NewTogetherProvider creates the Together provider used for Tier 1 bulk
// scoring. Together exposes an OpenAI-compatible API.
func NewTogetherProvider(cfg *config.Config, logger *zerolog.Logger) *openaiProvider {
	baseURL := cfg.TogetherBaseURL
	if baseURL == "" {
		baseURL = defaultTogetherURL
	}

	model := cfg.TogetherModel
	if model == "" {
		model = defaultTogetherModel
	}

	return newOpenAICompatible(ProviderTogether, cfg.TogetherAPIKey, baseURL, model, PriorityPrimary, cfg, logger)
}
