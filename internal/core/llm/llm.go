package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/platform/config"
)

// New builds a registry with every provider that has credentials configured.
// A Google client that fails to initialise is logged and skipped.
func New(ctx context.Context, cfg *config.Config, usage UsageRecorder, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	taskConfig := DefaultTaskConfig(ModelSet{
		Together:  cfg.TogetherModel,
		OpenAI:    cfg.OpenAIModel,
		Anthropic: cfg.AnthropicModel,
		Google:    cfg.GoogleModel,
	}, cfg.Tier1MaxTokens, cfg.Tier2MaxTokens)

	registry := NewRegistry(taskConfig, usage, logger)
	cbCfg := CircuitBreakerConfig{Threshold: cfg.LLMCircuitThreshold, ResetAfter: cfg.LLMCircuitTimeout}

	if cfg.TogetherAPIKey != "" {
		registry.Register(NewTogetherProvider(cfg, logger), cbCfg)
	}

	if cfg.AnthropicAPIKey != "" {
		registry.Register(NewAnthropicProvider(cfg, logger), cbCfg)
	}

	if cfg.OpenAIAPIKey != "" {
		registry.Register(NewOpenAIProvider(cfg, logger), cbCfg)
	}

	if cfg.GoogleAPIKey != "" {
		google, err := NewGoogleProvider(ctx, cfg, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("google provider unavailable")
		} else {
			registry.Register(google, cbCfg)
		}
	}

	return registry
}

// NewDryRun builds a registry backed only by the mock provider.
func NewDryRun(logger *zerolog.Logger) *Registry {
	registry := NewRegistry(DefaultTaskConfig(ModelSet{}, 0, 0), NoopUsageRecorder(), logger)
	registry.Register(NewMockProvider(), DefaultCircuitBreakerConfig())

	return registry
}
