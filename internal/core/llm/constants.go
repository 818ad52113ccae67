package llm

import "time"

const (
	errRateLimiter           = "rate limiter error: %w"
	errOpenAIChatCompletion  = "openai chat completion error: %w"
	errGoogleGenAICompletion = "google genai completion: %w"
	errAnthropicMessages     = "anthropic messages error: %w"
)

// Model name fragments used for pricing and provider routing.
const (
	modelPrefixGPT4   = "gpt-4"
	modelPrefixGPT5   = "gpt-5"
	modelPrefixNano   = "nano"
	modelPrefixClaude = "claude"
	modelPrefixGemini = "gemini"
	modelFragmentOSS  = "gpt-oss"
)

const (
	logMsgCircuitBreakerOpen = "skipping provider - circuit breaker open"
	logMsgTruncated          = "LLM output truncated due to max_tokens limit"

	logKeyTask      = "task"
	logKeyModel     = "model"
	logKeyProvider  = "provider"
	logKeyMaxTokens = "max_tokens"
)

const contentTypeText = "text"

const (
	rateLimiterBurst = 5

	defaultCircuitThreshold = 3
	defaultCircuitTimeout   = 5 * time.Minute

	// usageStorageTimeout bounds one asynchronous ledger increment.
	usageStorageTimeout = 5 * time.Second

	usdToMillicents = 100000.0
)

// Request outcome labels for metrics.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
