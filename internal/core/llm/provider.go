package llm

import "context"

// ProviderName identifies an LLM provider.
type ProviderName string

// Provider name constants.
const (
	ProviderTogether  ProviderName = "together"
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
	ProviderMock      ProviderName = "mock"
)

// Priority constants for provider ordering.
const (
	PriorityPrimary        = 100 // Together for bulk work
	PriorityFallback       = 50  // Anthropic
	PrioritySecondFallback = 25  // OpenAI
	PriorityThirdFallback  = 10  // Google
	PriorityMock           = 0   // Mock provider for dry runs
)

// Request is a single text prompt sent to a provider.
type Request struct {
	Task        TaskType
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float32
	// JSONMode asks providers that support it for a JSON object response.
	JSONMode bool
}

// Response is the provider's text answer plus token accounting.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Truncated        bool
}

// Provider is the opaque (prompt) -> text contract every LLM backend implements.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured and available.
	IsAvailable() bool

	// Priority returns the provider priority (higher = preferred).
	Priority() int

	Complete(ctx context.Context, req Request) (Response, error)
}

// Client is what pipeline stages depend on: complete a prompt for a task.
type Client interface {
	Complete(ctx context.Context, task TaskType, prompt string) (string, error)
}
