package llm

// TaskType identifies the type of LLM task.
type TaskType string

// Task type constants.
const (
	TaskTypeBulkScore    TaskType = "bulk_score"
	TaskTypeDeepAnalysis TaskType = "deep_analysis"
)

// ProviderModel specifies a provider and model combination.
type ProviderModel struct {
	Provider ProviderName
	Model    string
}

// TaskProviderChain defines the provider/model fallback chain for a task
// together with the request options it is sent with.
type TaskProviderChain struct {
	Default     ProviderModel
	Fallbacks   []ProviderModel
	MaxTokens   int
	Temperature float32
	JSONMode    bool
}

// ModelSet names the configured model for each provider.
type ModelSet struct {
	Together  string
	OpenAI    string
	Anthropic string
	Google    string
}

// Default request sizes.
const (
	DefaultBulkScoreMaxTokens    = 4000
	DefaultDeepAnalysisMaxTokens = 2000
	bulkScoreTemperature         = 0.1
)

// DefaultTaskConfig returns the fallback chain per task.
func DefaultTaskConfig(models ModelSet, bulkMaxTokens, deepMaxTokens int) map[TaskType]TaskProviderChain {
	if bulkMaxTokens <= 0 {
		bulkMaxTokens = DefaultBulkScoreMaxTokens
	}

	if deepMaxTokens <= 0 {
		deepMaxTokens = DefaultDeepAnalysisMaxTokens
	}

	return map[TaskType]TaskProviderChain{
		// Bulk score: Together → OpenAI → Google
		TaskTypeBulkScore: {
			Default: ProviderModel{Provider: ProviderTogether, Model: models.Together},
			Fallbacks: []ProviderModel{
				{Provider: ProviderOpenAI, Model: models.OpenAI},
				{Provider: ProviderGoogle, Model: models.Google},
			},
			MaxTokens:   bulkMaxTokens,
			Temperature: bulkScoreTemperature,
			JSONMode:    true,
		},

		// Deep analysis: Anthropic → Google → OpenAI
		TaskTypeDeepAnalysis: {
			Default: ProviderModel{Provider: ProviderAnthropic, Model: models.Anthropic},
			Fallbacks: []ProviderModel{
				{Provider: ProviderGoogle, Model: models.Google},
				{Provider: ProviderOpenAI, Model: models.OpenAI},
			},
			MaxTokens: deepMaxTokens,
		},
	}
}

// GetProviderChain returns the ordered list of provider/model combinations for a task.
func (tc TaskProviderChain) GetProviderChain() []ProviderModel {
	chain := make([]ProviderModel, 0, 1+len(tc.Fallbacks))
	chain = append(chain, tc.Default)
	chain = append(chain, tc.Fallbacks...)

	return chain
}
