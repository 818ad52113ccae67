package llm

import "strings"

// Cost per 1M tokens (in USD) for various providers and models.
// These are approximate costs and should be updated as pricing changes.
const (
	// Together serverless
	costTogetherOSSPrompt     = 0.15
	costTogetherOSSComplete   = 0.60
	costTogetherDefaultPrompt = 0.50
	costTogetherDefaultCompl  = 0.50

	// OpenAI
	costGPT5PromptPer1M       = 2.50
	costGPT5CompletionPer1M   = 10.00
	costGPT5NanoPromptPer1M   = 0.05
	costGPT5NanoCompletePer1M = 0.40
	costGPT4OPromptPer1M      = 2.50
	costGPT4OCompletionPer1M  = 10.00
	costGPT4OMiniPrompt       = 0.15
	costGPT4OMiniComplete     = 0.60

	// Anthropic
	costClaudeHaikuPrompt    = 1.00
	costClaudeHaikuComplete  = 5.00
	costClaudeSonnetPrompt   = 3.00
	costClaudeSonnetComplete = 15.00

	// Google Gemini
	costGeminiFlashPrompt   = 0.10
	costGeminiFlashComplete = 0.40
	costGeminiProPrompt     = 3.50
	costGeminiProComplete   = 10.50

	tokensPerMillion = 1000000.0
)

// estimateCost calculates an estimated cost in USD for a request.
func estimateCost(provider, model string, promptTokens, completionTokens int) float64 {
	promptCost, completionCost := getCostRates(provider, model)

	promptUSD := float64(promptTokens) * promptCost / tokensPerMillion
	completionUSD := float64(completionTokens) * completionCost / tokensPerMillion

	return promptUSD + completionUSD
}

// getCostRates returns the cost per 1M tokens for prompt and completion.
func getCostRates(provider, model string) (promptRate, completionRate float64) {
	modelLower := strings.ToLower(model)

	switch ProviderName(provider) {
	case ProviderTogether:
		if strings.Contains(modelLower, modelFragmentOSS) {
			return costTogetherOSSPrompt, costTogetherOSSComplete
		}

		return costTogetherDefaultPrompt, costTogetherDefaultCompl
	case ProviderOpenAI:
		return getOpenAICostRates(modelLower)
	case ProviderAnthropic:
		return getAnthropicCostRates(modelLower)
	case ProviderGoogle:
		return getGoogleCostRates(modelLower)
	case ProviderMock:
		return 0, 0
	default:
		return costGPT4OMiniPrompt, costGPT4OMiniComplete
	}
}

func getOpenAICostRates(model string) (float64, float64) {
	switch {
	case strings.Contains(model, modelPrefixGPT5) && strings.Contains(model, modelPrefixNano):
		return costGPT5NanoPromptPer1M, costGPT5NanoCompletePer1M
	case strings.Contains(model, modelPrefixGPT5):
		return costGPT5PromptPer1M, costGPT5CompletionPer1M
	case strings.Contains(model, "gpt-4o-mini"):
		return costGPT4OMiniPrompt, costGPT4OMiniComplete
	case strings.Contains(model, modelPrefixGPT4):
		return costGPT4OPromptPer1M, costGPT4OCompletionPer1M
	default:
		return costGPT4OMiniPrompt, costGPT4OMiniComplete
	}
}

func getAnthropicCostRates(model string) (float64, float64) {
	switch {
	case strings.Contains(model, "haiku"):
		return costClaudeHaikuPrompt, costClaudeHaikuComplete
	case strings.Contains(model, "sonnet"), strings.Contains(model, "opus"):
		return costClaudeSonnetPrompt, costClaudeSonnetComplete
	default:
		return costClaudeSonnetPrompt, costClaudeSonnetComplete
	}
}

func getGoogleCostRates(model string) (float64, float64) {
	switch {
	case strings.Contains(model, "pro"):
		return costGeminiProPrompt, costGeminiProComplete
	default:
		return costGeminiFlashPrompt, costGeminiFlashComplete
	}
}
