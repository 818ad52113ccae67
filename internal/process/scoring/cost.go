package scoring

import (
	"unicode/utf8"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
)

// Estimation constants for run statistics. These are planning figures and
// are independent of the metered usage recorded by the LLM registry.
const (
	charsPerToken        = 4
	promptOverheadTokens = 500
	scoutCostPer1K       = 0.0005

	tier1TokensPerItem = 700
	tier1CostPerMTok   = 0.50
)

// EstimateTokens approximates scout token usage from item text length.
func EstimateTokens(items []domain.DiscoveredItem) int {
	chars := 0
	for _, it := range items {
		chars += utf8.RuneCountInString(it.Title) + utf8.RuneCountInString(it.Summary)
	}

	return chars/charsPerToken + promptOverheadTokens
}

// EstimateScoutCost converts a token estimate to USD.
func EstimateScoutCost(tokens int) float64 {
	return float64(tokens) / 1000 * scoutCostPer1K
}

// EstimateTier1Cost is the planning cost of scoring n items in a weekly pass.
func EstimateTier1Cost(n int) float64 {
	return float64(n) * tier1TokensPerItem / 1e6 * tier1CostPerMTok
}
