package artifacts

import (
	"time"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
)

// ScoutStats summarizes a daily scout run.
type ScoutStats struct {
	SourcesChecked int     `json:"sources_checked"`
	ItemsFound     int     `json:"items_found"`
	ItemsRelevant  int     `json:"items_relevant"`
	TokensUsed     int     `json:"tokens_used"`
	CostUSD        float64 `json:"cost_usd"`
}

// Research is the daily scout artifact.
type Research struct {
	Date     string              `json:"date"`
	RunID    string              `json:"run_id,omitempty"`
	Stats    ScoutStats          `json:"stats"`
	Findings []domain.ScoredItem `json:"findings"`
}

// DeepDiveStats summarizes a weekly deep-dive run.
type DeepDiveStats struct {
	Tier1Items   int     `json:"tier1_items"`
	Tier2Items   int     `json:"tier2_items"`
	Tier2Skipped int     `json:"tier2_skipped"`
	Tier1CostUSD float64 `json:"tier1_cost_usd"`
	Tier2CostUSD float64 `json:"tier2_cost_usd"`
	TotalCostUSD float64 `json:"total_cost_usd"`
}

// DeepDive is the weekly deep-dive artifact.
type DeepDive struct {
	Week        string                  `json:"week"`
	RunID       string                  `json:"run_id,omitempty"`
	GeneratedAt time.Time               `json:"generated_at"`
	Processed   int                     `json:"processed"`
	Stats       DeepDiveStats           `json:"stats"`
	Analyses    []domain.AnalysisRecord `json:"analyses"`
}

// SuggestStats summarizes a weekly suggestion run.
type SuggestStats struct {
	SourcesAnalyzed      int     `json:"sources_analyzed"`
	PassedThreshold      int     `json:"passed_threshold"`
	SuggestionsGenerated int     `json:"suggestions_generated"`
	ConfidenceThreshold  float64 `json:"confidence_threshold"`
}

// Suggestions is the weekly content-suggestion artifact.
type Suggestions struct {
	Week        string                     `json:"week"`
	RunID       string                     `json:"run_id,omitempty"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Stats       SuggestStats               `json:"stats"`
	Suggestions []domain.Suggestion        `json:"suggestions"`
	Skipped     []domain.LowConfidenceItem `json:"skipped"`
}
