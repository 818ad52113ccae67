// Package escalation selects the Tier 1 survivors that receive deep analysis.
package escalation

import (
	"cmp"
	"slices"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
)

const (
	DefaultThreshold = 7.0
	DefaultMaxItems  = 10

	highBonus   = 3.0
	mediumBonus = 1.0
	paperBonus  = 1.0
)

// PriorityScore ranks an item for deep analysis:
// relevance*10 + priority bonus (high 3, medium 1) + 1 for papers.
func PriorityScore(it domain.ScoredItem) float64 {
	score := it.Tier1.RelevanceScore * 10

	switch it.Tier1.EscalationPriority {
	case domain.PriorityHigh:
		score += highBonus
	case domain.PriorityMedium:
		score += mediumBonus
	}

	if it.Type == domain.ItemTypePaper {
		score += paperBonus
	}

	return score
}

// Rank returns a copy ordered by PriorityScore descending, stable on ties.
func Rank(items []domain.ScoredItem) []domain.ScoredItem {
	out := slices.Clone(items)

	slices.SortStableFunc(out, func(a, b domain.ScoredItem) int {
		return cmp.Compare(PriorityScore(b), PriorityScore(a))
	})

	return out
}

// Eligible reports whether an item qualifies for deep analysis.
func Eligible(it domain.ScoredItem, threshold float64) bool {
	return it.Tier1.BulkScore >= threshold || it.EscalationFlagged()
}

// Select keeps eligible items in the caller's order and truncates to maxItems.
// A non-positive maxItems yields nothing.
func Select(ranked []domain.ScoredItem, threshold float64, maxItems int) []domain.ScoredItem {
	out := make([]domain.ScoredItem, 0, min(len(ranked), max(maxItems, 0)))

	for _, it := range ranked {
		if len(out) >= maxItems {
			break
		}

		if Eligible(it, threshold) {
			out = append(out, it)
		}
	}

	observability.ItemsEscalated.Add(float64(len(out)))

	return out
}
