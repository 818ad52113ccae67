// Package confidence scores analyzed items for suggestion gating.
//
//	confidence = 0.4*(bulk_score/10) + 0.4*(completeness/4) + 0.2*source_weight
//
// completeness counts the non-empty fields among techniques, code snippets,
// practical applications and key contribution. The result is rounded to two
// decimals.
package confidence

import (
	"math"
	"strings"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
)

const (
	bulkWeight         = 0.4
	completenessWeight = 0.4
	sourceWeight       = 0.2

	maxBulkScore      = 10.0
	completenessCount = 4
)

var typeWeights = map[domain.ItemType]float64{
	domain.ItemTypePaper:   1.0,
	domain.ItemTypeArticle: 0.8,
	domain.ItemTypeVideo:   0.7,
	domain.ItemTypeRepo:    0.6,
}

const unknownTypeWeight = 0.5

// SourceWeight returns the fixed per-type weight.
func SourceWeight(t domain.ItemType) float64 {
	if w, ok := typeWeights[t]; ok {
		return w
	}

	return unknownTypeWeight
}

// Completeness counts how many of the four analysis indicators are present.
func Completeness(d domain.DeepAnalysis) int {
	n := 0

	if len(d.Techniques) > 0 {
		n++
	}

	if len(d.CodeSnippets) > 0 {
		n++
	}

	if len(d.PracticalApplications) > 0 {
		n++
	}

	if strings.TrimSpace(d.KeyContribution) != "" {
		n++
	}

	return n
}

// Score computes the confidence of an analyzed item. Out-of-range bulk
// scores are clamped so the result always lies in [0, 1].
func Score(item domain.AnalyzedItem) float64 {
	bulk := math.Max(0, math.Min(item.Tier1.BulkScore, maxBulkScore))

	c := bulkWeight*(bulk/maxBulkScore) +
		completenessWeight*(float64(Completeness(item.DeepDive))/completenessCount) +
		sourceWeight*SourceWeight(item.Type)

	return math.Round(c*100) / 100
}
