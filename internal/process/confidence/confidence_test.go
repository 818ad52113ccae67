package confidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
)

func fullAnalysis() domain.DeepAnalysis {
	return domain.DeepAnalysis{
		KeyContribution:       "A new planning loop.",
		Techniques:            []domain.Technique{{Name: "ReAct"}},
		CodeSnippets:          []domain.CodeSnippet{{Language: "python", Code: "pass"}},
		PracticalApplications: []string{"Use it for tool routing."},
	}
}

func analyzed(typ domain.ItemType, bulk float64, dd domain.DeepAnalysis) domain.AnalyzedItem {
	return domain.AnalyzedItem{
		ScoredItem: domain.ScoredItem{
			DiscoveredItem: domain.DiscoveredItem{ID: "x", Type: typ},
			Tier1:          domain.Tier1Result{BulkScore: bulk},
		},
		DeepDive: dd,
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		item domain.AnalyzedItem
		want float64
	}{
		{name: "paper, bulk 8, complete", item: analyzed(domain.ItemTypePaper, 8, fullAnalysis()), want: 0.92},
		{name: "repo, bulk 10, empty analysis", item: analyzed(domain.ItemTypeRepo, 10, domain.DeepAnalysis{}), want: 0.52},
		{name: "video, bulk 7, two indicators", item: analyzed(domain.ItemTypeVideo, 7, domain.DeepAnalysis{KeyContribution: "x", PracticalApplications: []string{"y"}}), want: 0.62},
		{name: "unknown, bulk 0", item: analyzed(domain.ItemTypeUnknown, 0, domain.DeepAnalysis{}), want: 0.1},
		{name: "article, bulk above range clamps", item: analyzed(domain.ItemTypeArticle, 14, fullAnalysis()), want: 0.96},
		{name: "negative bulk clamps", item: analyzed(domain.ItemTypePaper, -3, domain.DeepAnalysis{}), want: 0.2},
		{name: "whitespace contribution does not count", item: analyzed(domain.ItemTypePaper, 0, domain.DeepAnalysis{KeyContribution: "  "}), want: 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.item), 1e-9)
		})
	}
}

func TestScore_BoundsAndMonotonicity(t *testing.T) {
	types := []domain.ItemType{domain.ItemTypeUnknown, domain.ItemTypeRepo, domain.ItemTypeVideo, domain.ItemTypeArticle, domain.ItemTypePaper}
	analyses := []domain.DeepAnalysis{
		{},
		{KeyContribution: "k"},
		{KeyContribution: "k", Techniques: []domain.Technique{{Name: "t"}}},
		{KeyContribution: "k", Techniques: []domain.Technique{{Name: "t"}}, CodeSnippets: []domain.CodeSnippet{{Code: "c"}}},
		fullAnalysis(),
	}

	for ti, typ := range types {
		for ai, dd := range analyses {
			prev := -1.0

			for bulk := 0.0; bulk <= 10; bulk++ {
				c := Score(analyzed(typ, bulk, dd))

				assert.GreaterOrEqual(t, c, 0.0)
				assert.LessOrEqual(t, c, 1.0)
				assert.GreaterOrEqual(t, c, prev, "bulk monotonicity")

				if ai > 0 {
					assert.GreaterOrEqual(t, c, Score(analyzed(typ, bulk, analyses[ai-1])), "completeness monotonicity")
				}

				if ti > 0 {
					assert.GreaterOrEqual(t, c, Score(analyzed(types[ti-1], bulk, dd)), "source weight monotonicity")
				}

				prev = c
			}
		}
	}
}

func TestSourceWeight(t *testing.T) {
	assert.InDelta(t, 1.0, SourceWeight(domain.ItemTypePaper), 1e-9)
	assert.InDelta(t, 0.8, SourceWeight(domain.ItemTypeArticle), 1e-9)
	assert.InDelta(t, 0.7, SourceWeight(domain.ItemTypeVideo), 1e-9)
	assert.InDelta(t, 0.6, SourceWeight(domain.ItemTypeRepo), 1e-9)
	assert.InDelta(t, 0.5, SourceWeight(domain.ItemType("podcast")), 1e-9)
}
