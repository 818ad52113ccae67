package app

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/storage/artifacts"
)

func update(page, text string) domain.SuggestedUpdate {
	return domain.SuggestedUpdate{TargetPage: page, TargetSection: "Patterns", SuggestionText: text}
}

func seedSuggestWeeks(t *testing.T, s *artifacts.Store) {
	t.Helper()

	older := scored("shared", domain.ItemTypePaper, 9)
	newer := older
	newer.Title = "Shared, newer analysis"

	weak := scored("weak", domain.ItemTypeRepo, 2)
	weak.Tier1.RelevanceScore = 0.6

	weeks := []artifacts.DeepDive{
		{
			Week: "2026-W02",
			Analyses: []domain.AnalysisRecord{
				{ScoredItem: older, DeepDive: deepDive("old", update("src/pages/topics/memory/index.astro", "old text"))},
				{ScoredItem: scored("tier1-only", domain.ItemTypeArticle, 9)},
			},
		},
		{
			Week: testWeek,
			Analyses: []domain.AnalysisRecord{
				{ScoredItem: newer, DeepDive: deepDive("new",
					update("src/pages/topics/memory/index.astro", "first"),
					update("src/pages/topics/planning/index.astro", "second"))},
				{ScoredItem: weak, DeepDive: &domain.DeepAnalysis{
					KeyContribution: "thin",
					SiteRelevance:   domain.SiteRelevance{SuggestedUpdates: []domain.SuggestedUpdate{update("", "vague")}},
				}},
				{ScoredItem: scored("no-updates", domain.ItemTypePaper, 9), DeepDive: deepDive("none")},
			},
		},
	}

	for _, w := range weeks {
		_, err := s.SaveDeepDive(w)
		require.NoError(t, err)
	}
}

func TestRunSuggest(t *testing.T) {
	f := newFixture(t, noKeysConfig())
	seedSuggestWeeks(t, f.store)

	res, err := f.app.RunSuggest(context.Background(), SuggestOptions{})
	require.NoError(t, err)

	st := res.Suggestions.Stats
	assert.Equal(t, 2, st.SourcesAnalyzed, "the shared URL counts once and items without updates are ignored")
	assert.Equal(t, 1, st.PassedThreshold)
	assert.Equal(t, 2, st.SuggestionsGenerated)
	assert.InDelta(t, 0.7, st.ConfidenceThreshold, 1e-9)

	require.Len(t, res.Suggestions.Suggestions, 2)
	first := res.Suggestions.Suggestions[0]
	assert.Equal(t, "first", first.SuggestionText)
	assert.Equal(t, "memory", first.Topic)
	assert.Equal(t, "Shared, newer analysis", first.Item.Title)
	assert.InDelta(t, 0.96, first.Confidence, 1e-9)
	assert.Equal(t, "planning", res.Suggestions.Suggestions[1].Topic)

	require.Len(t, res.Suggestions.Skipped, 1)
	assert.Equal(t, "weak", res.Suggestions.Skipped[0].ID)

	require.NotEmpty(t, res.Path)
	md, err := os.ReadFile(strings.TrimSuffix(res.Path, ".json") + ".md")
	require.NoError(t, err)
	assert.Contains(t, string(md), "Content Suggestions "+testWeek)
	assert.Contains(t, string(md), "Topic: `memory`")

	require.Len(t, f.notifier.summaries, 1)
	assert.Equal(t, []string{"memory: 1", "planning: 1"}, f.notifier.summaries[0].Notes)
}

func TestRunSuggest_DryRunPrintsReport(t *testing.T) {
	f := newFixture(t, noKeysConfig())
	seedSuggestWeeks(t, f.store)

	var out bytes.Buffer

	res, err := f.app.RunSuggest(context.Background(), SuggestOptions{DryRun: true, Out: &out, MaxSuggestions: 1})
	require.NoError(t, err)

	assert.Empty(t, res.Path)
	assert.Len(t, res.Suggestions.Suggestions, 1)
	assert.Equal(t, string(res.Report), out.String())
	assert.Contains(t, out.String(), "Content Suggestions "+testWeek)

	_, err = os.Stat(f.store.SuggestionsPath(testWeek))
	assert.True(t, os.IsNotExist(err), "dry runs write nothing")
	assert.Empty(t, f.notifier.summaries)
}

func TestRunSuggest_Weeks(t *testing.T) {
	f := newFixture(t, noKeysConfig())
	seedSuggestWeeks(t, f.store)

	res, err := f.app.RunSuggest(context.Background(), SuggestOptions{Weeks: 1, MinConfidence: 0.99})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Suggestions.Stats.SourcesAnalyzed)
	assert.Empty(t, res.Suggestions.Suggestions)
	assert.Len(t, res.Suggestions.Skipped, 2)
}

func TestTopicPage(t *testing.T) {
	f := newFixture(t, noKeysConfig())

	_, ok := f.app.topicPage("unknown")
	assert.False(t, ok)

	p, ok := f.app.topicPage("memory")
	assert.True(t, ok)
	assert.Equal(t, f.catalog.PagePath("memory"), p)
}
