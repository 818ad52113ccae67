package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/storage/artifacts"
)

func seedResourceWeek(t *testing.T, s *artifacts.Store) {
	t.Helper()

	paper := scored("paper", domain.ItemTypePaper, 9)
	paper.URL = "https://arxiv.org/abs/2601.01234"
	paper.RawMetadata = map[string]any{"arxiv_id": "2601.01234"}

	_, err := s.SaveDeepDive(artifacts.DeepDive{
		Week: testWeek,
		Analyses: []domain.AnalysisRecord{
			{ScoredItem: paper, DeepDive: deepDive("Introduces a planner.")},
			{ScoredItem: scored("repo-low", domain.ItemTypeRepo, 6)},
			{ScoredItem: scored("promoted", domain.ItemTypeRepo, 9)},
			{ScoredItem: scored("video", domain.ItemTypeVideo, 8)},
		},
	})
	require.NoError(t, err)
}

func TestRunResources(t *testing.T) {
	f := newFixture(t, noKeysConfig())
	f.ledger.urls = []string{"https://example.com/promoted"}
	seedResourceWeek(t, f.store)

	res, err := f.app.RunResources(context.Background(), ResourcesOptions{})
	require.NoError(t, err)

	out := res.Outcome
	assert.Len(t, out.Added, 2)
	assert.Equal(t, 1, out.SkippedDuplicate)
	assert.Equal(t, 1, out.SkippedLowScore)
	assert.Equal(t, 2, res.Recorded)
	require.NotEmpty(t, res.Path)

	saved, err := f.store.LoadResources()
	require.NoError(t, err)
	require.Len(t, saved.Papers, 1)
	assert.Equal(t, "Introduces a planner.", saved.Papers[0].Description)
	assert.Len(t, saved.Tutorials, 1)
	assert.Empty(t, saved.Repos)

	require.Len(t, f.ledger.promoted, 2)
	assert.Equal(t, "paper", f.ledger.promoted[0].ItemID)
	require.Len(t, f.notifier.summaries, 1)

	again, err := f.app.RunResources(context.Background(), ResourcesOptions{})
	require.NoError(t, err)
	assert.Empty(t, again.Outcome.Added)
	assert.Empty(t, again.Path)
	assert.Equal(t, 3, again.Outcome.SkippedDuplicate)
}

func TestRunResources_DryRun(t *testing.T) {
	f := newFixture(t, noKeysConfig())
	seedResourceWeek(t, f.store)

	var buf bytes.Buffer

	res, err := f.app.RunResources(context.Background(), ResourcesOptions{DryRun: true, MinScore: 8.5, Out: &buf})
	require.NoError(t, err)

	assert.Empty(t, res.Path)
	assert.Len(t, res.Outcome.Added, 2)
	assert.Contains(t, buf.String(), "Would add 2 resources (papers=1 repos=1 tutorials=0 articles=0)")
	assert.Contains(t, buf.String(), "https://arxiv.org/abs/2601.01234")

	saved, err := f.store.LoadResources()
	require.NoError(t, err)
	assert.Empty(t, saved.URLs())
	assert.Empty(t, f.ledger.promoted)
	assert.Empty(t, f.ledger.runs)
}
