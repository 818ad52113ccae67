package resources

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/process/dedup"
)

var fixedNow = time.Date(2026, 1, 14, 9, 30, 0, 0, time.UTC)

func record(id string, typ domain.ItemType, url string, bulk float64, dd *domain.DeepAnalysis) domain.AnalysisRecord {
	return domain.AnalysisRecord{
		ScoredItem: domain.ScoredItem{
			DiscoveredItem: domain.DiscoveredItem{ID: id, Title: "Title " + id, URL: url, Type: typ, Source: "arxiv"},
			Tier1:          domain.Tier1Result{BulkScore: bulk, Summary: "tier one summary", Topics: []string{"memory"}},
		},
		DeepDive: dd,
	}
}

func newPromoter() *Promoter {
	return New(DefaultMinScore, DefaultMaxPerCategory, func() time.Time { return fixedNow }, nil)
}

func TestPromote_Categories(t *testing.T) {
	records := []domain.AnalysisRecord{
		record("p", domain.ItemTypePaper, "https://arxiv.org/abs/2601.12345", 8, nil),
		record("r", domain.ItemTypeRepo, "https://github.com/o/r", 9, nil),
		record("v", domain.ItemTypeVideo, "https://youtube.com/watch?v=x", 7, nil),
		record("a", domain.ItemTypeArticle, "https://example.com/a", 7.5, nil),
		record("u", domain.ItemTypeUnknown, "https://example.com/u", 10, nil),
	}

	out := newPromoter().Promote(records, domain.ResourceList{}, nil)

	require.Len(t, out.Added, 5)
	assert.Len(t, out.List.Papers, 1)
	assert.Len(t, out.List.Repos, 1)
	assert.Len(t, out.List.Tutorials, 1)
	assert.Equal(t, []string{"u", "a"}, titles(out.List.Articles))
	require.NotNil(t, out.List.LastUpdated)
	assert.Equal(t, fixedNow, *out.List.LastUpdated)
	assert.Equal(t, "papers=1 repos=1 tutorials=1 articles=2", Summary(out.List))
}

func TestPromote_Fields(t *testing.T) {
	long := strings.Repeat("k", 400)
	dd := &domain.DeepAnalysis{
		KeyContribution: long,
		SiteRelevance:   domain.SiteRelevance{Topics: []string{"a", "b", "c", "d", "e", "f"}},
	}

	paper := record("p", domain.ItemTypePaper, "https://arxiv.org/abs/2601.12345", 8, dd)
	paper.RawMetadata = map[string]any{"arxiv_id": "2601.12345", "categories": []string{"cs.AI"}}

	repo := record("r", domain.ItemTypeRepo, "https://github.com/o/r", 9, nil)
	repo.RawMetadata = map[string]any{"stars": 120, "language": "Go", "topic": "llm-agents"}

	video := record("v", domain.ItemTypeVideo, "https://youtube.com/watch?v=x", 7, &domain.DeepAnalysis{
		KeyContribution: "Analysis failed",
		Error:           "timeout",
	})
	video.RawMetadata = map[string]any{"channel": "Talks"}

	out := newPromoter().Promote([]domain.AnalysisRecord{paper, repo, video}, domain.ResourceList{}, nil)
	require.Len(t, out.Added, 3)

	p := out.List.Papers[0]
	assert.Equal(t, strings.Repeat("k", MaxDescriptionChars), p.Description)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, p.Topics)
	assert.Equal(t, map[string]any{"arxiv_id": "2601.12345", "year": 2026}, p.Metadata)
	assert.Equal(t, domain.CategoryPapers, p.Category)
	assert.Equal(t, fixedNow, p.DiscoveredAt)

	r := out.List.Repos[0]
	assert.Equal(t, "tier one summary", r.Description)
	assert.Equal(t, []string{"memory"}, r.Topics)
	assert.Equal(t, map[string]any{"stars": 120, "language": "Go"}, r.Metadata)

	v := out.List.Tutorials[0]
	assert.Equal(t, "tier one summary", v.Description, "failed analyses fall back to the tier-1 summary")
	assert.Equal(t, map[string]any{"channel": "Talks"}, v.Metadata)
}

func TestPromote_DedupAndThreshold(t *testing.T) {
	existing := domain.ResourceList{
		Papers: []domain.Resource{{Title: "Old", URL: "https://arxiv.org/abs/2501.00001", Score: 9, Category: domain.CategoryPapers}},
	}
	exclude := dedup.NewExclusionSet([]string{"https://arxiv.org/abs/2210.03629"})

	records := []domain.AnalysisRecord{
		record("old", domain.ItemTypePaper, "https://ARXIV.org/abs/2501.00001", 9, nil),
		record("react", domain.ItemTypePaper, "https://arxiv.org/abs/2210.03629", 10, nil),
		record("low", domain.ItemTypePaper, "https://arxiv.org/abs/2601.00002", 6.9, nil),
		record("new", domain.ItemTypePaper, "https://arxiv.org/abs/2601.00003", 9.5, nil),
		record("again", domain.ItemTypePaper, "https://arxiv.org/abs/2601.00003", 9.5, nil),
		record("untitled", domain.ItemTypePaper, "", 9, nil),
	}

	out := newPromoter().Promote(records, existing, exclude)

	assert.Equal(t, 3, out.SkippedDuplicate)
	assert.Equal(t, 1, out.SkippedLowScore)
	require.Len(t, out.Added, 1)
	assert.Equal(t, "Title new", out.Added[0].Title)
	assert.Equal(t, []string{"Title new", "Old"}, titles(out.List.Papers))
	assert.Len(t, existing.Papers, 1, "existing list must not be modified")
}

func TestPromote_CapPerCategory(t *testing.T) {
	records := make([]domain.AnalysisRecord, 0, 25)
	for i := 0; i < 25; i++ {
		records = append(records, record(fmt.Sprint(i), domain.ItemTypeRepo, fmt.Sprintf("https://github.com/o/%d", i), 7+float64(i%3), nil))
	}

	out := New(7, 20, func() time.Time { return fixedNow }, nil).Promote(records, domain.ResourceList{}, nil)

	require.Len(t, out.List.Repos, 20)
	assert.NotNil(t, out.List.Papers)
	assert.Empty(t, out.List.Papers)

	for i := 1; i < len(out.List.Repos); i++ {
		assert.GreaterOrEqual(t, out.List.Repos[i-1].Score, out.List.Repos[i].Score)
	}

	// ties keep input order
	assert.Equal(t, "Title 2", out.List.Repos[0].Title)
	assert.Equal(t, "Title 5", out.List.Repos[1].Title)
}

func TestArXivYear(t *testing.T) {
	tests := []struct {
		url    string
		want   int
		wantOK bool
	}{
		{url: "https://arxiv.org/abs/2601.12345", want: 2026, wantOK: true},
		{url: "https://arxiv.org/abs/2210.03629v2", want: 2022, wantOK: true},
		{url: "https://arxiv.org/abs/9912.00001", want: 1999, wantOK: true},
		{url: "https://example.com/paper", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := ArXivYear(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewSince(t *testing.T) {
	l := domain.ResourceList{
		Papers:   []domain.Resource{{Title: "fresh", DiscoveredAt: fixedNow}},
		Articles: []domain.Resource{{Title: "stale", DiscoveredAt: fixedNow.AddDate(0, 0, -3)}},
	}

	assert.Equal(t, []string{"fresh"}, titles(NewSince(l, fixedNow)))
}

func titles(rs []domain.Resource) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}

	return out
}
