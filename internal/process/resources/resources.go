// Package resources promotes high-scoring analyzed items into the permanent
// resource list.
package resources

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/core/links"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
	"github.com/0xhubed/agent-engineering/internal/process/dedup"
)

const (
	DefaultMinScore       = 7.0
	DefaultMaxPerCategory = 20

	MaxDescriptionChars = 300
	MaxTopics           = 5

	metaArXivID  = "arxiv_id"
	metaYear     = "year"
	metaStars    = "stars"
	metaLanguage = "language"
	metaChannel  = "channel"
)

// arXiv identifiers start with YYMM.
var arxivYearPattern = regexp.MustCompile(`/(\d{4})\.\d+`)

// Outcome reports one promotion pass.
type Outcome struct {
	List             domain.ResourceList
	Added            []domain.Resource
	SkippedDuplicate int
	SkippedLowScore  int
}

// Promoter builds resources from deep-dive records.
type Promoter struct {
	minScore       float64
	maxPerCategory int
	now            func() time.Time
	logger         *zerolog.Logger
}

func New(minScore float64, maxPerCategory int, now func() time.Time, logger *zerolog.Logger) *Promoter {
	if maxPerCategory <= 0 {
		maxPerCategory = DefaultMaxPerCategory
	}

	if now == nil {
		now = time.Now
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Promoter{minScore: minScore, maxPerCategory: maxPerCategory, now: now, logger: logger}
}

// Promote merges qualifying records into existing. URLs already in existing
// or in exclude are skipped, as are repeats within records. Each category is
// then sorted by score descending (stable) and capped.
func (p *Promoter) Promote(records []domain.AnalysisRecord, existing domain.ResourceList, exclude dedup.ExclusionSet) Outcome {
	seen := dedup.NewExclusionSet(existing.URLs())
	for u := range exclude {
		seen[u] = struct{}{}
	}

	out := Outcome{Added: []domain.Resource{}}

	lists := make(map[domain.ResourceCategory][]domain.Resource, len(domain.ResourceCategories))
	for _, c := range domain.ResourceCategories {
		lists[c] = slices.Clone(existing.Category(c))
	}

	discoveredAt := p.now().UTC()

	for _, rec := range records {
		res, ok := p.build(rec, discoveredAt)
		if !ok {
			continue
		}

		if seen.Contains(res.URL) {
			out.SkippedDuplicate++
			continue
		}

		if res.Score < p.minScore {
			out.SkippedLowScore++
			continue
		}

		seen.Add(res.URL)
		lists[res.Category] = append(lists[res.Category], res)
		out.Added = append(out.Added, res)

		observability.ResourcesPromoted.WithLabelValues(string(res.Category)).Inc()
	}

	for _, c := range domain.ResourceCategories {
		list := lists[c]

		slices.SortStableFunc(list, func(a, b domain.Resource) int {
			return cmp.Compare(b.Score, a.Score)
		})

		if len(list) > p.maxPerCategory {
			list = list[:p.maxPerCategory]
		}

		if list == nil {
			list = []domain.Resource{}
		}

		out.List.SetCategory(c, list)
	}

	out.List.LastUpdated = &discoveredAt

	p.logger.Info().
		Int("added", len(out.Added)).
		Int("skipped_duplicate", out.SkippedDuplicate).
		Int("skipped_low_score", out.SkippedLowScore).
		Msg("resources promoted")

	return out
}

// build converts a record into a resource. Records without a URL or title
// are not promotable.
func (p *Promoter) build(rec domain.AnalysisRecord, at time.Time) (domain.Resource, bool) {
	if rec.URL == "" || rec.Title == "" {
		return domain.Resource{}, false
	}

	topics := rec.Tier1.Topics
	description := rec.Tier1.Summary

	if dd := rec.DeepDive; dd != nil {
		if len(dd.SiteRelevance.Topics) > 0 {
			topics = dd.SiteRelevance.Topics
		}

		if dd.KeyContribution != "" && !dd.Failed() {
			description = dd.KeyContribution
		}
	}

	if len(topics) > MaxTopics {
		topics = topics[:MaxTopics]
	}

	return domain.Resource{
		ItemID:       rec.ID,
		Title:        rec.Title,
		URL:          rec.URL,
		Description:  links.Truncate(description, MaxDescriptionChars),
		Category:     domain.CategoryFor(rec.Type),
		Source:       rec.Source,
		Type:         rec.Type,
		Topics:       append([]string{}, topics...),
		Score:        rec.Tier1.BulkScore,
		DiscoveredAt: at,
		Metadata:     metadata(rec.DiscoveredItem),
	}, true
}

func metadata(item domain.DiscoveredItem) map[string]any {
	meta := make(map[string]any)
	raw := item.RawMetadata

	copyKey := func(key string) {
		if v, ok := raw[key]; ok {
			meta[key] = v
		}
	}

	switch item.Type {
	case domain.ItemTypePaper:
		copyKey(metaArXivID)

		if year, ok := ArXivYear(item.URL); ok {
			meta[metaYear] = year
		}
	case domain.ItemTypeRepo:
		copyKey(metaStars)
		copyKey(metaLanguage)
	case domain.ItemTypeVideo:
		copyKey(metaChannel)
	}

	if len(meta) == 0 {
		return nil
	}

	return meta
}

// ArXivYear derives the submission year from an arXiv URL. Two-digit year
// prefixes below 50 are 20xx, the rest 19xx.
func ArXivYear(u string) (int, bool) {
	m := arxivYearPattern.FindStringSubmatch(u)
	if m == nil {
		return 0, false
	}

	yy, err := strconv.Atoi(m[1][:2])
	if err != nil {
		return 0, false
	}

	if yy < 50 {
		return 2000 + yy, true
	}

	return 1900 + yy, true
}

// NewSince returns resources in l discovered on or after the given day.
func NewSince(l domain.ResourceList, day time.Time) []domain.Resource {
	var out []domain.Resource

	start := day.UTC().Truncate(24 * time.Hour)

	for _, c := range domain.ResourceCategories {
		for _, r := range l.Category(c) {
			if !r.DiscoveredAt.Before(start) {
				out = append(out, r)
			}
		}
	}

	return out
}

// Summary renders per-category counts, e.g. "papers=3 repos=1".
func Summary(l domain.ResourceList) string {
	parts := make([]string, 0, len(domain.ResourceCategories))

	for _, c := range domain.ResourceCategories {
		parts = append(parts, string(c)+"="+strconv.Itoa(len(l.Category(c))))
	}

	return strings.Join(parts, " ")
}
