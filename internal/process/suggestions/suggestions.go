// Package suggestions turns deep analyses into ranked, confidence-gated
// content suggestions.
package suggestions

import (
	"cmp"
	"regexp"
	"slices"

	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
	"github.com/0xhubed/agent-engineering/internal/process/confidence"
)

const (
	DefaultThreshold = 0.7
	DefaultMax       = 10

	// UnknownTopic groups suggestions whose page is not under /topics/<name>/.
	UnknownTopic = "unknown"
)

var topicPattern = regexp.MustCompile(`/topics/([^/]+)/`)

// Scored pairs an analyzed item with its confidence.
type Scored struct {
	Item       domain.AnalyzedItem
	Confidence float64
}

// Result is the output of Extract.
type Result struct {
	Passed      []Scored
	Skipped     []domain.LowConfidenceItem
	Suggestions []domain.Suggestion
}

// Group is the suggestions for one topic, in global rank order.
type Group struct {
	Topic       string
	Suggestions []domain.Suggestion
}

// Extractor applies the threshold and cap.
type Extractor struct {
	threshold float64
	max       int
	logger    *zerolog.Logger
}

func New(threshold float64, maxSuggestions int, logger *zerolog.Logger) *Extractor {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Extractor{threshold: threshold, max: maxSuggestions, logger: logger}
}

// Extract scores items, drops those below the threshold, ranks the rest by
// confidence (stable) and flattens their suggested updates until the cap is
// reached.
func (e *Extractor) Extract(items []domain.AnalyzedItem) Result {
	res := Result{Passed: []Scored{}, Skipped: []domain.LowConfidenceItem{}, Suggestions: []domain.Suggestion{}}

	for _, it := range items {
		c := confidence.Score(it)

		if c < e.threshold {
			e.logger.Info().
				Str("item_id", it.ID).
				Str("title", it.Title).
				Float64("confidence", c).
				Float64("threshold", e.threshold).
				Msg("skipping low-confidence item")

			res.Skipped = append(res.Skipped, domain.LowConfidenceItem{ID: it.ID, Title: it.Title, URL: it.URL, Confidence: c})

			continue
		}

		res.Passed = append(res.Passed, Scored{Item: it, Confidence: c})
	}

	slices.SortStableFunc(res.Passed, func(a, b Scored) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})

	for _, s := range res.Passed {
		for _, u := range s.Item.DeepDive.SiteRelevance.SuggestedUpdates {
			if len(res.Suggestions) >= e.max {
				break
			}

			res.Suggestions = append(res.Suggestions, domain.Suggestion{
				Topic:          TopicOf(u.TargetPage),
				TargetPage:     u.TargetPage,
				TargetSection:  u.TargetSection,
				SuggestionText: u.SuggestionText,
				Confidence:     s.Confidence,
				Item:           domain.RefOf(s.Item.DiscoveredItem),
			})
		}
	}

	observability.SuggestionsEmitted.Add(float64(len(res.Suggestions)))

	return res
}

// TopicOf infers the topic from a page path.
func TopicOf(page string) string {
	if m := topicPattern.FindStringSubmatch(page); m != nil {
		return m[1]
	}

	return UnknownTopic
}

// GroupByTopic groups suggestions for presentation. Groups appear in order of
// their first suggestion; order within a group follows the input.
func GroupByTopic(suggestions []domain.Suggestion) []Group {
	var groups []Group

	index := make(map[string]int)

	for _, s := range suggestions {
		i, ok := index[s.Topic]
		if !ok {
			i = len(groups)
			index[s.Topic] = i
			groups = append(groups, Group{Topic: s.Topic})
		}

		groups[i].Suggestions = append(groups[i].Suggestions, s)
	}

	return groups
}
