// Package dedup collapses items sharing a canonical URL, within a run and
// against URLs seen in earlier runs.
package dedup

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
)

// Log key constants for deduplication.
const (
	logKeySkippedURL = "skipped_url"
	logKeyReason     = "reason"

	reasonDuplicate = "duplicate"
	reasonExcluded  = "excluded"
)

// Canonical returns the identity form of a URL: trimmed, scheme and host
// lower-cased, fragment removed. The query string is kept. Unparseable input
// is returned trimmed.
func Canonical(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	return u.String()
}

// ExclusionSet holds canonical URLs that must not re-enter the pipeline.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds a set from any number of URL lists.
func NewExclusionSet(lists ...[]string) ExclusionSet {
	set := make(ExclusionSet)

	for _, list := range lists {
		set.Add(list...)
	}

	return set
}

func (s ExclusionSet) Add(urls ...string) {
	for _, u := range urls {
		if c := Canonical(u); c != "" {
			s[c] = struct{}{}
		}
	}
}

func (s ExclusionSet) Contains(u string) bool {
	_, ok := s[Canonical(u)]
	return ok
}

func (s ExclusionSet) Len() int { return len(s) }

// Result reports a deduplication pass.
type Result[T domain.URLKeyed] struct {
	Items      []T
	Duplicates int
	Excluded   int
}

// ByURL keeps the first item for each canonical URL, in input order, and
// drops items whose URL is in exclude. exclude may be nil.
func ByURL[T domain.URLKeyed](items []T, exclude ExclusionSet, logger *zerolog.Logger) Result[T] {
	res := Result[T]{Items: make([]T, 0, len(items))}
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		key := Canonical(item.GetURL())

		if _, ok := exclude[key]; ok {
			res.Excluded++

			logSkip(logger, key, reasonExcluded)

			continue
		}

		if _, ok := seen[key]; ok {
			res.Duplicates++

			logSkip(logger, key, reasonDuplicate)

			continue
		}

		seen[key] = struct{}{}
		res.Items = append(res.Items, item)
	}

	observability.ItemsDeduplicated.WithLabelValues(reasonDuplicate).Add(float64(res.Duplicates))
	observability.ItemsDeduplicated.WithLabelValues(reasonExcluded).Add(float64(res.Excluded))

	return res
}

// Unique is ByURL without an exclusion set, returning only the items.
func Unique[T domain.URLKeyed](items []T) []T {
	return ByURL(items, nil, nil).Items
}

func logSkip(logger *zerolog.Logger, u, reason string) {
	if logger == nil {
		return
	}

	logger.Debug().Str(logKeySkippedURL, u).Str(logKeyReason, reason).Msg("Skipping item")
}
