// Package normalize converts raw source records into DiscoveredItem values.
package normalize

import (
	"crypto/md5" //nolint:gosec // identifier derivation, not security
	"encoding/hex"
	"maps"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/core/links"
	"github.com/0xhubed/agent-engineering/internal/platform/htmlutils"
	"github.com/0xhubed/agent-engineering/internal/sources"
)

const (
	// MaxSummaryChars bounds the normalized summary length in runes.
	MaxSummaryChars = 500

	idHashChars = 8

	metaKeyPublished = "published"
)

// Normalizer shapes raw records into the single item form used downstream.
type Normalizer struct {
	logger *zerolog.Logger
}

func New(logger *zerolog.Logger) *Normalizer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Normalizer{logger: logger}
}

// Normalize converts records in order. Records without a URL are dropped.
func (n *Normalizer) Normalize(records []sources.RawRecord) []domain.DiscoveredItem {
	items := make([]domain.DiscoveredItem, 0, len(records))

	for _, r := range records {
		item, ok := Item(r)
		if !ok {
			n.logger.Debug().Str("source", r.Source).Str("title", r.Title).Msg("dropping record without url")
			continue
		}

		items = append(items, item)
	}

	return items
}

// Item normalizes a single record. It reports false when the record has no URL.
func Item(r sources.RawRecord) (domain.DiscoveredItem, bool) {
	u := strings.TrimSpace(r.URL)
	if u == "" {
		return domain.DiscoveredItem{}, false
	}

	meta := maps.Clone(r.Metadata)

	if published, ok := parsePublished(r.Published); ok {
		if meta == nil {
			meta = make(map[string]any, 1)
		}

		meta[metaKeyPublished] = published.UTC().Format(time.RFC3339)
	}

	return domain.DiscoveredItem{
		ID:          ItemID(r.Source, r.ExternalID, u),
		Type:        domain.ParseItemType(r.Type),
		Title:       CleanText(r.Title),
		URL:         u,
		Source:      r.Source,
		Summary:     links.Truncate(CleanText(htmlutils.StripTags(r.Summary)), MaxSummaryChars),
		RawMetadata: meta,
	}, true
}

// ItemID derives a stable identifier: "<source>-<external id>" when the source
// supplies one, otherwise "<source>-" followed by the first 8 hex chars of md5(url).
func ItemID(source, externalID, rawURL string) string {
	if id := strings.TrimSpace(externalID); id != "" {
		return source + "-" + id
	}

	sum := md5.Sum([]byte(rawURL)) //nolint:gosec // identifier derivation, not security

	return source + "-" + hex.EncodeToString(sum[:])[:idHashChars]
}

// CleanText applies NFC normalization and collapses all whitespace runs.
func CleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func parsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}
