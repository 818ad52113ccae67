// Package sources fetches raw candidate records from external discovery
// services. Fetchers only produce RawRecord values; normalization and
// deduplication happen downstream.
package sources

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
)

// Source names in collection order. Earlier sources win URL collisions.
const (
	SourceTavily  = config.SourceTavily
	SourceArXiv   = "arxiv"
	SourceYouTube = "youtube"
	SourceGitHub  = "github"
)

// DefaultOrder lists every known source in the order results are merged.
var DefaultOrder = []string{SourceTavily, SourceArXiv, SourceYouTube, SourceGitHub}

const (
	metaKeyQuery     = "query"
	metaKeyScore     = "score"
	metaKeyArXivID   = "arxiv_id"
	metaKeyCategory  = "categories"
	metaKeyAuthors   = "authors"
	metaKeyVideoID   = "video_id"
	metaKeyChannel   = "channel"
	metaKeyChannelID = "channel_id"
	metaKeyTopic     = "topic"
	metaKeyStars     = "stars"
	metaKeyLanguage  = "language"
	metaKeyCreatedAt = "created_at"
	metaKeyTopics    = "topics"

	logKeySource = "source"
)

// RawRecord is a source-specific candidate before normalization. ExternalID,
// when set, is a stable identifier the source itself assigns.
type RawRecord struct {
	Source     string
	ExternalID string
	Type       string
	Title      string
	URL        string
	Summary    string
	Published  string
	Metadata   map[string]any
}

// Fetcher produces raw records for one source.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// HTTPClient is the subset of the rate-limited web fetcher used by sources.
type HTTPClient interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
	PostJSON(ctx context.Context, rawURL string, payload, out any) error
}

// Options controls which fetchers Build creates.
type Options struct {
	Names  []string
	DryRun bool
	Now    func() time.Time
}

// Build creates the fetchers for the requested source names, ordered by
// DefaultOrder. An empty name list selects every source.
func Build(opts Options, cfg *config.Config, catalog *config.Catalog, client HTTPClient, logger *zerolog.Logger) ([]Fetcher, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	names, err := SelectSources(opts.Names)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	fetchers := make([]Fetcher, 0, len(names))

	for _, name := range names {
		if opts.DryRun {
			fetchers = append(fetchers, placeholder{name: name})
			continue
		}

		switch name {
		case SourceTavily:
			fetchers = append(fetchers, NewTavily(client, cfg.TavilyBaseURL, cfg.TavilyAPIKey, catalog.Tavily, logger))
		case SourceArXiv:
			fetchers = append(fetchers, NewArXiv(client, catalog.ArXiv, now, logger))
		case SourceYouTube:
			fetchers = append(fetchers, NewYouTube(client, catalog.YouTube, now, logger))
		case SourceGitHub:
			fetchers = append(fetchers, NewGitHub(cfg.GitHubToken, catalog.GitHub, now, logger))
		}
	}

	return fetchers, nil
}

// SelectSources validates names and returns them in DefaultOrder without duplicates.
func SelectSources(names []string) ([]string, error) {
	if len(names) == 0 {
		return slices.Clone(DefaultOrder), nil
	}

	wanted := make(map[string]bool, len(names))

	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}

		if !slices.Contains(DefaultOrder, n) {
			return nil, fmt.Errorf("%w: %q (known: %s)", apperrors.ErrUnknownSource, n, strings.Join(DefaultOrder, ", "))
		}

		wanted[n] = true
	}

	out := make([]string, 0, len(wanted))

	for _, n := range DefaultOrder {
		if wanted[n] {
			out = append(out, n)
		}
	}

	return out, nil
}

// Collector runs fetchers concurrently and concatenates their output in
// fetcher order.
type Collector struct {
	fetchers []Fetcher
	timeout  time.Duration
	logger   *zerolog.Logger
}

// NewCollector creates a collector. A positive timeout bounds each fetcher.
func NewCollector(fetchers []Fetcher, timeout time.Duration, logger *zerolog.Logger) *Collector {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Collector{fetchers: fetchers, timeout: timeout, logger: logger}
}

// Collect returns all records plus the number of sources that were checked.
// A failing fetcher contributes nothing and never fails the collection.
func (c *Collector) Collect(ctx context.Context) ([]RawRecord, int) {
	results := make([][]RawRecord, len(c.fetchers))

	g, gctx := errgroup.WithContext(ctx)

	for i, f := range c.fetchers {
		g.Go(func() error {
			fctx := gctx

			if c.timeout > 0 {
				var cancel context.CancelFunc

				fctx, cancel = context.WithTimeout(gctx, c.timeout)
				defer cancel()
			}

			records, err := f.Fetch(fctx)
			if err != nil {
				observability.SourceErrors.WithLabelValues(f.Name()).Inc()
				c.logger.Warn().Err(err).Str(logKeySource, f.Name()).Msg("source fetch failed")

				return nil
			}

			observability.ItemsFetched.WithLabelValues(f.Name()).Add(float64(len(records)))
			c.logger.Info().Str(logKeySource, f.Name()).Int("count", len(records)).Msg("source fetched")

			results[i] = records

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines never return errors

	var all []RawRecord
	for _, r := range results {
		all = append(all, r...)
	}

	return all, len(c.fetchers)
}

type placeholder struct {
	name string
}

func (p placeholder) Name() string { return p.name }

func (p placeholder) Fetch(_ context.Context) ([]RawRecord, error) {
	itemType := "article"

	switch p.name {
	case SourceArXiv:
		itemType = "paper"
	case SourceYouTube:
		itemType = "video"
	case SourceGitHub:
		itemType = "repo"
	}

	return []RawRecord{{
		Source:  p.name,
		Type:    itemType,
		Title:   fmt.Sprintf("[dry-run] %s placeholder", p.name),
		URL:     fmt.Sprintf("https://example.com/dry-run/%s", p.name),
		Summary: "Placeholder record produced without contacting the source.",
	}}, nil
}

// dedupByURL keeps the first record for each URL.
func dedupByURL(records []RawRecord) []RawRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0]

	for _, r := range records {
		if r.URL == "" || seen[r.URL] {
			continue
		}

		seen[r.URL] = true
		out = append(out, r)
	}

	return out
}

func olderThan(published *time.Time, cutoff time.Time) bool {
	return published != nil && published.Before(cutoff)
}
