package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/platform/config"
)

const (
	defaultArXivAPI      = "http://export.arxiv.org/api/query"
	arxivAbsBase         = "https://arxiv.org/abs/"
	defaultArXivLookback = 72 * time.Hour
	defaultArXivResults  = 50
)

var (
	arxivIDPattern      = regexp.MustCompile(`abs/([^/?#]+)`)
	arxivVersionPattern = regexp.MustCompile(`v\d+$`)
)

// ArXiv queries the preprint API for recent submissions in the configured
// categories.
type ArXiv struct {
	client  HTTPClient
	baseURL string
	cfg     config.ArXivCatalog
	now     func() time.Time
	parser  *gofeed.Parser
	logger  *zerolog.Logger
}

func NewArXiv(client HTTPClient, cfg config.ArXivCatalog, now func() time.Time, logger *zerolog.Logger) *ArXiv {
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultArXivLookback
	}

	if cfg.MaxResults <= 0 {
		cfg.MaxResults = defaultArXivResults
	}

	return &ArXiv{
		client:  client,
		baseURL: defaultArXivAPI,
		cfg:     cfg,
		now:     now,
		parser:  gofeed.NewParser(),
		logger:  logger,
	}
}

func (a *ArXiv) Name() string { return SourceArXiv }

func (a *ArXiv) Fetch(ctx context.Context) ([]RawRecord, error) {
	params := url.Values{}
	params.Set("search_query", a.cfg.Query())
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(a.cfg.MaxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	body, err := a.client.Fetch(ctx, a.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch arxiv feed: %w", err)
	}

	feed, err := a.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w", err)
	}

	cutoff := a.now().Add(-a.cfg.Lookback)
	records := make([]RawRecord, 0, len(feed.Items))

	for _, item := range feed.Items {
		if olderThan(item.PublishedParsed, cutoff) {
			continue
		}

		id := ArXivID(coalesceStr(item.GUID, item.Link))
		if id == "" {
			a.logger.Debug().Str("link", item.Link).Msg("arxiv entry without id")
			continue
		}

		authors := make([]string, 0, len(item.Authors))
		for _, p := range item.Authors {
			authors = append(authors, p.Name)
		}

		records = append(records, RawRecord{
			Source:     SourceArXiv,
			ExternalID: id,
			Type:       "paper",
			Title:      item.Title,
			URL:        arxivAbsBase + id,
			Summary:    item.Description,
			Published:  item.Published,
			Metadata: map[string]any{
				metaKeyArXivID:  id,
				metaKeyCategory: item.Categories,
				metaKeyAuthors:  authors,
			},
		})
	}

	return dedupByURL(records), nil
}

// ArXivID extracts the versionless identifier from an abs URL.
func ArXivID(link string) string {
	m := arxivIDPattern.FindStringSubmatch(link)
	if m == nil {
		return ""
	}

	return arxivVersionPattern.ReplaceAllString(m[1], "")
}

func coalesceStr(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}
