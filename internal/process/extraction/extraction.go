// Package extraction obtains extended content for escalated items, choosing
// a strategy by item type.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/core/links"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
)

const (
	DefaultMaxChars = 15000

	outcomeOK    = "ok"
	outcomeEmpty = "empty"
	outcomeError = "error"

	logKeyItem = "item_id"
	logKeyURL  = "url"
)

// PageFetcher fetches raw page bytes.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// ArticleService extracts article bodies through a hosted API.
type ArticleService interface {
	Available() bool
	Extract(ctx context.Context, rawURL string) (string, error)
}

// Extractor dispatches on item type.
type Extractor struct {
	fetcher   PageFetcher
	articles  ArticleService
	maxChars  int
	arxivBase string
	videoBase string
	logger    *zerolog.Logger
}

// New creates an Extractor. articles may be nil, in which case article
// bodies come from direct fetching with reader-mode extraction.
func New(fetcher PageFetcher, articles ArticleService, maxChars int, logger *zerolog.Logger) *Extractor {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Extractor{
		fetcher:   fetcher,
		articles:  articles,
		maxChars:  maxChars,
		arxivBase: defaultArXivBase,
		videoBase: defaultTimedTextURL,
		logger:    logger,
	}
}

// Extract returns the item's extended content truncated to the configured
// budget. ErrEmptyContent means the item should be skipped.
func (e *Extractor) Extract(ctx context.Context, item domain.ScoredItem) (string, error) {
	var (
		content string
		err     error
	)

	switch item.Type {
	case domain.ItemTypePaper:
		content, err = e.paper(ctx, item.DiscoveredItem)
	case domain.ItemTypeVideo:
		content, err = e.transcript(ctx, item.DiscoveredItem)
	case domain.ItemTypeRepo:
		content = item.Summary
	default:
		content, err = e.article(ctx, item.URL)
	}

	content = strings.TrimSpace(content)
	if err == nil && content == "" {
		err = apperrors.ErrEmptyContent
	}

	if err != nil {
		outcome := outcomeError
		if errors.Is(err, apperrors.ErrEmptyContent) {
			outcome = outcomeEmpty
		}

		observability.ExtractionResults.WithLabelValues(string(item.Type), outcome).Inc()
		e.logger.Info().Err(err).Str(logKeyItem, item.ID).Str(logKeyURL, item.URL).Msg("extraction yielded no content")

		return "", fmt.Errorf("extract %s: %w", item.Type, errors.Join(apperrors.ErrEmptyContent, err))
	}

	observability.ExtractionResults.WithLabelValues(string(item.Type), outcomeOK).Inc()

	return links.Truncate(content, e.maxChars), nil
}

func (e *Extractor) article(ctx context.Context, rawURL string) (string, error) {
	if e.articles != nil && e.articles.Available() {
		content, err := e.articles.Extract(ctx, rawURL)
		if err == nil && strings.TrimSpace(content) != "" {
			return content, nil
		}

		e.logger.Debug().Err(err).Str(logKeyURL, rawURL).Msg("hosted extraction failed, fetching directly")
	}

	body, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch article: %w", err)
	}

	wc, err := links.ExtractWebContent(body, rawURL, 0)
	if err != nil {
		return "", err
	}

	return wc.Content, nil
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return strings.TrimSpace(v)
	}

	return ""
}
