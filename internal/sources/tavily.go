package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/core/links"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
)

const (
	defaultTavilyBaseURL = "https://api.tavily.com"
	tavilySearchPath     = "/search"
	tavilyExtractPath    = "/extract"
	tavilySummaryChars   = 500
)

type tavilySearchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilySearchResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

type tavilyExtractRequest struct {
	APIKey string   `json:"api_key"`
	URLs   []string `json:"urls"`
}

type tavilyExtractResponse struct {
	Results []struct {
		URL        string `json:"url"`
		RawContent string `json:"raw_content"`
	} `json:"results"`
}

// Tavily searches the web index for each configured query. It also exposes
// the extract endpoint used for article bodies.
type Tavily struct {
	client  HTTPClient
	baseURL string
	apiKey  string
	cfg     config.TavilyCatalog
	logger  *zerolog.Logger
}

func NewTavily(client HTTPClient, baseURL, apiKey string, cfg config.TavilyCatalog, logger *zerolog.Logger) *Tavily {
	if baseURL == "" {
		baseURL = defaultTavilyBaseURL
	}

	return &Tavily{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		cfg:     cfg,
		logger:  logger,
	}
}

func (t *Tavily) Name() string { return SourceTavily }

// Available reports whether an API key is configured.
func (t *Tavily) Available() bool { return t.apiKey != "" }

func (t *Tavily) Fetch(ctx context.Context) ([]RawRecord, error) {
	if !t.Available() {
		return nil, fmt.Errorf("%w: TAVILY_API_KEY", apperrors.ErrMissingCredential)
	}

	var records []RawRecord

	for _, query := range t.cfg.Queries {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}

		var resp tavilySearchResponse

		err := t.client.PostJSON(ctx, t.baseURL+tavilySearchPath, tavilySearchRequest{
			APIKey:      t.apiKey,
			Query:       query,
			SearchDepth: t.cfg.SearchDepth,
			MaxResults:  t.cfg.MaxResults,
		}, &resp)
		if err != nil {
			t.logger.Warn().Err(err).Str(metaKeyQuery, query).Msg("tavily search failed")
			continue
		}

		for _, r := range resp.Results {
			records = append(records, RawRecord{
				Source:    SourceTavily,
				Type:      "article",
				Title:     r.Title,
				URL:       r.URL,
				Summary:   links.Truncate(r.Content, tavilySummaryChars),
				Published: r.PublishedDate,
				Metadata: map[string]any{
					metaKeyQuery: query,
					metaKeyScore: r.Score,
				},
			})
		}
	}

	return dedupByURL(records), nil
}

// Extract returns the raw page content Tavily extracts for rawURL.
func (t *Tavily) Extract(ctx context.Context, rawURL string) (string, error) {
	if !t.Available() {
		return "", fmt.Errorf("%w: TAVILY_API_KEY", apperrors.ErrMissingCredential)
	}

	var resp tavilyExtractResponse

	err := t.client.PostJSON(ctx, t.baseURL+tavilyExtractPath, tavilyExtractRequest{
		APIKey: t.apiKey,
		URLs:   []string{rawURL},
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("tavily extract: %w", err)
	}

	for _, r := range resp.Results {
		if content := strings.TrimSpace(r.RawContent); content != "" {
			return content, nil
		}
	}

	return "", apperrors.ErrEmptyContent
}
