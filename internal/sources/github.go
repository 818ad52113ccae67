package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/platform/config"
)

const (
	defaultGitHubLookback = 30 * 24 * time.Hour
	defaultGitHubPerTopic = 10
	githubDateLayout      = "2006-01-02"
)

// GitHub searches recently created repositories per topic, most starred first.
type GitHub struct {
	client *github.Client
	cfg    config.GitHubCatalog
	now    func() time.Time
	logger *zerolog.Logger
}

func NewGitHub(token string, cfg config.GitHubCatalog, now func() time.Time, logger *zerolog.Logger) *GitHub {
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultGitHubLookback
	}

	if cfg.PerTopic <= 0 {
		cfg.PerTopic = defaultGitHubPerTopic
	}

	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &GitHub{client: client, cfg: cfg, now: now, logger: logger}
}

// withBaseURL points the client at another API root.
func (g *GitHub) withBaseURL(raw string) error {
	u, err := url.Parse(strings.TrimRight(raw, "/") + "/")
	if err != nil {
		return fmt.Errorf("parse github base url: %w", err)
	}

	g.client.BaseURL = u

	return nil
}

func (g *GitHub) Name() string { return SourceGitHub }

func (g *GitHub) Fetch(ctx context.Context) ([]RawRecord, error) {
	since := g.now().Add(-g.cfg.Lookback).Format(githubDateLayout)

	var records []RawRecord

	for _, topic := range g.cfg.Topics {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}

		query := fmt.Sprintf("topic:%s created:>%s", topic, since)

		result, _, err := g.client.Search.Repositories(ctx, query, &github.SearchOptions{
			Sort:        "stars",
			Order:       "desc",
			ListOptions: github.ListOptions{PerPage: g.cfg.PerTopic},
		})
		if err != nil {
			g.logger.Warn().Err(err).Str(metaKeyTopic, topic).Msg("github search failed")
			continue
		}

		for _, repo := range result.Repositories {
			records = append(records, repoRecord(topic, repo))
		}
	}

	return dedupByURL(records), nil
}

func repoRecord(topic string, repo *github.Repository) RawRecord {
	fullName := repo.GetFullName()

	created := ""
	if repo.CreatedAt != nil {
		created = repo.GetCreatedAt().Format(time.RFC3339)
	}

	return RawRecord{
		Source:     SourceGitHub,
		ExternalID: strings.ReplaceAll(fullName, "/", "-"),
		Type:       "repo",
		Title:      fullName,
		URL:        repo.GetHTMLURL(),
		Summary:    repo.GetDescription(),
		Published:  created,
		Metadata: map[string]any{
			metaKeyTopic:     topic,
			metaKeyStars:     repo.GetStargazersCount(),
			metaKeyLanguage:  repo.GetLanguage(),
			metaKeyCreatedAt: created,
			metaKeyTopics:    repo.Topics,
		},
	}
}
