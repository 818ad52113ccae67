// Package deepdive runs the Tier 2 analysis over escalated items.
package deepdive

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/core/llm"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
)

const (
	DefaultConcurrency  = 2
	DefaultContentChars = 12000

	// FailedContribution marks the key contribution of a failed analysis.
	FailedContribution = "Analysis failed"

	tier2TokensPerItem = 4500
	tier2CostPerMTok   = 5.0

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeSkipped = "skipped"

	logKeyItem = "item_id"
	logKeyURL  = "url"
)

// ContentExtractor yields the extended content of an item.
type ContentExtractor interface {
	Extract(ctx context.Context, item domain.ScoredItem) (string, error)
}

type Config struct {
	Concurrency  int
	ContentChars int
	TopicPages   map[string]string
}

type Analyzer struct {
	client    llm.Client
	extractor ContentExtractor
	cfg       Config
	logger    *zerolog.Logger
}

func New(client llm.Client, extractor ContentExtractor, cfg Config, logger *zerolog.Logger) *Analyzer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	if cfg.ContentChars <= 0 {
		cfg.ContentChars = DefaultContentChars
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Analyzer{client: client, extractor: extractor, cfg: cfg, logger: logger}
}

// Outcome separates analyzed items from those skipped for lack of content.
// Both keep the input order.
type Outcome struct {
	Analyzed []domain.AnalyzedItem
	Skipped  []domain.ScoredItem
}

type slot struct {
	item     domain.AnalyzedItem
	analyzed bool
}

// Analyze extracts content and requests a deep analysis for every item.
// Failed analyses carry an error marker; they are never dropped.
func (a *Analyzer) Analyze(ctx context.Context, items []domain.ScoredItem) Outcome {
	slots := make([]slot, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)

	for i, it := range items {
		g.Go(func() error {
			slots[i] = a.analyzeOne(gctx, it)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // items degrade to markers and never return errors

	out := Outcome{Analyzed: []domain.AnalyzedItem{}, Skipped: []domain.ScoredItem{}}

	for i, s := range slots {
		if s.analyzed {
			out.Analyzed = append(out.Analyzed, s.item)
		} else {
			out.Skipped = append(out.Skipped, items[i])
		}
	}

	return out
}

func (a *Analyzer) analyzeOne(ctx context.Context, item domain.ScoredItem) slot {
	logger := a.logger.With().Str(logKeyItem, item.ID).Str(logKeyURL, item.URL).Logger()

	content, err := a.extractor.Extract(ctx, item)
	if err != nil {
		if !errors.Is(err, apperrors.ErrEmptyContent) {
			logger.Warn().Err(err).Msg("extraction failed")
		}

		observability.Tier2Analyses.WithLabelValues(outcomeSkipped).Inc()
		logger.Info().Msg("skipping deep analysis, no content")

		return slot{}
	}

	analyzed := domain.AnalyzedItem{ScoredItem: item, ContentLength: len([]rune(content))}

	text, err := a.client.Complete(ctx, llm.TaskTypeDeepAnalysis, a.buildPrompt(item, content))
	if err == nil {
		analyzed.DeepDive, err = parseAnalysis(text)
	}

	if err != nil {
		observability.Tier2Analyses.WithLabelValues(outcomeFailure).Inc()
		logger.Warn().Err(err).Msg("deep analysis failed, keeping error marker")

		analyzed.DeepDive = FailedAnalysis(err)

		return slot{item: analyzed, analyzed: true}
	}

	observability.Tier2Analyses.WithLabelValues(outcomeSuccess).Inc()

	return slot{item: analyzed, analyzed: true}
}

// FailedAnalysis builds the marker stored in place of analysis fields.
func FailedAnalysis(err error) domain.DeepAnalysis {
	return domain.DeepAnalysis{
		KeyContribution:       FailedContribution,
		Techniques:            []domain.Technique{},
		CodeSnippets:          []domain.CodeSnippet{},
		PracticalApplications: []string{},
		SiteRelevance:         domain.SiteRelevance{Topics: []string{}, SuggestedUpdates: []domain.SuggestedUpdate{}},
		Error:                 err.Error(),
	}
}

// EstimateCost is the planning cost of analyzing n items.
func EstimateCost(n int) float64 {
	return float64(n) * tier2TokensPerItem / 1e6 * tier2CostPerMTok
}
