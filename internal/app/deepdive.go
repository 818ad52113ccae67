package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/output/notify"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
	"github.com/0xhubed/agent-engineering/internal/process/dedup"
	"github.com/0xhubed/agent-engineering/internal/process/deepdive"
	"github.com/0xhubed/agent-engineering/internal/process/escalation"
	"github.com/0xhubed/agent-engineering/internal/process/extraction"
	"github.com/0xhubed/agent-engineering/internal/process/scoring"
	"github.com/0xhubed/agent-engineering/internal/sources"
	db "github.com/0xhubed/agent-engineering/internal/storage"
	"github.com/0xhubed/agent-engineering/internal/storage/artifacts"
)

// DeepDiveOptions controls a weekly deep-dive run. An empty Week means the
// current ISO week; a positive Limit caps the candidates after ranking.
type DeepDiveOptions struct {
	Week        string
	Limit       int
	Tier1Only   bool
	ReuseScores bool
	DryRun      bool
}

// DeepDiveResult is the written week artifact.
type DeepDiveResult struct {
	DeepDive artifacts.DeepDive
	Path     string
	Reused   int
}

// RunDeepDive re-scores the week's research findings and escalates the most
// promising ones to Tier 2 analysis.
func (a *App) RunDeepDive(ctx context.Context, opts DeepDiveOptions) (DeepDiveResult, error) {
	week := opts.Week
	if week == "" {
		week = domain.WeekString(a.now())
	}

	monday, err := domain.ParseWeek(week, time.UTC)
	if err != nil {
		return DeepDiveResult{}, err
	}

	req := config.Requirements{DryRun: opts.DryRun, Rescore: !opts.ReuseScores, Tier1Only: opts.Tier1Only}
	if err := a.require(config.StageDeepDive, req); err != nil {
		return DeepDiveResult{}, err
	}

	run := a.begin(config.StageDeepDive, week, opts.DryRun)

	res, err := a.deepDive(ctx, run, monday, opts)

	var summary *notify.Summary

	if err == nil {
		st := res.DeepDive.Stats
		summary = &notify.Summary{
			Stats: []notify.Stat{
				stat("tier 1 items", "%d", st.Tier1Items),
				stat("tier 2 items", "%d", st.Tier2Items),
				stat("tier 2 skipped", "%d", st.Tier2Skipped),
				stat("estimated cost", "$%.4f", st.TotalCostUSD),
			},
		}

		if res.Reused > 0 {
			summary.Notes = append(summary.Notes, fmt.Sprintf("%d analyses reused from the previous run", res.Reused))
		}

		if note := a.weekSpendNote(ctx, monday); note != "" {
			summary.Notes = append(summary.Notes, note)
		}

		if note := a.usageNote(); note != "" {
			summary.Notes = append(summary.Notes, note)
		}
	}

	return res, a.finish(ctx, run, res.DeepDive.Stats, summary, err)
}

func (a *App) deepDive(ctx context.Context, run *stageRun, monday time.Time, opts DeepDiveOptions) (DeepDiveResult, error) {
	logger := &run.logger

	var findings []domain.ScoredItem
	for _, r := range a.store.LoadResearchDays(domain.WeekDays(monday)) {
		findings = append(findings, r.Findings...)
	}

	existingResources, err := a.store.LoadResources()
	if err != nil {
		return DeepDiveResult{}, fmt.Errorf("loading resources: %w", err)
	}

	exclude := a.exclusions(ctx, existingResources)
	candidates := dedup.ByURL(findings, exclude, logger).Items

	ranked := escalation.Rank(candidates)
	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}

	logger.Info().Int("findings", len(findings)).Int("candidates", len(ranked)).Msg("week collected")

	client := a.client(opts.DryRun)

	tier1 := ranked
	tier1Cost := 0.0

	if !opts.ReuseScores && len(ranked) > 0 {
		discovered := make([]domain.DiscoveredItem, len(ranked))
		for i, it := range ranked {
			discovered[i] = it.DiscoveredItem
		}

		tier1 = a.scorer(client, logger).Score(ctx, discovered)
		tier1Cost = scoring.EstimateTier1Cost(len(tier1))
	}

	previous, err := a.store.LoadDeepDive(run.key)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return DeepDiveResult{}, fmt.Errorf("loading previous deep dive: %w", err)
	}

	done := reusableAnalyses(previous)

	var (
		deep    []domain.AnalysisRecord
		pending []domain.ScoredItem
	)

	for _, it := range tier1 {
		if prev, ok := done[dedup.Canonical(it.URL)]; ok {
			deep = append(deep, domain.AnalysisRecord{ScoredItem: it, DeepDive: prev.DeepDive, ContentLength: prev.ContentLength})
			continue
		}

		pending = append(pending, it)
	}

	deep = append(deep, carriedAnalyses(previous, tier1, exclude)...)

	reused := len(deep)
	skipped := 0
	analyzed := 0

	if !opts.Tier1Only {
		gated := scoring.Gate(pending, a.cfg.RelevanceGate)
		selected := escalation.Select(escalation.Rank(gated), a.cfg.Tier2Threshold, a.cfg.MaxTier2Items)

		logger.Info().Int("gated", len(gated)).Int("selected", len(selected)).Int("reused", reused).Msg("escalation selected")

		analyzer := deepdive.New(client, a.extractor(opts.DryRun, logger), deepdive.Config{
			Concurrency:  a.cfg.Tier2Concurrency,
			ContentChars: a.cfg.Tier2ContentChars,
			TopicPages:   a.catalog.TopicPages,
		}, logger)

		outcome := analyzer.Analyze(ctx, selected)
		for _, it := range outcome.Analyzed {
			deep = append(deep, domain.RecordFromAnalyzed(it))
		}

		analyzed = len(outcome.Analyzed)
		skipped = len(outcome.Skipped)
	}

	tier2Cost := deepdive.EstimateCost(analyzed)

	artifact := artifacts.DeepDive{
		Week:        run.key,
		RunID:       run.id.String(),
		GeneratedAt: a.now().UTC(),
		Processed:   len(tier1),
		Stats: artifacts.DeepDiveStats{
			Tier1Items:   len(tier1),
			Tier2Items:   len(deep),
			Tier2Skipped: skipped,
			Tier1CostUSD: roundCost(tier1Cost),
			Tier2CostUSD: roundCost(tier2Cost),
			TotalCostUSD: roundCost(tier1Cost + tier2Cost),
		},
		Analyses: orderAnalyses(deep, tier1),
	}

	path, err := a.store.SaveDeepDive(artifact)
	if err != nil {
		return DeepDiveResult{}, err
	}

	logger.Info().Str(logKeyPath, path).Int("analyses", len(artifact.Analyses)).Msg("deep-dive artifact written")

	return DeepDiveResult{DeepDive: artifact, Path: path, Reused: reused}, nil
}

// reusableAnalyses indexes the successful deep dives of a previous run by
// canonical URL. Error-marked analyses are left out so they are retried.
func reusableAnalyses(previous *artifacts.DeepDive) map[string]domain.AnalysisRecord {
	done := make(map[string]domain.AnalysisRecord)
	if previous == nil {
		return done
	}

	for _, rec := range previous.Analyses {
		if rec.DeepDive == nil || rec.DeepDive.Failed() {
			continue
		}

		done[dedup.Canonical(rec.URL)] = rec
	}

	return done
}

// carriedAnalyses returns previous successful analyses whose items are not
// among this run's candidates, so a narrower re-run keeps recorded work.
// Items excluded since the previous run are dropped.
func carriedAnalyses(previous *artifacts.DeepDive, tier1 []domain.ScoredItem, exclude dedup.ExclusionSet) []domain.AnalysisRecord {
	if previous == nil {
		return nil
	}

	seen := dedup.NewExclusionSet(urlsOf(tier1))

	var carried []domain.AnalysisRecord

	for _, rec := range previous.Analyses {
		if rec.DeepDive == nil || rec.DeepDive.Failed() || seen.Contains(rec.URL) || exclude.Contains(rec.URL) {
			continue
		}

		seen.Add(rec.URL)
		carried = append(carried, rec)
	}

	return carried
}

// orderAnalyses puts deep-dived records first, then Tier-1-only items, each
// group sorted by bulk score descending.
func orderAnalyses(deep []domain.AnalysisRecord, tier1 []domain.ScoredItem) []domain.AnalysisRecord {
	analyzed := dedup.NewExclusionSet(urlsOf(deep))

	var rest []domain.AnalysisRecord

	for _, it := range tier1 {
		if !analyzed.Contains(it.URL) {
			rest = append(rest, domain.AnalysisRecord{ScoredItem: it})
		}
	}

	byBulk := func(x, y domain.AnalysisRecord) int {
		return cmp.Compare(y.Tier1.BulkScore, x.Tier1.BulkScore)
	}

	deep = slices.Clone(deep)
	slices.SortStableFunc(deep, byBulk)
	slices.SortStableFunc(rest, byBulk)

	return append(deep, rest...)
}

func (a *App) extractor(dryRun bool, logger *zerolog.Logger) deepdive.ContentExtractor {
	if dryRun {
		return placeholderExtractor{}
	}

	articles := sources.NewTavily(a.http, a.cfg.TavilyBaseURL, a.cfg.TavilyAPIKey, a.catalog.Tavily, logger)

	return extraction.New(a.http, articles, a.cfg.ExtractMaxChars, logger)
}

// weekSpendNote reports the ledger's metered spend since monday.
func (a *App) weekSpendNote(ctx context.Context, monday time.Time) string {
	if a.ledger == nil {
		return ""
	}

	usages, err := a.ledger.LLMUsageSince(ctx, monday)
	if err != nil {
		a.logger.Warn().Err(err).Msg("loading LLM usage from ledger failed")
		return ""
	}

	if len(usages) == 0 {
		return ""
	}

	return fmt.Sprintf("LLM spend this week: $%.4f", db.TotalCost(usages))
}

// placeholderExtractor stands in for content extraction on dry runs.
type placeholderExtractor struct{}

func (placeholderExtractor) Extract(_ context.Context, item domain.ScoredItem) (string, error) {
	if item.Summary != "" {
		return item.Summary, nil
	}

	return "[dry-run] extended content for " + item.Title, nil
}
