package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/output/notify"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
	"github.com/0xhubed/agent-engineering/internal/process/dedup"
	"github.com/0xhubed/agent-engineering/internal/process/normalize"
	"github.com/0xhubed/agent-engineering/internal/process/scoring"
	"github.com/0xhubed/agent-engineering/internal/sources"
	"github.com/0xhubed/agent-engineering/internal/storage/artifacts"
)

// ScoutOptions controls a scout run. Empty Sources selects every source.
type ScoutOptions struct {
	DryRun  bool
	Sources []string
}

// ScoutResult is the day's research artifact. Path is empty when nothing
// new was found and no artifact was written.
type ScoutResult struct {
	Research artifacts.Research
	Path     string
}

// RunScout fetches candidates, scores the ones not already in today's
// artifact and merges the relevant ones into it.
func (a *App) RunScout(ctx context.Context, opts ScoutOptions) (ScoutResult, error) {
	names, err := sources.SelectSources(opts.Sources)
	if err != nil {
		return ScoutResult{}, err
	}

	if err := a.require(config.StageScout, config.Requirements{DryRun: opts.DryRun, Sources: names}); err != nil {
		return ScoutResult{}, err
	}

	date := a.now().Format(domain.DateLayout)
	run := a.begin(config.StageScout, date, opts.DryRun)

	res, err := a.scout(ctx, run, names, opts.DryRun)

	var summary *notify.Summary

	if err == nil && res.Path != "" {
		st := res.Research.Stats
		summary = &notify.Summary{
			Stats: []notify.Stat{
				stat("sources checked", "%d", st.SourcesChecked),
				stat("items found", "%d", st.ItemsFound),
				stat("items relevant", "%d", st.ItemsRelevant),
				stat("estimated cost", "$%.4f", st.CostUSD),
			},
		}

		if note := a.usageNote(); note != "" {
			summary.Notes = append(summary.Notes, note)
		}
	}

	return res, a.finish(ctx, run, res.Research.Stats, summary, err)
}

func (a *App) scout(ctx context.Context, run *stageRun, names []string, dryRun bool) (ScoutResult, error) {
	logger := &run.logger

	fetchers, err := sources.Build(sources.Options{Names: names, DryRun: dryRun, Now: a.now}, a.cfg, a.catalog, a.http, logger)
	if err != nil {
		return ScoutResult{}, err
	}

	records, checked := sources.NewCollector(fetchers, a.cfg.SourceTimeout, logger).Collect(ctx)
	items := normalize.New(logger).Normalize(records)

	previous, err := a.store.LoadResearch(run.key)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return ScoutResult{}, fmt.Errorf("loading today's research: %w", err)
	}

	var (
		existing  []domain.ScoredItem
		prevStats artifacts.ScoutStats
	)

	if previous != nil {
		existing = previous.Findings
		prevStats = previous.Stats
	}

	fresh := dedup.ByURL(items, dedup.NewExclusionSet(urlsOf(existing)), logger).Items

	logger.Info().
		Int("records", len(records)).
		Int("new_items", len(fresh)).
		Int("already_scored", len(existing)).
		Msg("candidates collected")

	if len(fresh) == 0 {
		logger.Info().Msg("no new items, leaving research artifact unchanged")

		out := artifacts.Research{Date: run.key, Stats: prevStats, Findings: existing}
		if previous != nil {
			out = *previous
		}

		return ScoutResult{Research: out}, nil
	}

	tokens := scoring.EstimateTokens(fresh)
	scored := a.scorer(a.client(dryRun), logger).Score(ctx, fresh)
	relevant := scoring.Gate(scored, a.cfg.RelevanceGate)

	findings := scoring.SortByRelevance(append(slices.Clone(existing), relevant...))

	research := artifacts.Research{
		Date:  run.key,
		RunID: run.id.String(),
		Stats: artifacts.ScoutStats{
			SourcesChecked: checked,
			ItemsFound:     prevStats.ItemsFound + len(fresh),
			ItemsRelevant:  len(findings),
			TokensUsed:     prevStats.TokensUsed + tokens,
			CostUSD:        roundCost(prevStats.CostUSD + scoring.EstimateScoutCost(tokens)),
		},
		Findings: findings,
	}

	path, err := a.store.SaveResearch(research)
	if err != nil {
		return ScoutResult{}, err
	}

	logger.Info().Str(logKeyPath, path).Int("relevant", len(relevant)).Msg("research artifact written")

	return ScoutResult{Research: research, Path: path}, nil
}
