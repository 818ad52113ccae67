package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/output/notify"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
	"github.com/0xhubed/agent-engineering/internal/process/resources"
)

// ResourcesOptions controls a resource promotion run. Zero values fall back
// to the configured defaults. Out receives the preview on dry runs.
type ResourcesOptions struct {
	Weeks    int
	MinScore float64
	DryRun   bool
	Out      io.Writer
}

// ResourcesResult reports a promotion run. Path is empty on dry runs.
type ResourcesResult struct {
	Outcome  resources.Outcome
	Path     string
	Recorded int
}

// RunResources promotes high-scoring analyzed items into the resource list.
func (a *App) RunResources(ctx context.Context, opts ResourcesOptions) (ResourcesResult, error) {
	if opts.Weeks <= 0 {
		opts.Weeks = a.cfg.SuggestWeeks
	}

	if opts.MinScore <= 0 {
		opts.MinScore = a.cfg.ResourceMinScore
	}

	if err := a.require(config.StageResources, config.Requirements{DryRun: opts.DryRun}); err != nil {
		return ResourcesResult{}, err
	}

	run := a.begin(config.StageResources, domain.WeekString(a.now()), opts.DryRun)

	res, err := a.promote(ctx, run, opts)

	var summary *notify.Summary

	if err == nil && len(res.Outcome.Added) > 0 {
		summary = &notify.Summary{
			Stats: []notify.Stat{
				stat("added", "%d", len(res.Outcome.Added)),
				stat("duplicates", "%d", res.Outcome.SkippedDuplicate),
				stat("below score", "%d", res.Outcome.SkippedLowScore),
			},
			Notes: []string{resources.Summary(res.Outcome.List)},
		}
	}

	stats := map[string]int{
		"added":             len(res.Outcome.Added),
		"skipped_duplicate": res.Outcome.SkippedDuplicate,
		"skipped_low_score": res.Outcome.SkippedLowScore,
		"recorded":          res.Recorded,
	}

	return res, a.finish(ctx, run, stats, summary, err)
}

func (a *App) promote(ctx context.Context, run *stageRun, opts ResourcesOptions) (ResourcesResult, error) {
	logger := &run.logger

	dives, err := a.store.LoadRecentDeepDives(opts.Weeks)
	if err != nil {
		return ResourcesResult{}, fmt.Errorf("loading deep dives: %w", err)
	}

	var records []domain.AnalysisRecord
	for _, d := range dives {
		records = append(records, d.Analyses...)
	}

	existing, err := a.store.LoadResources()
	if err != nil {
		return ResourcesResult{}, fmt.Errorf("loading resources: %w", err)
	}

	promoter := resources.New(opts.MinScore, a.cfg.ResourceMaxPerCategory, a.now, logger)
	outcome := promoter.Promote(records, existing, a.exclusions(ctx, existing))

	res := ResourcesResult{Outcome: outcome}

	if opts.DryRun {
		return res, preview(opts.Out, outcome)
	}

	if len(outcome.Added) == 0 {
		logger.Info().Msg("no new resources, leaving resource list unchanged")
		return res, nil
	}

	res.Path, err = a.store.SaveResources(outcome.List)
	if err != nil {
		return ResourcesResult{}, err
	}

	if a.ledger != nil {
		res.Recorded, err = a.ledger.RecordPromoted(ctx, outcome.Added)
		if err != nil {
			logger.Warn().Err(err).Msg("recording promoted URLs in ledger failed")
		}
	}

	logger.Info().Str(logKeyPath, res.Path).Str("totals", resources.Summary(outcome.List)).Msg("resource list written")

	return res, nil
}

// preview prints what a promotion would add without saving it.
func preview(out io.Writer, outcome resources.Outcome) error {
	if out == nil {
		out = os.Stdout
	}

	if _, err := fmt.Fprintf(out, "Would add %d resources (%s)\n", len(outcome.Added), resources.Summary(outcome.List)); err != nil {
		return fmt.Errorf("printing preview: %w", err)
	}

	// entries dropped by the per-category cap are not listed
	for _, r := range resources.NewSince(outcome.List, *outcome.List.LastUpdated) {
		if _, err := fmt.Fprintf(out, "  [%s] %s (%.1f)\n    %s\n", r.Category, r.Title, r.Score, r.URL); err != nil {
			return fmt.Errorf("printing preview: %w", err)
		}
	}

	return nil
}
