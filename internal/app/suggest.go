package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/output/notify"
	"github.com/0xhubed/agent-engineering/internal/output/report"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
	"github.com/0xhubed/agent-engineering/internal/process/dedup"
	"github.com/0xhubed/agent-engineering/internal/process/suggestions"
	"github.com/0xhubed/agent-engineering/internal/storage/artifacts"
)

// SuggestOptions controls a suggestion run. Zero values fall back to the
// configured defaults. Out receives the report on dry runs (stdout when nil).
type SuggestOptions struct {
	Weeks          int
	MinConfidence  float64
	MaxSuggestions int
	DryRun         bool
	Out            io.Writer
}

// SuggestResult is the suggestion artifact and its rendered report.
type SuggestResult struct {
	Suggestions artifacts.Suggestions
	Report      []byte
	Path        string
}

// RunSuggest turns recent deep analyses into confidence-ranked suggestions.
func (a *App) RunSuggest(ctx context.Context, opts SuggestOptions) (SuggestResult, error) {
	if opts.Weeks <= 0 {
		opts.Weeks = a.cfg.SuggestWeeks
	}

	if opts.MinConfidence <= 0 {
		opts.MinConfidence = a.cfg.MinConfidence
	}

	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = a.cfg.MaxSuggestions
	}

	if err := a.require(config.StageSuggest, config.Requirements{DryRun: opts.DryRun}); err != nil {
		return SuggestResult{}, err
	}

	run := a.begin(config.StageSuggest, domain.WeekString(a.now()), opts.DryRun)

	res, err := a.suggest(run, opts)

	var summary *notify.Summary

	if err == nil {
		st := res.Suggestions.Stats
		summary = &notify.Summary{
			Stats: []notify.Stat{
				stat("sources analyzed", "%d", st.SourcesAnalyzed),
				stat("passed threshold", "%d", st.PassedThreshold),
				stat("suggestions", "%d", st.SuggestionsGenerated),
				stat("threshold", "%.2f", st.ConfidenceThreshold),
			},
		}

		for _, g := range suggestions.GroupByTopic(res.Suggestions.Suggestions) {
			summary.Notes = append(summary.Notes, fmt.Sprintf("%s: %d", g.Topic, len(g.Suggestions)))
		}
	}

	return res, a.finish(ctx, run, res.Suggestions.Stats, summary, err)
}

func (a *App) suggest(run *stageRun, opts SuggestOptions) (SuggestResult, error) {
	logger := &run.logger

	dives, err := a.store.LoadRecentDeepDives(opts.Weeks)
	if err != nil {
		return SuggestResult{}, fmt.Errorf("loading deep dives: %w", err)
	}

	// dives are newest first, so the newest analysis of a URL wins
	var items []domain.AnalyzedItem

	for _, d := range dives {
		for _, rec := range d.Analyses {
			it, ok := rec.Analyzed()
			if !ok || it.DeepDive.Failed() || len(it.DeepDive.SiteRelevance.SuggestedUpdates) == 0 {
				continue
			}

			items = append(items, it)
		}
	}

	items = dedup.ByURL(items, nil, logger).Items

	logger.Info().Int("weeks", len(dives)).Int("items", len(items)).Msg("analyses with suggestions loaded")

	extracted := suggestions.New(opts.MinConfidence, opts.MaxSuggestions, logger).Extract(items)

	artifact := artifacts.Suggestions{
		Week:        run.key,
		RunID:       run.id.String(),
		GeneratedAt: a.now().UTC(),
		Stats: artifacts.SuggestStats{
			SourcesAnalyzed:      len(items),
			PassedThreshold:      len(extracted.Passed),
			SuggestionsGenerated: len(extracted.Suggestions),
			ConfidenceThreshold:  opts.MinConfidence,
		},
		Suggestions: extracted.Suggestions,
		Skipped:     extracted.Skipped,
	}

	var buf bytes.Buffer

	err = report.NewWriter(&buf).Write(report.Input{
		Week:            run.key,
		SourcesAnalyzed: len(items),
		PassedThreshold: len(extracted.Passed),
		Threshold:       opts.MinConfidence,
		Groups:          suggestions.GroupByTopic(extracted.Suggestions),
		Skipped:         extracted.Skipped,
		PagePath:        a.topicPage,
	})
	if err != nil {
		return SuggestResult{}, fmt.Errorf("rendering report: %w", err)
	}

	res := SuggestResult{Suggestions: artifact, Report: buf.Bytes()}

	if opts.DryRun {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}

		if _, err := out.Write(res.Report); err != nil {
			return SuggestResult{}, fmt.Errorf("printing report: %w", err)
		}

		return res, nil
	}

	res.Path, err = a.store.SaveSuggestions(artifact, res.Report)
	if err != nil {
		return SuggestResult{}, err
	}

	logger.Info().Str(logKeyPath, res.Path).Int("suggestions", len(artifact.Suggestions)).Msg("suggestions written")

	return res, nil
}

// topicPage resolves a topic through the catalog. The unknown topic has no page.
func (a *App) topicPage(topic string) (string, bool) {
	if topic == suggestions.UnknownTopic {
		return "", false
	}

	return a.catalog.PagePath(topic), true
}
