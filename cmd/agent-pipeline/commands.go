package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/0xhubed/agent-engineering/internal/app"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agent-pipeline",
		Short:         "Discovery and triage pipeline for agent engineering content",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newScoutCmd(),
		newDeepDiveCmd(),
		newSuggestCmd(),
		newResourcesCmd(),
		newScheduleCmd(),
	)

	return root
}

// withRuntime builds the runtime for a command, runs fn and logs the outcome.
func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := fn(ctx, rt); err != nil {
		if errors.Is(err, context.Canceled) {
			rt.logger.Info().Msg("pipeline stopped")
			return err
		}

		rt.logger.Error().Err(err).Str("command", cmd.Name()).Msg("command failed")

		return err
	}

	return nil
}

func newScoutCmd() *cobra.Command {
	var opts app.ScoutOptions

	cmd := &cobra.Command{
		Use:   "scout",
		Short: "Fetch today's candidates, score them and update the research artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				res, err := rt.app.RunScout(ctx, opts)
				if err != nil {
					return err
				}

				rt.logger.Info().
					Str("path", res.Path).
					Int("findings", len(res.Research.Findings)).
					Float64("cost_usd", res.Research.Stats.CostUSD).
					Msg("scout complete")

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "use placeholder sources and mock scoring")
	cmd.Flags().StringSliceVar(&opts.Sources, "sources", nil, "comma-separated sources (tavily, arxiv, youtube, github)")

	return cmd
}

func newDeepDiveCmd() *cobra.Command {
	var opts app.DeepDiveOptions

	cmd := &cobra.Command{
		Use:   "deepdive",
		Short: "Re-score the week's findings and run Tier 2 analysis on the best ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				res, err := rt.app.RunDeepDive(ctx, opts)
				if err != nil {
					return err
				}

				st := res.DeepDive.Stats
				rt.logger.Info().
					Str("path", res.Path).
					Int("tier1_items", st.Tier1Items).
					Int("tier2_items", st.Tier2Items).
					Int("reused", res.Reused).
					Float64("total_cost_usd", st.TotalCostUSD).
					Msg("deep dive complete")

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Week, "week", "", "ISO week to process (YYYY-WNN, default current week)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of ranked candidates to process")
	cmd.Flags().BoolVar(&opts.Tier1Only, "tier1-only", false, "skip Tier 2 analysis")
	cmd.Flags().BoolVar(&opts.ReuseScores, "reuse-scores", false, "keep the scout's Tier 1 scores instead of re-scoring")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "use mock scoring, analysis and content")

	return cmd
}

func newSuggestCmd() *cobra.Command {
	var opts app.SuggestOptions

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Extract confidence-ranked content suggestions and write the review report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Out = cmd.OutOrStdout()

			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				res, err := rt.app.RunSuggest(ctx, opts)
				if err != nil {
					return err
				}

				rt.logger.Info().
					Str("path", res.Path).
					Int("suggestions", len(res.Suggestions.Suggestions)).
					Int("skipped", len(res.Suggestions.Skipped)).
					Msg("suggestions complete")

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Weeks, "weeks", 0, "number of recent deep-dive weeks to read (default SUGGEST_WEEKS)")
	cmd.Flags().Float64Var(&opts.MinConfidence, "min-confidence", 0, "confidence threshold (default MIN_CONFIDENCE)")
	cmd.Flags().IntVar(&opts.MaxSuggestions, "max-suggestions", 0, "maximum suggestions (default MAX_SUGGESTIONS)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the report instead of writing it")

	return cmd
}

func newResourcesCmd() *cobra.Command {
	var opts app.ResourcesOptions

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "Promote high-scoring analyzed items into the resource list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Out = cmd.OutOrStdout()

			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				res, err := rt.app.RunResources(ctx, opts)
				if err != nil {
					return err
				}

				rt.logger.Info().
					Str("path", res.Path).
					Int("added", len(res.Outcome.Added)).
					Int("recorded", res.Recorded).
					Msg("resources complete")

				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Weeks, "weeks", 0, "number of recent deep-dive weeks to read (default SUGGEST_WEEKS)")
	cmd.Flags().Float64Var(&opts.MinScore, "min-score", 0, "minimum bulk score (default RESOURCE_MIN_SCORE)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "show what would be added without saving")

	return cmd
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run every stage on its cron schedule with a health server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				var ready observability.Pinger
				if rt.database != nil {
					ready = rt.database
				}

				server := observability.NewServer(ready, rt.cfg.HealthPort, &rt.logger)

				go func() {
					if err := server.Start(ctx); err != nil {
						rt.logger.Error().Err(err).Msg("health check server error")
					}
				}()

				return rt.app.RunSchedule(ctx)
			})
		},
	}
}
