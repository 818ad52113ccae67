package app

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
	"github.com/0xhubed/agent-engineering/internal/platform/schedule"
	"github.com/0xhubed/agent-engineering/internal/sources"
)

// Jobs returns the four stages as scheduler jobs with the configured cron
// expressions.
func (a *App) Jobs() []schedule.Job {
	return []schedule.Job{
		{
			Name: string(config.StageScout),
			Spec: a.cfg.ScheduleScout,
			Run: func(ctx context.Context) error {
				_, err := a.RunScout(ctx, ScoutOptions{})
				return err
			},
		},
		{
			Name: string(config.StageDeepDive),
			Spec: a.cfg.ScheduleDeepDive,
			Run: func(ctx context.Context) error {
				_, err := a.RunDeepDive(ctx, DeepDiveOptions{})
				return err
			},
		},
		{
			Name: string(config.StageSuggest),
			Spec: a.cfg.ScheduleSuggest,
			Run: func(ctx context.Context) error {
				_, err := a.RunSuggest(ctx, SuggestOptions{})
				return err
			},
		},
		{
			Name: string(config.StageResources),
			Spec: a.cfg.ScheduleResources,
			Run: func(ctx context.Context) error {
				_, err := a.RunResources(ctx, ResourcesOptions{})
				return err
			},
		},
	}
}

// RunSchedule runs every stage on its cron expression until ctx is done.
// Credentials for every enabled stage are checked before the scheduler
// starts. A failing run is logged and the scheduler keeps going.
func (a *App) RunSchedule(ctx context.Context) error {
	scheduler := schedule.New(a.logger)

	for _, job := range a.Jobs() {
		if job.Spec != "" {
			if err := a.requireScheduled(config.Stage(job.Name)); err != nil {
				return fmt.Errorf("schedule: %w", err)
			}
		}

		if err := scheduler.Add(job); err != nil {
			return err
		}
	}

	a.logLastRuns(ctx)

	return scheduler.Run(ctx)
}

// requireScheduled checks the stage with the options a scheduled run uses.
func (a *App) requireScheduled(stage config.Stage) error {
	var req config.Requirements

	switch stage {
	case config.StageScout:
		names, err := sources.SelectSources(nil)
		if err != nil {
			return err
		}

		req.Sources = names
	case config.StageDeepDive:
		req.Rescore = true
	case config.StageSuggest, config.StageResources:
	}

	return a.require(stage, req)
}

func (a *App) logLastRuns(ctx context.Context) {
	if a.ledger == nil {
		return
	}

	for _, job := range a.Jobs() {
		run, err := a.ledger.LatestRun(ctx, job.Name)
		if errors.Is(err, apperrors.ErrNotFound) {
			a.logger.Info().Str(logKeyStage, job.Name).Msg("stage has not run yet")
			continue
		}

		if err != nil {
			a.logger.Warn().Err(err).Str(logKeyStage, job.Name).Msg("loading last run from ledger failed")
			continue
		}

		a.logger.Info().
			Str(logKeyStage, job.Name).
			Str(logKeyKey, run.RunKey).
			Time("finished_at", run.FinishedAt).
			Msg("last run")
	}
}
