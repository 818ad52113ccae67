// Package app wires the pipeline stages together and runs them.
//
// Each stage is exposed as a Run method:
//
//   - Scout: daily discovery, Tier 1 scoring and the research artifact
//   - DeepDive: weekly re-scoring, escalation and Tier 2 analysis
//   - Suggest: confidence-gated content suggestions and the review report
//   - Resources: promotion of high-scoring items into the resource list
//   - Schedule: all of the above on cron expressions
//
// Stages communicate only through the artifact store, so each can be run
// independently and re-run safely.
package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/core/llm"
	"github.com/0xhubed/agent-engineering/internal/output/notify"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
	"github.com/0xhubed/agent-engineering/internal/process/dedup"
	"github.com/0xhubed/agent-engineering/internal/process/scoring"
	"github.com/0xhubed/agent-engineering/internal/sources"
	db "github.com/0xhubed/agent-engineering/internal/storage"
	"github.com/0xhubed/agent-engineering/internal/storage/artifacts"
)

const (
	logKeyStage = "stage"
	logKeyRunID = "run_id"
	logKeyKey   = "run_key"
	logKeyPath  = "path"

	statusSuccess = "success"
	statusFailure = "failure"

	costPrecision = 1e6
)

// Ledger is the optional PostgreSQL record of runs, promotions and spend.
type Ledger interface {
	RecordRun(ctx context.Context, id uuid.UUID, stage, runKey string, startedAt, finishedAt time.Time, stats any) error
	LatestRun(ctx context.Context, stage string) (db.Run, error)
	RecordPromoted(ctx context.Context, resources []domain.Resource) (int, error)
	PromotedURLs(ctx context.Context) ([]string, error)
	LLMUsageSince(ctx context.Context, since time.Time) ([]db.LLMUsage, error)
}

// Notifier delivers run summaries.
type Notifier interface {
	Notify(ctx context.Context, s notify.Summary) error
}

// UsageMeter exposes metered LLM usage for the current process.
type UsageMeter interface {
	Totals() llm.Totals
	Wait()
}

// Deps are the collaborators an App runs with. Ledger, Notifier and Usage
// are optional.
type Deps struct {
	Catalog  *config.Catalog
	Store    *artifacts.Store
	LLM      llm.Client
	HTTP     sources.HTTPClient
	Ledger   Ledger
	Notifier Notifier
	Usage    UsageMeter
	Now      func() time.Time
}

// App holds the application dependencies and runs pipeline stages.
type App struct {
	cfg      *config.Config
	catalog  *config.Catalog
	store    *artifacts.Store
	llm      llm.Client
	dryRun   llm.Client
	http     sources.HTTPClient
	ledger   Ledger
	notifier Notifier
	usage    UsageMeter
	now      func() time.Time
	logger   *zerolog.Logger
}

// New creates an App. A nil LLM client means every stage runs against the
// mock provider.
func New(cfg *config.Config, deps Deps, logger *zerolog.Logger) *App {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	a := &App{
		cfg:      cfg,
		catalog:  deps.Catalog,
		store:    deps.Store,
		llm:      deps.LLM,
		dryRun:   llm.NewDryRun(logger),
		http:     deps.HTTP,
		ledger:   deps.Ledger,
		notifier: deps.Notifier,
		usage:    deps.Usage,
		now:      now,
		logger:   logger,
	}

	if a.llm == nil {
		logger.Warn().Msg("no LLM client configured, using mock provider")
		a.llm = a.dryRun
	}

	return a
}

// Close waits for pending usage writes.
func (a *App) Close() {
	if a.usage != nil {
		a.usage.Wait()
	}
}

func (a *App) client(dryRun bool) llm.Client {
	if dryRun {
		return a.dryRun
	}

	return a.llm
}

func (a *App) scorer(client llm.Client, logger *zerolog.Logger) *scoring.Scorer {
	return scoring.New(client, scoring.Config{
		BatchSize:    a.cfg.Tier1BatchSize,
		SummaryChars: a.cfg.Tier1SummaryChars,
		Concurrency:  a.cfg.Tier1Concurrency,
		Vocabulary:   a.catalog.Topics,
	}, logger)
}

// require runs the stage's credential check and logs soft warnings.
func (a *App) require(stage config.Stage, req config.Requirements) error {
	warnings, err := a.cfg.Require(stage, req)

	for _, w := range warnings {
		a.logger.Warn().Str(logKeyStage, string(stage)).Msg(w)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}

	return nil
}

// exclusions is the union of foundational URLs, the resource list and the
// ledger's promoted URLs. A ledger failure only narrows the set.
func (a *App) exclusions(ctx context.Context, resources domain.ResourceList) dedup.ExclusionSet {
	set := dedup.NewExclusionSet(a.catalog.FoundationalURLs, resources.URLs())

	if a.ledger == nil {
		return set
	}

	urls, err := a.ledger.PromotedURLs(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("loading promoted URLs from ledger failed")
		return set
	}

	set.Add(urls...)

	return set
}

// stageRun tracks one invocation of a stage.
type stageRun struct {
	stage   config.Stage
	id      uuid.UUID
	key     string
	dryRun  bool
	started time.Time
	logger  zerolog.Logger
}

func (a *App) begin(stage config.Stage, key string, dryRun bool) *stageRun {
	id := uuid.New()
	run := &stageRun{
		stage:   stage,
		id:      id,
		key:     key,
		dryRun:  dryRun,
		started: a.now(),
		logger: a.logger.With().
			Str(logKeyStage, string(stage)).
			Str(logKeyKey, key).
			Str(logKeyRunID, id.String()).
			Logger(),
	}

	run.logger.Info().Bool("dry_run", dryRun).Msg("stage started")

	return run
}

// finish records metrics, the ledger entry and the notification for a run.
// The stage error is returned unchanged; bookkeeping failures are logged.
func (a *App) finish(ctx context.Context, run *stageRun, stats any, summary *notify.Summary, err error) error {
	finished := a.now()

	observability.StageDuration.WithLabelValues(string(run.stage)).Observe(finished.Sub(run.started).Seconds())

	if err != nil {
		observability.StageRuns.WithLabelValues(string(run.stage), statusFailure).Inc()
		run.logger.Error().Err(err).Msg("stage failed")

		return err
	}

	observability.StageRuns.WithLabelValues(string(run.stage), statusSuccess).Inc()
	run.logger.Info().Dur("took", finished.Sub(run.started)).Msg("stage finished")

	if run.dryRun {
		return nil
	}

	if a.ledger != nil {
		if lerr := a.ledger.RecordRun(ctx, run.id, string(run.stage), run.key, run.started, finished, stats); lerr != nil {
			run.logger.Warn().Err(lerr).Msg("recording run in ledger failed")
		}
	}

	if a.notifier != nil && summary != nil {
		summary.Stage = string(run.stage)
		summary.Key = run.key
		summary.RunID = run.id.String()

		if nerr := a.notifier.Notify(ctx, *summary); nerr != nil {
			run.logger.Warn().Err(nerr).Msg("sending run notification failed")
		}
	}

	return nil
}

// usageNote describes metered LLM usage so far, or "" when nothing was metered.
func (a *App) usageNote() string {
	if a.usage == nil {
		return ""
	}

	t := a.usage.Totals()
	if t.Requests == 0 {
		return ""
	}

	return fmt.Sprintf("metered LLM usage: %d requests, %d tokens, $%.4f",
		t.Requests, t.PromptTokens+t.CompletionTokens, t.CostUSD)
}

func roundCost(v float64) float64 {
	return math.Round(v*costPrecision) / costPrecision
}

func stat(name string, format string, v any) notify.Stat {
	return notify.Stat{Name: name, Value: fmt.Sprintf(format, v)}
}

func urlsOf[T domain.URLKeyed](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.GetURL())
	}

	return out
}
