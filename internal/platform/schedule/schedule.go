// Package schedule runs pipeline stages on cron expressions.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ErrUnknownJob is returned by RunNow for a name that was never added.
var ErrUnknownJob = errors.New("unknown job")

// Job is one scheduled stage.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler wraps cron with context propagation and structured logging.
// A failing job is logged and does not affect other jobs or later runs.
type Scheduler struct {
	cron   *cron.Cron
	parser cron.Parser
	logger *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
	jobs    map[string]cron.Job
}

func New(logger *zerolog.Logger) *Scheduler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	// standard 5-field expressions plus @daily style descriptors
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:    cron.New(cron.WithParser(parser)),
		parser:  parser,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
		jobs:    make(map[string]cron.Job),
	}
}

// Add registers a job. An empty spec disables the job.
func (s *Scheduler) Add(job Job) error {
	if job.Spec == "" {
		s.logger.Info().Str("job", job.Name).Msg("job disabled, no schedule")
		return nil
	}

	schedule, err := s.parser.Parse(job.Spec)
	if err != nil {
		return fmt.Errorf("parse schedule %q for %s: %w", job.Spec, job.Name, err)
	}

	adapter := cronLogger{logger: s.logger}
	chained := cron.NewChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)).
		Then(cron.FuncJob(func() { s.execute(job) }))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[job.Name]; ok {
		return fmt.Errorf("job %s already scheduled", job.Name)
	}

	s.entries[job.Name] = s.cron.Schedule(schedule, chained)
	s.jobs[job.Name] = chained

	s.logger.Info().
		Str("job", job.Name).
		Str("schedule", job.Spec).
		Time("next_run", schedule.Next(time.Now())).
		Msg("job scheduled")

	return nil
}

func (s *Scheduler) execute(job Job) {
	start := time.Now()
	logger := s.logger.With().Str("job", job.Name).Logger()

	logger.Info().Msg("job started")

	if err := job.Run(s.ctx); err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("job failed")
		return
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("job finished")
}

// RunNow runs a registered job synchronously, honoring the still-running guard.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	job.Run()

	return nil
}

// Next returns the next activation of the named job, or the zero time.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()

	if !ok {
		return time.Time{}
	}

	return s.cron.Entry(id).Next
}

// Run starts the scheduler and blocks until ctx is done, then cancels
// running jobs and waits for them to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")

	<-ctx.Done()

	s.cancel()
	<-s.cron.Stop().Done()

	s.logger.Info().Msg("scheduler stopped")

	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
