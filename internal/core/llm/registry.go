package llm

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/platform/observability"
)

// Registry errors.
var (
	ErrNoProvidersAvailable = errors.New("no LLM providers available")
	ErrAllProvidersFailed   = errors.New("all LLM providers failed")
)

// Registry routes each task through its provider chain. Providers that are
// unavailable or whose circuit is open are skipped.
type Registry struct {
	mu              sync.RWMutex
	providers       map[ProviderName]Provider
	order           []ProviderName // highest priority first
	circuitBreakers map[ProviderName]*CircuitBreaker
	taskConfig      map[TaskType]TaskProviderChain
	usage           UsageRecorder
	logger          *zerolog.Logger
}

// NewRegistry creates an empty registry. A nil taskConfig falls back to
// DefaultTaskConfig with unset models.
func NewRegistry(taskConfig map[TaskType]TaskProviderChain, usage UsageRecorder, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if usage == nil {
		usage = NoopUsageRecorder()
	}

	if taskConfig == nil {
		taskConfig = DefaultTaskConfig(ModelSet{}, 0, 0)
	}

	return &Registry{
		providers:       make(map[ProviderName]Provider),
		circuitBreakers: make(map[ProviderName]*CircuitBreaker),
		taskConfig:      taskConfig,
		usage:           usage,
		logger:          logger,
	}
}

// Register adds p, replacing any provider with the same name and resetting its circuit.
func (r *Registry) Register(p Provider, cfg CircuitBreakerConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}

	r.providers[name] = p
	r.circuitBreakers[name] = NewCircuitBreaker(cfg, r.logger)

	sort.SliceStable(r.order, func(i, j int) bool {
		return r.providers[r.order[i]].Priority() > r.providers[r.order[j]].Priority()
	})

	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(gauge(p.IsAvailable()))

	r.logger.Info().
		Str(logKeyProvider, string(name)).
		Int("priority", p.Priority()).
		Bool("available", p.IsAvailable()).
		Msg("registered LLM provider")
}

// ProviderCount returns the number of registered providers.
func (r *Registry) ProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.providers)
}

// Complete sends prompt along the task's chain and returns the first
// successful answer. When every attempted provider fails the result wraps
// ErrAllProvidersFailed together with the last provider error.
func (r *Registry) Complete(ctx context.Context, task TaskType, prompt string) (string, error) {
	r.mu.RLock()
	opts := r.taskConfig[task]
	r.mu.RUnlock()

	var (
		firstFailed ProviderName
		lastErr     error
	)

	for _, pm := range r.chain(task) {
		p, cb, ok := r.usable(pm.Provider, task)
		if !ok {
			continue
		}

		resp, err := r.attempt(ctx, p, cb, Request{
			Task:        task,
			Prompt:      prompt,
			Model:       pm.Model,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
			JSONMode:    opts.JSONMode,
		})
		if err != nil {
			if lastErr == nil {
				firstFailed = pm.Provider
			}

			lastErr = err

			continue
		}

		if firstFailed != "" {
			observability.LLMFallbacks.WithLabelValues(string(firstFailed), string(pm.Provider), string(task)).Inc()

			r.logger.Info().
				Str(logKeyProvider, string(pm.Provider)).
				Str("from_provider", string(firstFailed)).
				Str(logKeyTask, string(task)).
				Msg("used fallback LLM provider")
		}

		return resp.Text, nil
	}

	if lastErr != nil {
		return "", errors.Join(ErrAllProvidersFailed, lastErr)
	}

	return "", ErrNoProvidersAvailable
}

// chain lists the task's configured providers followed by every other
// registered provider in priority order.
func (r *Registry) chain(task TaskType) []ProviderModel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ProviderModel

	seen := make(map[ProviderName]bool, len(r.order))

	if tc, ok := r.taskConfig[task]; ok {
		for _, pm := range tc.GetProviderChain() {
			if !seen[pm.Provider] {
				seen[pm.Provider] = true
				out = append(out, pm)
			}
		}
	}

	for _, name := range r.order {
		if !seen[name] {
			seen[name] = true
			out = append(out, ProviderModel{Provider: name})
		}
	}

	return out
}

func (r *Registry) usable(name ProviderName, task TaskType) (Provider, *CircuitBreaker, bool) {
	r.mu.RLock()
	p, ok := r.providers[name]
	cb := r.circuitBreakers[name]
	r.mu.RUnlock()

	if !ok || !p.IsAvailable() {
		return nil, nil, false
	}

	if !cb.CanAttempt() {
		setProviderUp(name, false)

		r.logger.Debug().
			Str(logKeyProvider, string(name)).
			Str(logKeyTask, string(task)).
			Msg(logMsgCircuitBreakerOpen)

		return nil, nil, false
	}

	return p, cb, true
}

func (r *Registry) attempt(ctx context.Context, p Provider, cb *CircuitBreaker, req Request) (Response, error) {
	name := p.Name()
	start := time.Now()

	resp, err := p.Complete(ctx, req)

	elapsed := time.Since(start)
	observability.LLMRequestLatency.WithLabelValues(string(name), req.Model, string(req.Task)).Observe(elapsed.Seconds())

	if err != nil {
		r.usage.RecordTokenUsage(string(name), req.Model, string(req.Task), 0, 0, false)

		wasClosed := cb.CanAttempt()
		cb.RecordFailure(name)

		if wasClosed && !cb.CanAttempt() {
			observability.LLMCircuitBreakerOpens.WithLabelValues(string(name)).Inc()
			setProviderUp(name, false)
		}

		r.logger.Warn().
			Err(err).
			Str(logKeyProvider, string(name)).
			Str(logKeyModel, req.Model).
			Str(logKeyTask, string(req.Task)).
			Float64("duration_seconds", elapsed.Seconds()).
			Msg("LLM provider failed, trying fallback")

		return Response{}, err
	}

	cb.RecordSuccess()
	setProviderUp(name, true)

	model := req.Model
	if resp.Model != "" {
		model = resp.Model
	}

	r.usage.RecordTokenUsage(string(name), model, string(req.Task), resp.PromptTokens, resp.CompletionTokens, true)

	if resp.Truncated {
		r.logger.Warn().
			Str(logKeyProvider, string(name)).
			Str(logKeyTask, string(req.Task)).
			Int(logKeyMaxTokens, req.MaxTokens).
			Msg(logMsgTruncated)
	}

	return resp, nil
}

// setProviderUp mirrors a provider's circuit into the availability gauges.
func setProviderUp(name ProviderName, up bool) {
	observability.LLMCircuitBreakerState.WithLabelValues(string(name)).Set(gauge(!up))
	observability.LLMProviderAvailable.WithLabelValues(string(name)).Set(gauge(up))
}

func gauge(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

// ProviderStatus is a snapshot of one registered provider.
type ProviderStatus struct {
	Name             ProviderName
	Priority         int
	Available        bool
	CircuitBreakerOK bool
}

// Statuses reports every registered provider in priority order.
func (r *Registry) Statuses() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]ProviderStatus, 0, len(r.order))

	for _, name := range r.order {
		p := r.providers[name]

		statuses = append(statuses, ProviderStatus{
			Name:             name,
			Priority:         p.Priority(),
			Available:        p.IsAvailable(),
			CircuitBreakerOK: r.circuitBreakers[name].CanAttempt(),
		})
	}

	return statuses
}

// Close releases provider clients that hold resources.
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error

	for _, name := range r.order {
		if c, ok := r.providers[name].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}

var _ Client = (*Registry)(nil)
