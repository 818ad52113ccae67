package llm

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/platform/observability"
)

// UsageStore persists aggregated LLM usage.
type UsageStore interface {
	IncrementLLMUsage(ctx context.Context, provider, model, task string, promptTokens, completionTokens int, cost float64) error
}

// UsageRecorder records token usage metrics for LLM requests.
type UsageRecorder interface {
	RecordTokenUsage(provider, model, task string, promptTokens, completionTokens int, success bool)
}

// Totals accumulates token usage for one pipeline run.
type Totals struct {
	Requests         int
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
}

// MeteredRecorder implements UsageRecorder with metrics, run totals and
// optional persistence.
type MeteredRecorder struct {
	usageStore UsageStore
	logger     *zerolog.Logger

	mu     sync.Mutex
	totals Totals
	wg     sync.WaitGroup
}

// NewUsageRecorder creates a recorder. store may be nil.
func NewUsageRecorder(store UsageStore, logger *zerolog.Logger) *MeteredRecorder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &MeteredRecorder{usageStore: store, logger: logger}
}

// RecordTokenUsage records token usage metrics for an LLM request.
func (r *MeteredRecorder) RecordTokenUsage(provider, model, task string, promptTokens, completionTokens int, success bool) {
	r.recordTokenMetrics(provider, model, task, promptTokens, completionTokens, success)

	cost := estimateCost(provider, model, promptTokens, completionTokens)
	r.recordCostMetric(provider, model, task, cost, success)

	if !success {
		return
	}

	r.mu.Lock()
	r.totals.Requests++
	r.totals.PromptTokens += promptTokens
	r.totals.CompletionTokens += completionTokens
	r.totals.CostUSD += cost
	r.mu.Unlock()

	r.persistUsageToDatabase(provider, model, task, promptTokens, completionTokens, cost)
}

// Totals returns the usage recorded so far.
func (r *MeteredRecorder) Totals() Totals {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.totals
}

// Wait blocks until pending usage writes have finished.
func (r *MeteredRecorder) Wait() {
	r.wg.Wait()
}

func (r *MeteredRecorder) recordTokenMetrics(provider, model, task string, promptTokens, completionTokens int, success bool) {
	status := StatusSuccess
	if !success {
		status = StatusError
	}

	observability.LLMRequests.WithLabelValues(provider, model, task, status).Inc()

	if promptTokens > 0 {
		observability.LLMTokensPrompt.WithLabelValues(provider, model, task).Add(float64(promptTokens))
	}

	if completionTokens > 0 {
		observability.LLMTokensCompletion.WithLabelValues(provider, model, task).Add(float64(completionTokens))
	}
}

// recordCostMetric records the estimated cost metric in millicents.
func (r *MeteredRecorder) recordCostMetric(provider, model, task string, cost float64, success bool) {
	if cost > 0 && success {
		observability.LLMEstimatedCost.WithLabelValues(provider, model, task).Add(cost * usdToMillicents)
	}
}

// persistUsageToDatabase stores usage asynchronously. Failures are logged only.
func (r *MeteredRecorder) persistUsageToDatabase(provider, model, task string, promptTokens, completionTokens int, cost float64) {
	if r.usageStore == nil {
		return
	}

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), usageStorageTimeout)
		defer cancel()

		if err := r.usageStore.IncrementLLMUsage(ctx, provider, model, task, promptTokens, completionTokens, cost); err != nil {
			r.logger.Debug().Err(err).Str(logKeyProvider, provider).Msg("failed to persist LLM usage")
		}
	}()
}

// noopUsageRecorder is a no-op implementation for tests or when usage tracking is disabled.
type noopUsageRecorder struct{}

// NoopUsageRecorder returns a no-op implementation of UsageRecorder.
func NoopUsageRecorder() UsageRecorder {
	return noopUsageRecorder{}
}

// RecordTokenUsage does nothing.
func (noopUsageRecorder) RecordTokenUsage(_, _, _ string, _, _ int, _ bool) {}
