package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_items_fetched_total",
		Help: "The total number of raw records returned by source fetchers",
	}, []string{"source"})

	SourceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_source_errors_total",
		Help: "Source queries that failed and were skipped",
	}, []string{"source"})

	ItemsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_items_deduplicated_total",
		Help: "Items removed by URL deduplication",
	}, []string{"reason"})

	Tier1Batches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_tier1_batches_total",
		Help: "Tier 1 scoring batches by outcome",
	}, []string{"outcome"})

	Tier1Fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_tier1_fallback_scores_total",
		Help: "Items that received a fallback Tier 1 score",
	}, []string{"kind"})

	ItemsEscalated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentpipe_items_escalated_total",
		Help: "Items selected for Tier 2 analysis",
	})

	Tier2Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_tier2_analyses_total",
		Help: "Tier 2 analyses by outcome",
	}, []string{"outcome"})

	ExtractionResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_extraction_results_total",
		Help: "Extended content extraction results",
	}, []string{"type", "outcome"})

	SuggestionsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentpipe_suggestions_emitted_total",
		Help: "Content suggestions written to review artifacts",
	})

	ResourcesPromoted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_resources_promoted_total",
		Help: "Items promoted into the permanent resource list",
	}, []string{"category"})

	StageRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_stage_runs_total",
		Help: "Pipeline stage runs by outcome",
	}, []string{"stage", "status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agentpipe_stage_duration_seconds",
		Help:    "Duration of pipeline stage runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	}, []string{"stage"})

	WebFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "agentpipe_web_fetch_duration_seconds",
		Help:    "Duration of outbound page fetches",
		Buckets: prometheus.DefBuckets,
	})

	// LLM token usage metrics
	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_llm_tokens_prompt_total",
		Help: "Total number of prompt tokens used",
	}, []string{"provider", "model", "task"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_llm_tokens_completion_total",
		Help: "Total number of completion tokens used",
	}, []string{"provider", "model", "task"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_llm_requests_total",
		Help: "Total number of LLM requests",
	}, []string{"provider", "model", "task", "status"})

	// LLM fallback and circuit breaker metrics
	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_llm_fallbacks_total",
		Help: "Total number of LLM fallback events",
	}, []string{"from_provider", "to_provider", "task"})

	LLMCircuitBreakerOpens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_llm_circuit_breaker_opens_total",
		Help: "Total number of times LLM circuit breaker opened",
	}, []string{"provider"})

	LLMCircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agentpipe_llm_circuit_breaker_state",
		Help: "Current state of LLM circuit breaker (0=closed, 1=open)",
	}, []string{"provider"})

	LLMRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agentpipe_llm_request_latency_seconds",
		Help:    "Latency of LLM requests by provider and task",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider", "model", "task"})

	// LLM estimated costs (in millicents to avoid floating point issues)
	LLMEstimatedCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentpipe_llm_estimated_cost_millicents_total",
		Help: "Estimated LLM cost in millicents (0.001 cents)",
	}, []string{"provider", "model", "task"})

	LLMProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agentpipe_llm_provider_available",
		Help: "Whether LLM provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})
)
