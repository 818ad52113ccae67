// Package scoring implements the Tier 1 bulk relevance pass: items are
// scored in batches by an economical model and every input item yields
// exactly one ScoredItem, with defined fallbacks when the model fails.
package scoring

import (
	"cmp"
	"context"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/core/llm"
	"github.com/0xhubed/agent-engineering/internal/platform/observability"
)

// Fallback relevance values. A missing index means the model looked at the
// batch and had nothing to say about the item; a batch failure means nothing
// is known, so the neutral midpoint is used.
const (
	MissingIndexRelevance = 0.0
	BatchFailureRelevance = 0.5
)

const (
	DefaultBatchSize    = 10
	DefaultSummaryChars = 300
	DefaultConcurrency  = 2
	DefaultGate         = 0.5

	bulkScale = 10.0

	outcomeSuccess = "success"
	outcomePartial = "partial"
	outcomeFailure = "failure"

	logKeyBatch = "batch"
	logKeyIndex = "index"
	logKeyItem  = "item_id"
)

type Config struct {
	BatchSize    int
	SummaryChars int
	Concurrency  int
	Vocabulary   []string
}

// Scorer runs Tier 1 scoring.
type Scorer struct {
	client llm.Client
	cfg    Config
	vocab  map[string]bool
	logger *zerolog.Logger
}

func New(client llm.Client, cfg Config, logger *zerolog.Logger) *Scorer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	if cfg.SummaryChars <= 0 {
		cfg.SummaryChars = DefaultSummaryChars
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	vocab := make(map[string]bool, len(cfg.Vocabulary))
	for _, t := range cfg.Vocabulary {
		vocab[t] = true
	}

	return &Scorer{client: client, cfg: cfg, vocab: vocab, logger: logger}
}

// Score returns one ScoredItem per input item, in input order.
func (s *Scorer) Score(ctx context.Context, items []domain.DiscoveredItem) []domain.ScoredItem {
	out := make([]domain.ScoredItem, len(items))
	if len(items) == 0 {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for start := 0; start < len(items); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(items))
		batchNum := start / s.cfg.BatchSize

		g.Go(func() error {
			copy(out[start:end], s.scoreBatch(gctx, batchNum, items[start:end]))
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // batches degrade to fallbacks and never return errors

	return out
}

func (s *Scorer) scoreBatch(ctx context.Context, batchNum int, batch []domain.DiscoveredItem) []domain.ScoredItem {
	logger := s.logger.With().Int(logKeyBatch, batchNum).Logger()

	prompt, err := s.buildPrompt(batch)
	if err != nil {
		logger.Warn().Err(err).Msg("tier1 prompt build failed")
		return batchFallback(batch)
	}

	text, err := s.client.Complete(ctx, llm.TaskTypeBulkScore, prompt)
	if err != nil {
		logger.Warn().Err(err).Int("items", len(batch)).Msg("tier1 scoring call failed, using batch fallback")
		return batchFallback(batch)
	}

	scores, err := parseScores(text)
	if err != nil {
		logger.Warn().Err(err).Int("items", len(batch)).Msg("tier1 response unparseable, using batch fallback")
		return batchFallback(batch)
	}

	results := make([]domain.ScoredItem, len(batch))
	found := make([]bool, len(batch))

	for _, sc := range scores {
		if sc.Index == nil || *sc.Index < 0 || *sc.Index >= len(batch) {
			continue
		}

		idx := *sc.Index
		if found[idx] {
			logger.Warn().Int(logKeyIndex, idx).Msg("scoring service returned duplicate index, ignoring")
			continue
		}

		found[idx] = true
		results[idx] = domain.ScoredItem{DiscoveredItem: batch[idx], Tier1: s.toResult(sc)}
	}

	missing := 0

	for i, ok := range found {
		if ok {
			continue
		}

		missing++

		logger.Warn().Int(logKeyIndex, i).Str(logKeyItem, batch[i].ID).Msg("tier1 result missing for index")

		results[i] = domain.ScoredItem{DiscoveredItem: batch[i], Tier1: Fallback(domain.FallbackMissingIndex)}
	}

	observability.Tier1Fallbacks.WithLabelValues(string(domain.FallbackMissingIndex)).Add(float64(missing))

	outcome := outcomeSuccess
	if missing > 0 {
		outcome = outcomePartial
	}

	observability.Tier1Batches.WithLabelValues(outcome).Inc()

	return results
}

func batchFallback(batch []domain.DiscoveredItem) []domain.ScoredItem {
	observability.Tier1Batches.WithLabelValues(outcomeFailure).Inc()
	observability.Tier1Fallbacks.WithLabelValues(string(domain.FallbackBatchFailure)).Add(float64(len(batch)))

	out := make([]domain.ScoredItem, len(batch))
	for i, it := range batch {
		out[i] = domain.ScoredItem{DiscoveredItem: it, Tier1: Fallback(domain.FallbackBatchFailure)}
	}

	return out
}

// Fallback builds the default Tier 1 result for the given failure kind.
func Fallback(kind domain.FallbackKind) domain.Tier1Result {
	relevance := MissingIndexRelevance
	if kind == domain.FallbackBatchFailure {
		relevance = BatchFailureRelevance
	}

	return domain.Tier1Result{
		RelevanceScore:     relevance,
		Topics:             []string{},
		EscalationPriority: domain.PriorityLow,
		BulkScore:          relevance * bulkScale,
		Fallback:           kind,
	}
}

// Gate keeps items with relevance at or above minRelevance, preserving order.
func Gate(items []domain.ScoredItem, minRelevance float64) []domain.ScoredItem {
	out := make([]domain.ScoredItem, 0, len(items))

	for _, it := range items {
		if it.Tier1.RelevanceScore >= minRelevance {
			out = append(out, it)
		}
	}

	return out
}

// SortByRelevance returns a copy sorted by relevance descending, stable on ties.
func SortByRelevance(items []domain.ScoredItem) []domain.ScoredItem {
	out := slices.Clone(items)

	slices.SortStableFunc(out, func(a, b domain.ScoredItem) int {
		return cmp.Compare(b.Tier1.RelevanceScore, a.Tier1.RelevanceScore)
	})

	return out
}

// SortByBulkScore returns a copy sorted by bulk score descending, stable on ties.
func SortByBulkScore(items []domain.ScoredItem) []domain.ScoredItem {
	out := slices.Clone(items)

	slices.SortStableFunc(out, func(a, b domain.ScoredItem) int {
		return cmp.Compare(b.Tier1.BulkScore, a.Tier1.BulkScore)
	})

	return out
}
