package db

import (
	"context"
	"fmt"
	"time"
)

// LLMUsage is one day's usage for a provider, model and task.
type LLMUsage struct {
	Date             string
	Provider         string
	Model            string
	Task             string
	PromptTokens     int64
	CompletionTokens int64
	RequestCount     int64
	CostUSD          float64
}

const sqlIncrementLLMUsage = `
		INSERT INTO llm_usage (date, provider, model, task, prompt_tokens, completion_tokens, request_count, cost_usd)
		VALUES (CURRENT_DATE, $1, $2, $3, $4, $5, 1, $6)
		ON CONFLICT (date, provider, model, task)
		DO UPDATE SET
			prompt_tokens = llm_usage.prompt_tokens + EXCLUDED.prompt_tokens,
			completion_tokens = llm_usage.completion_tokens + EXCLUDED.completion_tokens,
			request_count = llm_usage.request_count + 1,
			cost_usd = llm_usage.cost_usd + EXCLUDED.cost_usd,
			updated_at = now()
	`

const sqlLLMUsageSince = `
		SELECT date::text, provider, model, task, prompt_tokens, completion_tokens, request_count, cost_usd::float8
		FROM llm_usage
		WHERE date >= $1
		ORDER BY date DESC, provider, model, task
	`

// IncrementLLMUsage increments LLM usage counters for the current day.
func (db *DB) IncrementLLMUsage(ctx context.Context, provider, model, task string, promptTokens, completionTokens int, cost float64) error {
	if _, err := db.Pool.Exec(ctx, sqlIncrementLLMUsage, provider, model, task, promptTokens, completionTokens, cost); err != nil {
		return fmt.Errorf("increment llm usage: %w", err)
	}

	return nil
}

// LLMUsageSince returns per-day usage rows from since onwards, newest first.
func (db *DB) LLMUsageSince(ctx context.Context, since time.Time) ([]LLMUsage, error) {
	rows, err := db.Pool.Query(ctx, sqlLLMUsageSince, since.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("get llm usage: %w", err)
	}
	defer rows.Close()

	var usages []LLMUsage

	for rows.Next() {
		var u LLMUsage

		if err := rows.Scan(&u.Date, &u.Provider, &u.Model, &u.Task, &u.PromptTokens, &u.CompletionTokens, &u.RequestCount, &u.CostUSD); err != nil {
			return nil, fmt.Errorf("scan llm usage row: %w", err)
		}

		usages = append(usages, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate llm usage rows: %w", err)
	}

	return usages, nil
}

// TotalCost sums the cost of usage rows.
func TotalCost(usages []LLMUsage) float64 {
	total := 0.0
	for _, u := range usages {
		total += u.CostUSD
	}

	return total
}
