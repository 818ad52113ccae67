package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one recorded stage execution.
type Run struct {
	ID         uuid.UUID
	Stage      string
	RunKey     string
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      json.RawMessage
}

const sqlRecordRun = `
		INSERT INTO pipeline_runs (id, stage, run_key, started_at, finished_at, stats)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			stats = EXCLUDED.stats
	`

const sqlLatestRun = `
		SELECT id, stage, run_key, started_at, COALESCE(finished_at, started_at), stats
		FROM pipeline_runs
		WHERE stage = $1
		ORDER BY started_at DESC
		LIMIT 1
	`

// RecordRun stores a run record. stats is marshaled to JSON.
func (db *DB) RecordRun(ctx context.Context, id uuid.UUID, stage, runKey string, startedAt, finishedAt time.Time, stats any) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal run stats: %w", err)
	}

	if _, err := db.Pool.Exec(ctx, sqlRecordRun, id, stage, SanitizeUTF8(runKey), startedAt, finishedAt, data); err != nil {
		return fmt.Errorf("record %s run: %w", stage, err)
	}

	return nil
}

// LatestRun returns the most recent run of stage, or ErrNotFound.
func (db *DB) LatestRun(ctx context.Context, stage string) (Run, error) {
	var r Run

	err := db.Pool.QueryRow(ctx, sqlLatestRun, stage).Scan(&r.ID, &r.Stage, &r.RunKey, &r.StartedAt, &r.FinishedAt, &r.Stats)
	if err != nil {
		return Run{}, notFound(err, "latest "+stage+" run")
	}

	return r, nil
}
