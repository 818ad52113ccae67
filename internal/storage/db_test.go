package db

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
)

var errDatabaseDown = errors.New("database unavailable")

// flexibleSQL matches a query regardless of whitespace.
func flexibleSQL(sql string) string {
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(strings.TrimSpace(sql)), `\s+`)
}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *DB) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock, NewWithPool(mock, nil)
}

func TestPing(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "ok"},
		{name: "down", err: errDatabaseDown, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, d := newMock(t)
			mock.ExpectPing().WillReturnError(tt.err)

			err := d.Ping(context.Background())
			if tt.wantErr {
				require.ErrorIs(t, err, errDatabaseDown)
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIncrementLLMUsage(t *testing.T) {
	mock, d := newMock(t)

	mock.ExpectExec(flexibleSQL(sqlIncrementLLMUsage)).
		WithArgs("together", "openai/gpt-oss-120b", "bulk_score", 1200, 300, 0.0009).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, d.IncrementLLMUsage(context.Background(), "together", "openai/gpt-oss-120b", "bulk_score", 1200, 300, 0.0009))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLLMUsageSince(t *testing.T) {
	mock, d := newMock(t)

	since := time.Date(2026, 1, 12, 15, 0, 0, 0, time.UTC)
	cols := []string{"date", "provider", "model", "task", "prompt_tokens", "completion_tokens", "request_count", "cost_usd"}

	mock.ExpectQuery(flexibleSQL(sqlLLMUsageSince)).
		WithArgs("2026-01-12").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("2026-01-13", "anthropic", "claude-sonnet-4-20250514", "deep_analysis", int64(9000), int64(2000), int64(2), 0.057).
			AddRow("2026-01-12", "together", "openai/gpt-oss-120b", "bulk_score", int64(7000), int64(900), int64(1), 0.004))

	usages, err := d.LLMUsageSince(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, usages, 2)
	assert.Equal(t, "anthropic", usages[0].Provider)
	assert.Equal(t, int64(2), usages[0].RequestCount)
	assert.InDelta(t, 0.061, TotalCost(usages), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRun(t *testing.T) {
	mock, d := newMock(t)

	id := uuid.New()
	started := time.Date(2026, 1, 14, 6, 0, 0, 0, time.UTC)
	finished := started.Add(3 * time.Minute)
	stats := map[string]int{"items_found": 12}

	mock.ExpectExec(flexibleSQL(sqlRecordRun)).
		WithArgs(id, "scout", "2026-01-14", started, finished, []byte(`{"items_found":12}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, d.RecordRun(context.Background(), id, "scout", "2026-01-14", started, finished, stats))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRun_Unmarshalable(t *testing.T) {
	mock, d := newMock(t)

	err := d.RecordRun(context.Background(), uuid.New(), "scout", "k", time.Now(), time.Now(), map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestRun(t *testing.T) {
	cols := []string{"id", "stage", "run_key", "started_at", "finished_at", "stats"}

	t.Run("found", func(t *testing.T) {
		mock, d := newMock(t)

		id := uuid.New()
		at := time.Date(2026, 1, 11, 8, 0, 0, 0, time.UTC)

		mock.ExpectQuery(flexibleSQL(sqlLatestRun)).
			WithArgs("deepdive").
			WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "deepdive", "2026-W02", at, at, json.RawMessage(`{}`)))

		run, err := d.LatestRun(context.Background(), "deepdive")
		require.NoError(t, err)
		assert.Equal(t, id, run.ID)
		assert.Equal(t, "2026-W02", run.RunKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("none", func(t *testing.T) {
		mock, d := newMock(t)

		mock.ExpectQuery(flexibleSQL(sqlLatestRun)).
			WithArgs("suggest").
			WillReturnRows(pgxmock.NewRows(cols))

		_, err := d.LatestRun(context.Background(), "suggest")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordPromoted(t *testing.T) {
	mock, d := newMock(t)

	resources := []domain.Resource{
		{ItemID: "arxiv-2601.1", URL: "https://arxiv.org/abs/2601.1", Category: domain.CategoryPapers},
		{ItemID: "github-o-r", URL: "https://github.com/o/r", Category: domain.CategoryRepos},
		{ItemID: "tavily-x", URL: "https://example.com/x", Category: domain.CategoryArticles},
	}

	mock.ExpectExec(flexibleSQL(sqlRecordPromoted)).
		WithArgs("https://arxiv.org/abs/2601.1", "arxiv-2601.1", "papers").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(flexibleSQL(sqlRecordPromoted)).
		WithArgs("https://github.com/o/r", "github-o-r", "repos").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec(flexibleSQL(sqlRecordPromoted)).
		WithArgs("https://example.com/x", "tavily-x", "articles").
		WillReturnError(errDatabaseDown)

	added, err := d.RecordPromoted(context.Background(), resources)
	require.ErrorIs(t, err, errDatabaseDown)
	assert.Equal(t, 1, added)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotedURLs(t *testing.T) {
	mock, d := newMock(t)

	mock.ExpectQuery(flexibleSQL(sqlPromotedURLs)).
		WillReturnRows(pgxmock.NewRows([]string{"url"}).AddRow("https://a").AddRow("https://b"))

	urls, err := d.PromotedURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a", "https://b"}, urls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RequiresPool(t *testing.T) {
	_, d := newMock(t)

	require.ErrorIs(t, d.Migrate(context.Background()), errors.ErrUnsupported)
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "plain", want: "plain"},
		{in: "bad\xffbyte", want: "badbyte"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeUTF8(tt.in))
		})
	}
}
