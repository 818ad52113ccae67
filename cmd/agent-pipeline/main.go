package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/app"
	"github.com/0xhubed/agent-engineering/internal/core/links"
	"github.com/0xhubed/agent-engineering/internal/core/llm"
	"github.com/0xhubed/agent-engineering/internal/output/notify"
	"github.com/0xhubed/agent-engineering/internal/platform/config"
	db "github.com/0xhubed/agent-engineering/internal/storage"
	"github.com/0xhubed/agent-engineering/internal/storage/artifacts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)

	stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

func newLogger(appEnv, level string) zerolog.Logger {
	if lvl, err := zerolog.ParseLevel(level); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// runtime holds everything a command needs and releases it on close.
type runtime struct {
	cfg      *config.Config
	logger   zerolog.Logger
	app      *app.App
	database *db.DB
	registry *llm.Registry
}

func setup(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: newLogger(cfg.AppEnv, cfg.LogLevel)}
	logger := &rt.logger

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	deps := app.Deps{
		Catalog: catalog,
		Store:   artifacts.NewStore(cfg.DataDir, logger),
		HTTP:    links.NewWebFetcher(cfg.WebFetchRPS, cfg.WebFetchTimeout),
	}

	var usageStore llm.UsageStore

	if cfg.PostgresDSN != "" {
		poolOpts := db.PoolOptions{
			MaxConns:          cfg.DBMaxConnections,
			MinConns:          cfg.DBMinConnections,
			MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
			MaxConnLifetime:   cfg.DBMaxConnLifetime,
			HealthCheckPeriod: cfg.DBHealthCheckPeriod,
		}

		rt.database, err = db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := rt.database.Migrate(ctx); err != nil {
			rt.database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		deps.Ledger = rt.database
		usageStore = rt.database
	}

	usage := llm.NewUsageRecorder(usageStore, logger)
	rt.registry = llm.New(ctx, cfg, usage, logger)
	deps.LLM = rt.registry
	deps.Usage = usage

	if rt.registry.ProviderCount() == 0 {
		logger.Warn().Msg("no LLM providers configured, only dry runs can score or analyze")
	}

	for _, st := range rt.registry.Statuses() {
		logger.Debug().
			Str("provider", string(st.Name)).
			Int("priority", st.Priority).
			Bool("available", st.Available).
			Msg("LLM provider ready")
	}

	notifier, err := notify.New(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram notifications disabled")
	} else if notifier != nil {
		deps.Notifier = notifier
	}

	rt.app = app.New(cfg, deps, logger)

	return rt, nil
}

func (rt *runtime) close() {
	rt.app.Close()

	if err := rt.registry.Close(); err != nil {
		rt.logger.Warn().Err(err).Msg("closing LLM providers failed")
	}

	if rt.database != nil {
		rt.database.Close()
	}
}
