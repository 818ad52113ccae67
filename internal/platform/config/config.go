package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	DataDir     string `env:"DATA_DIR" envDefault:"src/data"`
	CatalogPath string `env:"CATALOG_PATH"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Scoring and analysis services
	TogetherAPIKey  string `env:"TOGETHER_API_KEY"`
	TogetherBaseURL string `env:"TOGETHER_BASE_URL" envDefault:"https://api.together.xyz/v1"`
	TogetherModel   string `env:"TOGETHER_MODEL" envDefault:"openai/gpt-oss-120b"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-20250514"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIModel     string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	GoogleAPIKey    string `env:"GOOGLE_API_KEY"`
	GoogleModel     string `env:"GOOGLE_MODEL" envDefault:"gemini-2.5-flash-lite"`

	LLMRateLimitRPS     float64       `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`
	LLMTimeout          time.Duration `env:"LLM_TIMEOUT" envDefault:"120s"`
	LLMCircuitThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"3"`
	LLMCircuitTimeout   time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"5m"`
	Tier1MaxTokens      int           `env:"TIER1_MAX_TOKENS" envDefault:"4000"`
	Tier2MaxTokens      int           `env:"TIER2_MAX_TOKENS" envDefault:"2000"`

	// Sources
	TavilyAPIKey  string        `env:"TAVILY_API_KEY"`
	TavilyBaseURL string        `env:"TAVILY_BASE_URL" envDefault:"https://api.tavily.com"`
	GitHubToken   string        `env:"GITHUB_TOKEN"`
	SourceTimeout time.Duration `env:"SOURCE_TIMEOUT" envDefault:"60s"`

	// Content extraction
	WebFetchRPS     float64       `env:"WEB_FETCH_RPS" envDefault:"2"`
	WebFetchTimeout time.Duration `env:"WEB_FETCH_TIMEOUT" envDefault:"60s"`
	ExtractMaxChars int           `env:"EXTRACT_MAX_CHARS" envDefault:"15000"`

	// Tier 1
	Tier1BatchSize    int     `env:"TIER1_BATCH_SIZE" envDefault:"10"`
	Tier1SummaryChars int     `env:"TIER1_SUMMARY_CHARS" envDefault:"300"`
	Tier1Concurrency  int     `env:"TIER1_CONCURRENCY" envDefault:"2"`
	RelevanceGate     float64 `env:"RELEVANCE_GATE" envDefault:"0.5"`

	// Escalation and Tier 2
	Tier2Threshold    float64 `env:"TIER2_THRESHOLD" envDefault:"7"`
	MaxTier2Items     int     `env:"MAX_TIER2_ITEMS" envDefault:"10"`
	Tier2Concurrency  int     `env:"TIER2_CONCURRENCY" envDefault:"2"`
	Tier2ContentChars int     `env:"TIER2_CONTENT_CHARS" envDefault:"12000"`

	// Suggestions and resources
	MinConfidence          float64 `env:"MIN_CONFIDENCE" envDefault:"0.7"`
	MaxSuggestions         int     `env:"MAX_SUGGESTIONS" envDefault:"10"`
	SuggestWeeks           int     `env:"SUGGEST_WEEKS" envDefault:"4"`
	ResourceMinScore       float64 `env:"RESOURCE_MIN_SCORE" envDefault:"7"`
	ResourceMaxPerCategory int     `env:"RESOURCE_MAX_PER_CATEGORY" envDefault:"20"`

	// Ledger (optional)
	PostgresDSN         string        `env:"POSTGRES_DSN"`
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"5"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"0"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Notifications (optional)
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	// Schedule mode
	ScheduleScout     string `env:"SCHEDULE_SCOUT" envDefault:"0 6 * * *"`
	ScheduleDeepDive  string `env:"SCHEDULE_DEEPDIVE" envDefault:"0 8 * * 0"`
	ScheduleSuggest   string `env:"SCHEDULE_SUGGEST" envDefault:"0 10 * * 0"`
	ScheduleResources string `env:"SCHEDULE_RESOURCES" envDefault:"0 11 * * 0"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	return cfg, nil
}

// applyAliases fills fields from legacy variable names when the primary one is unset.
func applyAliases(cfg *Config) {
	if !hasEnv("ANTHROPIC_MODEL") {
		setStringFromEnv("CLAUDE_MODEL", &cfg.AnthropicModel)
	}

	if !hasEnv("GITHUB_TOKEN") {
		setStringFromEnv("GH_TOKEN", &cfg.GitHubToken)
	}

	if !hasEnv("MIN_CONFIDENCE") {
		setFloat64FromEnv("CONFIDENCE_THRESHOLD", &cfg.MinConfidence)
	}
}

// Stage names a pipeline run mode.
type Stage string

// Stages.
const (
	StageScout     Stage = "scout"
	StageDeepDive  Stage = "deepdive"
	StageSuggest   Stage = "suggest"
	StageResources Stage = "resources"
)

// SourceTavily is the only source that needs its own credential.
const SourceTavily = "tavily"

// Requirements describes the options a stage is about to run with.
type Requirements struct {
	DryRun    bool
	Sources   []string
	Rescore   bool
	Tier1Only bool
}

// Require checks that every credential the stage needs is present. Missing
// credentials are returned as one error wrapping ErrMissingCredential; soft
// gaps come back as warnings for the caller to log.
func (c *Config) Require(stage Stage, req Requirements) ([]string, error) {
	if req.DryRun {
		return nil, nil
	}

	var (
		missing  []error
		warnings []string
	)

	need := func(value, key string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, fmt.Errorf("%w: %s", apperrors.ErrMissingCredential, key))
		}
	}

	switch stage {
	case StageScout:
		need(c.TogetherAPIKey, "TOGETHER_API_KEY")

		if slices.Contains(req.Sources, SourceTavily) {
			need(c.TavilyAPIKey, "TAVILY_API_KEY")
		}
	case StageDeepDive:
		if req.Rescore {
			need(c.TogetherAPIKey, "TOGETHER_API_KEY")
		}

		if !req.Tier1Only {
			need(c.AnthropicAPIKey, "ANTHROPIC_API_KEY")
		}

		if c.TavilyAPIKey == "" {
			warnings = append(warnings, "TAVILY_API_KEY not set, article extraction falls back to direct fetching")
		}
	case StageSuggest, StageResources:
	}

	return warnings, errors.Join(missing...)
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setFloat64FromEnv(key string, target *float64) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	var parsed float64
	if _, err := fmt.Sscanf(strings.TrimSpace(val), "%g", &parsed); err != nil {
		return
	}

	*target = parsed
}
