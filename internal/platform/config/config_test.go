package config

import (
	"errors"
	"os"
	"testing"
	"time"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
)

// Test environment variable keys.
const (
	testEnvTogetherKey  = "TOGETHER_API_KEY"
	testEnvAnthropicKey = "ANTHROPIC_API_KEY"
	testEnvTavilyKey    = "TAVILY_API_KEY"
	testEnvClaudeModel  = "CLAUDE_MODEL"
	testEnvAnthropicMdl = "ANTHROPIC_MODEL"
	testEnvGHToken      = "GH_TOKEN"
	testEnvGitHubToken  = "GITHUB_TOKEN"
	testEnvMinConf      = "MIN_CONFIDENCE"
	testEnvConfAlias    = "CONFIDENCE_THRESHOLD"
	testEnvLLMTimeout   = "LLM_TIMEOUT"
)

// Test values.
const (
	testErrLoad      = "Load() error = %v"
	testDefaultModel = "claude-sonnet-4-20250514"
	testKey          = "sk-test"
)

// unsetEnv clears keys for the duration of the test and restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()

	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, testEnvAnthropicMdl, testEnvClaudeModel, testEnvMinConf, testEnvConfAlias,
		"TIER1_BATCH_SIZE", "MAX_TIER2_ITEMS", "TIER2_THRESHOLD", "DATA_DIR", testEnvLLMTimeout)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AnthropicModel != testDefaultModel {
		t.Errorf("AnthropicModel = %q, want %q", cfg.AnthropicModel, testDefaultModel)
	}

	if cfg.Tier1BatchSize != 10 {
		t.Errorf("Tier1BatchSize = %d, want 10", cfg.Tier1BatchSize)
	}

	if cfg.MaxTier2Items != 10 {
		t.Errorf("MaxTier2Items = %d, want 10", cfg.MaxTier2Items)
	}

	if cfg.Tier2Threshold != 7 {
		t.Errorf("Tier2Threshold = %v, want 7", cfg.Tier2Threshold)
	}

	if cfg.MinConfidence != 0.7 {
		t.Errorf("MinConfidence = %v, want 0.7", cfg.MinConfidence)
	}

	if cfg.DataDir != "src/data" {
		t.Errorf("DataDir = %q, want src/data", cfg.DataDir)
	}

	if cfg.LLMTimeout != 120*time.Second {
		t.Errorf("LLMTimeout = %v, want 120s", cfg.LLMTimeout)
	}
}

func TestLoad_Aliases(t *testing.T) {
	unsetEnv(t, testEnvAnthropicMdl, testEnvGitHubToken, testEnvMinConf)
	t.Setenv(testEnvClaudeModel, "claude-test")
	t.Setenv(testEnvGHToken, "ghp_test")
	t.Setenv(testEnvConfAlias, "0.8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AnthropicModel != "claude-test" {
		t.Errorf("AnthropicModel = %q, want claude-test", cfg.AnthropicModel)
	}

	if cfg.GitHubToken != "ghp_test" {
		t.Errorf("GitHubToken = %q, want ghp_test", cfg.GitHubToken)
	}

	if cfg.MinConfidence != 0.8 {
		t.Errorf("MinConfidence = %v, want 0.8", cfg.MinConfidence)
	}
}

func TestLoad_PrimaryWinsOverAlias(t *testing.T) {
	t.Setenv(testEnvAnthropicMdl, "primary")
	t.Setenv(testEnvClaudeModel, "alias")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AnthropicModel != "primary" {
		t.Errorf("AnthropicModel = %q, want primary", cfg.AnthropicModel)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv(testEnvLLMTimeout, "soon")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestRequire(t *testing.T) {
	full := &Config{TogetherAPIKey: testKey, AnthropicAPIKey: testKey, TavilyAPIKey: testKey}

	tests := []struct {
		name         string
		cfg          *Config
		stage        Stage
		req          Requirements
		wantErr      bool
		wantWarnings int
	}{
		{name: "scout with all keys", cfg: full, stage: StageScout, req: Requirements{Sources: []string{"tavily", "arxiv"}}},
		{name: "scout missing together", cfg: &Config{TavilyAPIKey: testKey}, stage: StageScout, wantErr: true},
		{name: "scout tavily source without key", cfg: &Config{TogetherAPIKey: testKey}, stage: StageScout, req: Requirements{Sources: []string{"tavily"}}, wantErr: true},
		{name: "scout without tavily source", cfg: &Config{TogetherAPIKey: testKey}, stage: StageScout, req: Requirements{Sources: []string{"arxiv"}}},
		{name: "deepdive needs anthropic", cfg: &Config{TogetherAPIKey: testKey}, stage: StageDeepDive, req: Requirements{Rescore: true}, wantErr: true, wantWarnings: 1},
		{name: "deepdive tier1 only", cfg: &Config{TogetherAPIKey: testKey}, stage: StageDeepDive, req: Requirements{Rescore: true, Tier1Only: true}, wantWarnings: 1},
		{name: "deepdive reuse scores skips together", cfg: &Config{AnthropicAPIKey: testKey, TavilyAPIKey: testKey}, stage: StageDeepDive},
		{name: "suggest needs nothing", cfg: &Config{}, stage: StageSuggest},
		{name: "dry run skips checks", cfg: &Config{}, stage: StageScout, req: Requirements{DryRun: true, Sources: []string{"tavily"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := tt.cfg.Require(tt.stage, tt.req)
			if tt.wantErr {
				if !errors.Is(err, apperrors.ErrMissingCredential) {
					t.Errorf("Require() error = %v, want ErrMissingCredential", err)
				}
			} else if err != nil {
				t.Errorf("Require() unexpected error: %v", err)
			}

			if len(warnings) != tt.wantWarnings {
				t.Errorf("Require() warnings = %v, want %d", warnings, tt.wantWarnings)
			}
		})
	}
}

func TestLoadCatalog_Default(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	if len(c.Topics) != 10 {
		t.Errorf("Topics = %d, want 10", len(c.Topics))
	}

	if !c.HasTopic("mcp") || c.HasTopic("blockchain") {
		t.Error("HasTopic() vocabulary mismatch")
	}

	if got := c.PagePath("guardrails"); got != "src/pages/topics/safety/index.astro" {
		t.Errorf("PagePath(guardrails) = %q", got)
	}

	if got := c.PagePath("new-topic"); got != "src/pages/topics/new-topic/index.astro" {
		t.Errorf("PagePath(new-topic) = %q", got)
	}

	if len(c.FoundationalURLs) != 20 {
		t.Errorf("FoundationalURLs = %d, want 20", len(c.FoundationalURLs))
	}

	if c.ArXiv.Lookback != 72*time.Hour {
		t.Errorf("ArXiv.Lookback = %v, want 72h", c.ArXiv.Lookback)
	}

	if len(c.YouTube.Channels) != 3 {
		t.Errorf("YouTube.Channels = %d, want 3", len(c.YouTube.Channels))
	}
}

func TestArXivQuery(t *testing.T) {
	a := ArXivCatalog{Categories: []string{"cs.AI", "cs.CL"}, Keywords: "(agent OR LLM)"}

	want := "(cat:cs.AI OR cat:cs.CL) AND (agent OR LLM)"
	if got := a.Query(); got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
}

func TestParseCatalog_EmptyVocabulary(t *testing.T) {
	if _, err := ParseCatalog([]byte("topics: []\n")); err == nil {
		t.Error("expected error for empty vocabulary")
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	if _, err := LoadCatalog("/nonexistent/catalog.yaml"); err == nil {
		t.Error("expected error for missing catalog file")
	}
}
