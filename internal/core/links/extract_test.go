package links

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
)

const testArticleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Fallback Title</title>
  <meta property="og:title" content="Building Reliable Tool-Using Agents">
  <meta name="description" content="A practical look at tool calling.">
  <meta name="author" content="Sam Writer">
  <meta property="article:published_time" content="2026-01-20T10:00:00Z">
</head>
<body>
  <nav>Home | About</nav>
  <article>
    <h1>Building Reliable Tool-Using Agents</h1>
    <p>Agents that call tools need careful schema design. When a tool fails, the agent should
    observe the error and decide whether to retry, fall back, or ask for help. This paragraph is
    long enough for reader mode to treat it as the main body of the page.</p>
    <p>A second paragraph adds more substance about validating tool arguments before execution,
    keeping a scratchpad of observations, and bounding the number of reasoning steps so costs stay
    predictable across long-running tasks.</p>
    <p>Finally, evaluation harnesses should replay recorded tool traces so that regressions in
    planning quality are caught before they reach production users of the agent system.</p>
  </article>
</body>
</html>`

const testMetaOnlyHTML = `<html><head><title>T</title><meta name="description" content="Only a description."></head><body></body></html>`

func TestExtractWebContent(t *testing.T) {
	content, err := ExtractWebContent([]byte(testArticleHTML), "https://blog.example.com/agents", 0)
	require.NoError(t, err)

	assert.Contains(t, content.Content, "careful schema design")
	assert.Equal(t, "Sam Writer", content.Author)
	assert.Equal(t, 2026, content.PublishedAt.Year())
	assert.Positive(t, content.WordCount)
	assert.NotEmpty(t, content.Title)
}

func TestExtractWebContent_Truncates(t *testing.T) {
	content, err := ExtractWebContent([]byte(testArticleHTML), "https://blog.example.com/agents", 40)
	require.NoError(t, err)

	assert.LessOrEqual(t, len([]rune(content.Content)), 40)
}

func TestExtractWebContent_MetaFallback(t *testing.T) {
	content, err := ExtractWebContent([]byte(testMetaOnlyHTML), "https://example.com/x", 0)
	require.NoError(t, err)

	assert.Equal(t, "Only a description.", content.Content)
}

func TestExtractWebContent_Empty(t *testing.T) {
	_, err := ExtractWebContent([]byte(`<html><body></body></html>`), "https://example.com/x", 0)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyContent), "got %v", err)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string", input: "abc", maxLen: 5, want: "abc"},
		{name: "cut ascii", input: "abcdef", maxLen: 3, want: "abc"},
		{name: "cut multibyte", input: "héllo wörld", maxLen: 5, want: "héllo"},
		{name: "disabled", input: strings.Repeat("x", 10), maxLen: 0, want: strings.Repeat("x", 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.maxLen))
		})
	}
}
