package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/process/suggestions"
)

func sampleInput() Input {
	ref := domain.ItemRef{ID: "arxiv-2601.1", Title: "Planning with Tools", URL: "https://arxiv.org/abs/2601.1", Type: domain.ItemTypePaper}

	return Input{
		Week:            "2026-W03",
		SourcesAnalyzed: 7,
		PassedThreshold: 2,
		Threshold:       0.7,
		Groups: []suggestions.Group{
			{Topic: "planning", Suggestions: []domain.Suggestion{
				{Topic: "planning", TargetPage: "src/pages/topics/planning/index.astro", TargetSection: "Patterns", SuggestionText: "Add plan-and-execute.", Confidence: 0.92, Item: ref},
				{Topic: "planning", TargetPage: "src/pages/topics/planning/advanced.astro", SuggestionText: "Mention replanning.", Confidence: 0.8, Item: ref},
			}},
			{Topic: "unknown", Suggestions: []domain.Suggestion{
				{Topic: "unknown", TargetPage: "src/pages/about.astro", TargetSection: "Intro", SuggestionText: "Link the paper.", Confidence: 0.75, Item: ref},
			}},
		},
		Skipped: []domain.LowConfidenceItem{{ID: "x", Title: "Weak", URL: "https://example.com/weak", Confidence: 0.41}},
		PagePath: func(topic string) (string, bool) {
			if topic == "planning" {
				return "src/pages/topics/planning/index.astro", true
			}

			return "", false
		},
	}
}

func render(t *testing.T, in Input) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).Write(in))

	return buf.String()
}

func TestWriter_Write(t *testing.T) {
	out := render(t, sampleInput())

	tests := []struct {
		name string
		want string
	}{
		{name: "title", want: "# Content Suggestions 2026-W03"},
		{name: "threshold", want: "0.70"},
		{name: "suggestion count", want: "Suggestions generated"},
		{name: "topic heading", want: "## Topic: `planning`"},
		{name: "topic file", want: "**File:** `src/pages/topics/planning/index.astro`"},
		{name: "first change", want: "### Change 1: Patterns"},
		{name: "default section", want: "### Change 2: New Section"},
		{name: "other page noted", want: "**Target page:** `src/pages/topics/planning/advanced.astro`"},
		{name: "source link", want: "**Source:** [Planning with Tools](https://arxiv.org/abs/2601.1)"},
		{name: "confidence", want: "**Confidence:** 0.92"},
		{name: "text", want: "Add plan-and-execute."},
		{name: "unknown topic file", want: "**File:** `-`"},
		{name: "chart", want: "mermaid"},
		{name: "skipped", want: "Below threshold (1)"},
		{name: "skipped confidence", want: "0.41"},
		{name: "guidelines", want: "## Review Guidelines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, out, tt.want)
		})
	}

	assert.NotContains(t, out, "**Target page:** `src/pages/topics/planning/index.astro`")
	assert.Less(t, strings.Index(out, "Topic: `planning`"), strings.Index(out, "Topic: `unknown`"))
}

func TestWriter_Empty(t *testing.T) {
	out := render(t, Input{Week: "2026-W04", Threshold: 0.7})

	assert.Contains(t, out, "No suggestions passed the confidence threshold")
	assert.NotContains(t, out, "## Topic:")
	assert.NotContains(t, out, "Below threshold")
	assert.NotContains(t, out, "mermaid")
}

func TestPagePath_Default(t *testing.T) {
	in := Input{}

	assert.Equal(t, "src/pages/topics/memory/index.astro", pagePath(in, "memory"))
	assert.Equal(t, emptyCell, pagePath(in, suggestions.UnknownTopic))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{in: "short", max: 10, want: "short"},
		{in: "abcdefghij", max: 8, want: "abcde..."},
		{in: "ééééé", max: 4, want: "é..."},
		{in: "abcdef", max: 2, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.max))
		})
	}
}
