package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "pure_object",
			input: `{"key":"value"}`,
			want:  `{"key":"value"}`,
		},
		{
			name:  "pure_array",
			input: `[{"a":1}]`,
			want:  `[{"a":1}]`,
		},
		{
			name:  "object_with_preamble",
			input: `Here: {"key":"value"} done.`,
			want:  `{"key":"value"}`,
		},
		{
			name:  "markdown_json_fence",
			input: "```json\n{\"scores\":[{\"index\":0}]}\n```",
			want:  `{"scores":[{"index":0}]}`,
		},
		{
			name:  "bare_fence_with_prose",
			input: "Sure, here you go:\n```\n{\"a\":1}\n```\nLet me know.",
			want:  `{"a":1}`,
		},
		{
			name:  "brackets_inside_strings",
			input: `prefix {"arr":"[1,2,3]","key":"va}l"} suffix`,
			want:  `{"arr":"[1,2,3]","key":"va}l"}`,
		},
		{
			name:  "invalid_braces_then_valid_object",
			input: `text { not json } then {"ok":true}`,
			want:  `{"ok":true}`,
		},
		{
			name:  "no_json",
			input: "  just some text ",
			want:  "just some text",
		},
		{
			name:  "truncated_object",
			input: `{"scores":[{"index":0`,
			want:  `{"scores":[{"index":0`,
		},
		{
			name:  "fence_inside_unfenced_string",
			input: "{\"key_contribution\":\"x\",\"code_snippets\":[{\"code\":\"```python\\nprint(1)\\n```\"}]}",
			want:  "{\"key_contribution\":\"x\",\"code_snippets\":[{\"code\":\"```python\\nprint(1)\\n```\"}]}",
		},
		{
			name:  "fence_inside_fenced_string",
			input: "```json\n{\"code\":\"```go\\nfmt.Println()\\n```\"}\n```",
			want:  "{\"code\":\"```go\\nfmt.Println()\\n```\"}",
		},
		{
			name:  "nested_objects",
			input: `{"site_relevance":{"topics":["mcp"],"suggested_updates":[]}}`,
			want:  `{"site_relevance":{"topics":["mcp"],"suggested_updates":[]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			if got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
