package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// Mock scoring values.
const (
	mockRelevanceScore = 0.8
	mockBulkScore      = 8.0
	mockTopic          = "tool-use"
	mockTokensPerItem  = 50
)

var indexPattern = regexp.MustCompile(`"index":\s*(\d+)`)

// mockProvider answers prompts with canned, well-formed responses. It backs
// dry runs so the full pipeline can execute without credentials.
type mockProvider struct{}

// NewMockProvider creates a new mock LLM provider.
func NewMockProvider() *mockProvider {
	return &mockProvider{}
}

// Name returns the provider identifier.
func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

// IsAvailable returns true as mock is always available.
func (p *mockProvider) IsAvailable() bool {
	return true
}

// Priority returns the provider priority.
func (p *mockProvider) Priority() int {
	return PriorityMock
}

// Complete implements Provider interface.
func (p *mockProvider) Complete(_ context.Context, req Request) (Response, error) {
	var body any

	switch req.Task {
	case TaskTypeBulkScore:
		body = mockScores(req.Prompt)
	case TaskTypeDeepAnalysis:
		body = mockAnalysis()
	default:
		body = map[string]string{"text": "[DRY-RUN] mock completion"}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshal mock response: %w", err)
	}

	return Response{
		Text:             string(data),
		Model:            string(ProviderMock),
		PromptTokens:     len(req.Prompt) / 4, //nolint:mnd // rough chars-per-token
		CompletionTokens: mockTokensPerItem,
	}, nil
}

func mockScores(prompt string) map[string]any {
	scores := make([]map[string]any, 0)

	for _, m := range indexPattern.FindAllStringSubmatch(prompt, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		scores = append(scores, map[string]any{
			"index":               idx,
			"relevance_score":     mockRelevanceScore,
			"bulk_score":          mockBulkScore,
			"topics":              []string{mockTopic},
			"escalation_priority": "medium",
			"recommend_deep_dive": idx == 0,
			"summary":             "[DRY-RUN] mock summary",
			"key_ideas":           []string{"[DRY-RUN] mock idea"},
			"novelty":             "[DRY-RUN] mock novelty",
		})
	}

	return map[string]any{"scores": scores}
}

func mockAnalysis() map[string]any {
	return map[string]any{
		"key_contribution": "[DRY-RUN] mock contribution",
		"techniques":       []map[string]string{{"name": "Mock technique", "description": "placeholder"}},
		"code_snippets":    []map[string]string{{"language": "python", "description": "placeholder", "code": "print('dry run')"}},
		"practical_applications": []string{
			"[DRY-RUN] mock application",
		},
		"site_relevance": map[string]any{
			"topics": []string{mockTopic},
			"suggested_updates": []map[string]string{{
				"page":       "src/pages/topics/tool-use/index.astro",
				"section":    "Further Reading",
				"suggestion": "[DRY-RUN] mock suggestion",
			}},
		},
	}
}

// Ensure mockProvider implements Provider interface.
var _ Provider = (*mockProvider)(nil)
