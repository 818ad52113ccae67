package deepdive

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/core/llm"
)

type rawUpdate struct {
	Page           string `json:"page"`
	TargetPage     string `json:"target_page"`
	Section        string `json:"section"`
	TargetSection  string `json:"target_section"`
	Suggestion     string `json:"suggestion"`
	SuggestionText string `json:"suggestion_text"`
}

type rawAnalysis struct {
	KeyContribution       *string              `json:"key_contribution"`
	Techniques            []domain.Technique   `json:"techniques"`
	CodeSnippets          []domain.CodeSnippet `json:"code_snippets"`
	PracticalApplications []string             `json:"practical_applications"`
	SiteRelevance         struct {
		Topics           []string    `json:"topics"`
		SuggestedUpdates []rawUpdate `json:"suggested_updates"`
	} `json:"site_relevance"`
}

// parseAnalysis decodes a Tier 2 response. A response that is not a JSON
// object or lacks key_contribution is malformed.
func parseAnalysis(text string) (domain.DeepAnalysis, error) {
	var raw rawAnalysis

	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &raw); err != nil {
		return domain.DeepAnalysis{}, fmt.Errorf("%w: %w", apperrors.ErrMalformedResponse, err)
	}

	if raw.KeyContribution == nil {
		return domain.DeepAnalysis{}, fmt.Errorf("%w: missing key_contribution", apperrors.ErrMalformedResponse)
	}

	updates := make([]domain.SuggestedUpdate, 0, len(raw.SiteRelevance.SuggestedUpdates))

	for _, u := range raw.SiteRelevance.SuggestedUpdates {
		su := domain.SuggestedUpdate{
			TargetPage:     firstNonEmpty(u.Page, u.TargetPage),
			TargetSection:  firstNonEmpty(u.Section, u.TargetSection),
			SuggestionText: firstNonEmpty(u.Suggestion, u.SuggestionText),
		}

		if su.SuggestionText == "" {
			continue
		}

		updates = append(updates, su)
	}

	return domain.DeepAnalysis{
		KeyContribution:       strings.TrimSpace(*raw.KeyContribution),
		Techniques:            nonNil(raw.Techniques),
		CodeSnippets:          nonNil(raw.CodeSnippets),
		PracticalApplications: nonNil(raw.PracticalApplications),
		SiteRelevance: domain.SiteRelevance{
			Topics:           nonNil(raw.SiteRelevance.Topics),
			SuggestedUpdates: updates,
		},
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
