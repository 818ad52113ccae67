package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/core/llm"
)

// rawScore is the wire shape of one scored entry. Optional fields are
// pointers so absence can be told apart from zero.
type rawScore struct {
	Index              *int     `json:"index"`
	RelevanceScore     *float64 `json:"relevance_score"`
	Topics             []string `json:"topics"`
	EscalationPriority string   `json:"escalation_priority"`
	DeepDivePriority   string   `json:"deep_dive_priority"`
	BulkScore          *float64 `json:"bulk_score"`
	RecommendDeepDive  bool     `json:"recommend_deep_dive"`
	Summary            string   `json:"summary"`
	KeyIdeas           []string `json:"key_ideas"`
	Novelty            string   `json:"novelty"`
	HasCode            bool     `json:"has_code"`
}

// parseScores decodes a scoring response. It accepts {"scores": [...]}, a
// bare array, or any object holding a single array of score objects.
func parseScores(text string) ([]rawScore, error) {
	content := llm.ExtractJSON(text)

	var wrapper struct {
		Scores  []rawScore `json:"scores"`
		Results []rawScore `json:"results"`
	}

	if err := json.Unmarshal([]byte(content), &wrapper); err == nil {
		if len(wrapper.Scores) > 0 {
			return wrapper.Scores, nil
		}

		if len(wrapper.Results) > 0 {
			return wrapper.Results, nil
		}
	}

	var arr []rawScore
	if err := json.Unmarshal([]byte(content), &arr); err == nil && arr != nil {
		return arr, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrMalformedResponse, err)
	}

	for _, key := range []string{"scores", "results"} {
		if v, ok := raw[key]; ok {
			return decodeScoreList(v)
		}
	}

	for _, v := range raw {
		var candidate []rawScore
		if err := json.Unmarshal(v, &candidate); err == nil && len(candidate) > 0 {
			return candidate, nil
		}
	}

	return nil, fmt.Errorf("%w: no score list in response", apperrors.ErrMalformedResponse)
}

// decodeScoreList accepts only a JSON array of objects. An empty array is a
// well-formed answer with no entries; any other shape is malformed.
func decodeScoreList(v json.RawMessage) ([]rawScore, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(v, &elems); err != nil || elems == nil {
		return nil, fmt.Errorf("%w: scores is not a list", apperrors.ErrMalformedResponse)
	}

	scores := make([]rawScore, 0, len(elems))

	for i, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			return nil, fmt.Errorf("%w: score %d is not an object", apperrors.ErrMalformedResponse, i)
		}

		var r rawScore
		if err := json.Unmarshal(e, &r); err != nil {
			return nil, fmt.Errorf("%w: score %d: %w", apperrors.ErrMalformedResponse, i, err)
		}

		scores = append(scores, r)
	}

	return scores, nil
}

// toResult validates one entry into a Tier1Result.
func (s *Scorer) toResult(r rawScore) domain.Tier1Result {
	relevance := 0.0
	if r.RelevanceScore != nil {
		relevance = clamp(*r.RelevanceScore, 0, 1)
	}

	priority := r.EscalationPriority
	if priority == "" {
		priority = r.DeepDivePriority
	}

	bulk := relevance * bulkScale
	if r.BulkScore != nil {
		bulk = clamp(*r.BulkScore, 0, bulkScale)
	}

	return domain.Tier1Result{
		RelevanceScore:     relevance,
		Topics:             s.filterTopics(r.Topics),
		EscalationPriority: domain.ParsePriority(priority),
		BulkScore:          bulk,
		RecommendDeepDive:  r.RecommendDeepDive,
		Summary:            r.Summary,
		KeyIdeas:           r.KeyIdeas,
		Novelty:            r.Novelty,
		HasCode:            r.HasCode,
	}
}

func (s *Scorer) filterTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	seen := make(map[string]bool, len(topics))

	for _, t := range topics {
		if s.vocab[t] && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	return out
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
