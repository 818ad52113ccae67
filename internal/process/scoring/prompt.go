package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/core/links"
)

const promptTemplate = `You are screening research content for an agent engineering knowledge site.

Score each item for relevance to building LLM-based agents.

Allowed topics (use only these): %s

For every item return an object with:
- "index": <int, the item's index>
- "relevance_score": <float 0.0-1.0>
- "topics": [<allowed topics>]
- "escalation_priority": "high" | "medium" | "low"
- "bulk_score": <int 1-10, how much a deep analysis would add to the site>
- "recommend_deep_dive": <bool>
- "summary": <one or two sentences>
- "key_ideas": [<short strings>]
- "novelty": <what is new, one sentence>
- "has_code": <bool>

Respond with JSON only, in the form {"scores": [ ... ]}.

ITEMS:
%s`

type promptItem struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	Source  string `json:"source"`
	Summary string `json:"summary"`
}

func (s *Scorer) buildPrompt(batch []domain.DiscoveredItem) (string, error) {
	items := make([]promptItem, len(batch))

	for i, it := range batch {
		items[i] = promptItem{
			Index:   i,
			Title:   it.Title,
			Type:    string(it.Type),
			Source:  it.Source,
			Summary: links.Truncate(it.Summary, s.cfg.SummaryChars),
		}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal batch: %w", err)
	}

	return fmt.Sprintf(promptTemplate, strings.Join(s.cfg.Vocabulary, ", "), data), nil
}
