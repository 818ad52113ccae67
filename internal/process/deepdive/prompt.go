package deepdive

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/core/links"
)

const promptTemplate = `You are a senior engineer writing for an agent engineering knowledge site.
Analyze the source below in depth.

SOURCE
Title: %s
URL: %s
Type: %s
Source: %s
Metadata: %s

EARLIER SCREENING
Summary: %s
Key ideas: %s
Topics: %s
Novelty: %s

SITE PAGES (topic: page path)
%s

CONTENT
%s

Respond with JSON only:
{
  "key_contribution": "<one paragraph>",
  "techniques": [{"name": "", "description": ""}],
  "code_snippets": [{"language": "", "description": "", "code": ""}],
  "practical_applications": ["<how a practitioner would use this>"],
  "site_relevance": {
    "topics": ["<site topics>"],
    "suggested_updates": [{"page": "<page path from the list>", "section": "<section name>", "suggestion": "<concrete change>"}]
  }
}`

func (a *Analyzer) buildPrompt(item domain.ScoredItem, content string) string {
	meta := "{}"
	if len(item.RawMetadata) > 0 {
		if data, err := json.Marshal(item.RawMetadata); err == nil {
			meta = string(data)
		}
	}

	return fmt.Sprintf(promptTemplate,
		item.Title,
		item.URL,
		item.Type,
		item.Source,
		meta,
		orNone(screeningSummary(item)),
		orNone(strings.Join(item.Tier1.KeyIdeas, "; ")),
		orNone(strings.Join(item.Tier1.Topics, ", ")),
		orNone(item.Tier1.Novelty),
		a.pageList(),
		links.Truncate(content, a.cfg.ContentChars),
	)
}

func (a *Analyzer) pageList() string {
	topics := make([]string, 0, len(a.cfg.TopicPages))
	for t := range a.cfg.TopicPages {
		topics = append(topics, t)
	}

	slices.Sort(topics)

	var b strings.Builder
	for _, t := range topics {
		fmt.Fprintf(&b, "- %s: %s\n", t, a.cfg.TopicPages[t])
	}

	return strings.TrimRight(b.String(), "\n")
}

// screeningSummary prefers the Tier 1 summary and falls back to the source
// summary for fallback rows that carry none.
func screeningSummary(item domain.ScoredItem) string {
	if strings.TrimSpace(item.Tier1.Summary) != "" {
		return item.Tier1.Summary
	}

	return item.Summary
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}

	return s
}
