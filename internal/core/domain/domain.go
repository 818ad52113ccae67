package domain

import "strings"

// ItemType classifies a discovered item by the kind of source unit it is.
type ItemType string

// Item type constants.
const (
	ItemTypePaper   ItemType = "paper"
	ItemTypeVideo   ItemType = "video"
	ItemTypeRepo    ItemType = "repo"
	ItemTypeArticle ItemType = "article"
	ItemTypeUnknown ItemType = "unknown"
)

// ParseItemType maps free-form type strings onto the known item types.
func ParseItemType(s string) ItemType {
	switch t := ItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case ItemTypePaper, ItemTypeVideo, ItemTypeRepo, ItemTypeArticle:
		return t
	default:
		return ItemTypeUnknown
	}
}

// Priority is the escalation priority assigned by Tier 1 scoring.
type Priority string

// Priority constants.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority normalizes a priority string. Unrecognized values become low.
func ParsePriority(s string) Priority {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityHigh, PriorityMedium:
		return p
	default:
		return PriorityLow
	}
}

// DiscoveredItem is one candidate source unit after normalization.
type DiscoveredItem struct {
	ID          string         `json:"id"`
	Type        ItemType       `json:"type"`
	Title       string         `json:"title"`
	URL         string         `json:"url"`
	Source      string         `json:"source"`
	Summary     string         `json:"summary"`
	RawMetadata map[string]any `json:"raw_metadata,omitempty"`
}

// GetURL returns the item URL.
func (d DiscoveredItem) GetURL() string {
	return d.URL
}

// FallbackKind records why a Tier 1 result holds default values.
type FallbackKind string

// Fallback kinds. The zero value means the scoring service answered for the item.
const (
	FallbackNone         FallbackKind = ""
	FallbackMissingIndex FallbackKind = "missing_index"
	FallbackBatchFailure FallbackKind = "batch_failure"
)

// Tier1Result holds the bulk scoring output for one item.
type Tier1Result struct {
	RelevanceScore     float64      `json:"relevance_score"`
	Topics             []string     `json:"topics"`
	EscalationPriority Priority     `json:"escalation_priority"`
	BulkScore          float64      `json:"bulk_score"`
	RecommendDeepDive  bool         `json:"recommend_deep_dive"`
	Summary            string       `json:"summary,omitempty"`
	KeyIdeas           []string     `json:"key_ideas,omitempty"`
	Novelty            string       `json:"novelty,omitempty"`
	HasCode            bool         `json:"has_code,omitempty"`
	Fallback           FallbackKind `json:"fallback,omitempty"`
}

// ScoredItem is a DiscoveredItem together with its Tier 1 output.
type ScoredItem struct {
	DiscoveredItem
	Tier1 Tier1Result `json:"tier1_analysis"`
}

// EscalationFlagged reports whether Tier 1 explicitly asked for deep analysis.
func (s ScoredItem) EscalationFlagged() bool {
	return s.Tier1.RecommendDeepDive || s.Tier1.EscalationPriority == PriorityHigh
}

// Technique is a named method described by a deep analysis.
type Technique struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CodeSnippet is code extracted or reconstructed by a deep analysis.
type CodeSnippet struct {
	Language    string `json:"language"`
	Description string `json:"description"`
	Code        string `json:"code"`
}

// SuggestedUpdate is one page-targeted content change proposed by a deep analysis.
type SuggestedUpdate struct {
	TargetPage     string `json:"page"`
	TargetSection  string `json:"section"`
	SuggestionText string `json:"suggestion"`
}

// SiteRelevance maps an analysis onto the site's topics and pages.
type SiteRelevance struct {
	Topics           []string          `json:"topics"`
	SuggestedUpdates []SuggestedUpdate `json:"suggested_updates"`
}

// DeepAnalysis is the Tier 2 output. Error is set when the analysis failed,
// in which case the remaining fields hold empty defaults.
type DeepAnalysis struct {
	KeyContribution       string        `json:"key_contribution"`
	Techniques            []Technique   `json:"techniques"`
	CodeSnippets          []CodeSnippet `json:"code_snippets"`
	PracticalApplications []string      `json:"practical_applications"`
	SiteRelevance         SiteRelevance `json:"site_relevance"`
	Error                 string        `json:"error,omitempty"`
}

// Failed reports whether the analysis carries an error marker.
func (d DeepAnalysis) Failed() bool {
	return d.Error != ""
}

// AnalyzedItem is a ScoredItem that went through Tier 2.
type AnalyzedItem struct {
	ScoredItem
	DeepDive      DeepAnalysis `json:"deep_dive"`
	ContentLength int          `json:"content_length"`
}

// AnalysisRecord is one entry of a deep-dive artifact. DeepDive is nil for
// items that only received Tier 1 processing.
type AnalysisRecord struct {
	ScoredItem
	DeepDive      *DeepAnalysis `json:"deep_dive,omitempty"`
	ContentLength int           `json:"content_length,omitempty"`
}

// Analyzed returns the record as an AnalyzedItem when it carries a deep dive.
func (r AnalysisRecord) Analyzed() (AnalyzedItem, bool) {
	if r.DeepDive == nil {
		return AnalyzedItem{}, false
	}

	return AnalyzedItem{ScoredItem: r.ScoredItem, DeepDive: *r.DeepDive, ContentLength: r.ContentLength}, true
}

// RecordFromAnalyzed converts an AnalyzedItem to its artifact form.
func RecordFromAnalyzed(a AnalyzedItem) AnalysisRecord {
	dd := a.DeepDive

	return AnalysisRecord{ScoredItem: a.ScoredItem, DeepDive: &dd, ContentLength: a.ContentLength}
}
