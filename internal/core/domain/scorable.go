package domain

// URLKeyed is implemented by every record that can be deduplicated by URL.
// DiscoveredItem provides it directly; the richer item types inherit it
// through embedding.
type URLKeyed interface {
	GetURL() string
}

// Suggestion is one actionable recommendation derived from a suggested update.
// It references its source item by id and never owns it.
type Suggestion struct {
	Topic          string  `json:"topic"`
	TargetPage     string  `json:"page"`
	TargetSection  string  `json:"section"`
	SuggestionText string  `json:"suggestion_text"`
	Confidence     float64 `json:"confidence"`
	Item           ItemRef `json:"item"`
}

// ItemRef identifies the item a suggestion came from.
type ItemRef struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Type   ItemType `json:"type"`
	Source string   `json:"source"`
}

// RefOf builds an ItemRef for a discovered item.
func RefOf(d DiscoveredItem) ItemRef {
	return ItemRef{ID: d.ID, Title: d.Title, URL: d.URL, Type: d.Type, Source: d.Source}
}

// LowConfidenceItem records an analyzed item excluded by the confidence threshold.
type LowConfidenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Confidence float64 `json:"confidence"`
}
