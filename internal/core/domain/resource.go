package domain

import "time"

// ResourceCategory is a section of the permanent resource list.
type ResourceCategory string

// Resource categories.
const (
	CategoryPapers    ResourceCategory = "papers"
	CategoryRepos     ResourceCategory = "repos"
	CategoryTutorials ResourceCategory = "tutorials"
	CategoryArticles  ResourceCategory = "articles"
)

// ResourceCategories lists categories in the order they are rendered.
var ResourceCategories = []ResourceCategory{CategoryPapers, CategoryRepos, CategoryTutorials, CategoryArticles}

// CategoryFor maps an item type to its resource category.
func CategoryFor(t ItemType) ResourceCategory {
	switch t {
	case ItemTypePaper:
		return CategoryPapers
	case ItemTypeRepo:
		return CategoryRepos
	case ItemTypeVideo:
		return CategoryTutorials
	default:
		return CategoryArticles
	}
}

// Resource is one promoted entry of the permanent resource list.
type Resource struct {
	ItemID       string           `json:"item_id,omitempty"`
	Title        string           `json:"title"`
	URL          string           `json:"url"`
	Description  string           `json:"description"`
	Category     ResourceCategory `json:"category"`
	Source       string           `json:"source"`
	Type         ItemType         `json:"type"`
	Topics       []string         `json:"topics"`
	Score        float64          `json:"score"`
	DiscoveredAt time.Time        `json:"discovered_at"`
	Metadata     map[string]any   `json:"metadata,omitempty"`
}

// GetURL returns the resource URL.
func (r Resource) GetURL() string {
	return r.URL
}

// ResourceList is the persisted set of promoted resources.
type ResourceList struct {
	LastUpdated *time.Time `json:"last_updated"`
	Papers      []Resource `json:"papers"`
	Repos       []Resource `json:"repos"`
	Tutorials   []Resource `json:"tutorials"`
	Articles    []Resource `json:"articles"`
}

// Category returns the resources stored under c.
func (l *ResourceList) Category(c ResourceCategory) []Resource {
	switch c {
	case CategoryPapers:
		return l.Papers
	case CategoryRepos:
		return l.Repos
	case CategoryTutorials:
		return l.Tutorials
	default:
		return l.Articles
	}
}

// SetCategory replaces the resources stored under c.
func (l *ResourceList) SetCategory(c ResourceCategory, resources []Resource) {
	switch c {
	case CategoryPapers:
		l.Papers = resources
	case CategoryRepos:
		l.Repos = resources
	case CategoryTutorials:
		l.Tutorials = resources
	default:
		l.Articles = resources
	}
}

// URLs returns every resource URL in the list.
func (l *ResourceList) URLs() []string {
	var urls []string

	for _, c := range ResourceCategories {
		for _, r := range l.Category(c) {
			urls = append(urls, r.URL)
		}
	}

	return urls
}
