package config

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog holds the topic vocabulary, page map and source lists.
type Catalog struct {
	Topics           []string          `yaml:"topics"`
	TopicPages       map[string]string `yaml:"topic_pages"`
	Tavily           TavilyCatalog     `yaml:"tavily"`
	ArXiv            ArXivCatalog      `yaml:"arxiv"`
	YouTube          YouTubeCatalog    `yaml:"youtube"`
	GitHub           GitHubCatalog     `yaml:"github"`
	FoundationalURLs []string          `yaml:"foundational_urls"`
}

type TavilyCatalog struct {
	SearchDepth string   `yaml:"search_depth"`
	MaxResults  int      `yaml:"max_results"`
	Queries     []string `yaml:"queries"`
}

type ArXivCatalog struct {
	Categories []string      `yaml:"categories"`
	Keywords   string        `yaml:"keywords"`
	MaxResults int           `yaml:"max_results"`
	Lookback   time.Duration `yaml:"lookback"`
}

// Query builds the arXiv search_query expression.
func (a ArXivCatalog) Query() string {
	cats := make([]string, 0, len(a.Categories))
	for _, c := range a.Categories {
		cats = append(cats, "cat:"+c)
	}

	q := "(" + strings.Join(cats, " OR ") + ")"
	if a.Keywords != "" {
		q += " AND " + a.Keywords
	}

	return q
}

type YouTubeCatalog struct {
	Lookback time.Duration    `yaml:"lookback"`
	Channels []YouTubeChannel `yaml:"channels"`
}

type YouTubeChannel struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type GitHubCatalog struct {
	Topics   []string      `yaml:"topics"`
	PerTopic int           `yaml:"per_topic"`
	Lookback time.Duration `yaml:"lookback"`
}

// LoadCatalog reads the catalog at path, or the embedded default when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog %s: %w", path, err)
		}

		data = b
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if len(c.Topics) == 0 {
		return nil, fmt.Errorf("parsing catalog: topic vocabulary is empty")
	}

	return &c, nil
}

// HasTopic reports whether t belongs to the controlled vocabulary.
func (c *Catalog) HasTopic(t string) bool {
	return slices.Contains(c.Topics, t)
}

// PagePath returns the page that hosts a topic, falling back to the
// conventional topics/<slug> location.
func (c *Catalog) PagePath(topic string) string {
	if p, ok := c.TopicPages[topic]; ok {
		return p
	}

	return "src/pages/topics/" + topic + "/index.astro"
}
