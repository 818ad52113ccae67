package links

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
)

type WebContent struct {
	Title       string
	Description string
	Content     string
	Author      string
	PublishedAt time.Time
	WordCount   int
}

// ExtractWebContent runs reader-mode extraction over an HTML page. When
// readability finds no article body the meta description is used instead;
// ErrEmptyContent is returned only when neither yields text.
func ExtractWebContent(htmlBytes []byte, rawURL string, maxLen int) (*WebContent, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnsupportedURL, err)
	}

	meta := extractMetaTags(htmlBytes)

	content := &WebContent{
		Title:       coalesce(meta.OGTitle, meta.Title),
		Description: coalesce(meta.OGDescription, meta.Description),
		Author:      meta.Author,
		PublishedAt: parseDate(meta.PublishedTime),
	}

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), u)
	if err == nil {
		content.Title = coalesce(article.Title, content.Title)
		content.Author = coalesce(article.Byline, content.Author)
		content.Content = collapseWhitespace(article.TextContent)
	}

	if content.Content == "" {
		content.Content = content.Description
	}

	if content.Content == "" {
		return nil, apperrors.ErrEmptyContent
	}

	content.Content = Truncate(content.Content, maxLen)
	content.WordCount = len(strings.Fields(content.Content))

	return content, nil
}

type MetaTags struct {
	Title         string
	Description   string
	OGTitle       string
	OGDescription string
	Author        string
	PublishedTime string
}

func extractMetaTags(htmlBytes []byte) MetaTags {
	var meta MetaTags

	doc, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return meta
	}

	var traverse func(*html.Node)

	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode && meta.Title == "" {
					meta.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				applyMetaTag(n, &meta)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(doc)

	return meta
}

func applyMetaTag(n *html.Node, meta *MetaTags) {
	var name, content string

	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "name", "property":
			name = attr.Val
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}

	switch strings.ToLower(name) {
	case "description":
		meta.Description = content
	case "author":
		meta.Author = content
	case "og:title":
		meta.OGTitle = content
	case "og:description":
		meta.OGDescription = content
	case "article:published_time":
		meta.PublishedTime = content
	}
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}

	return t
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}

// Truncate cuts s to at most maxLen runes. maxLen <= 0 disables truncation.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	runes := []rune(s)

	return string(runes[:maxLen])
}
