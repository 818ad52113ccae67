package extraction

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
	"github.com/0xhubed/agent-engineering/internal/sources"
)

const (
	defaultArXivBase = "https://arxiv.org"

	paperBodySelector  = "article, div.ltx_page_content"
	paperBlockSelector = "h1, h2, h3, h4, p, li, figcaption"
	abstractSelector   = "blockquote.abstract"
)

// paper reads the HTML rendering of an arXiv paper. Papers without one fall
// back to the abstract page.
func (e *Extractor) paper(ctx context.Context, item domain.DiscoveredItem) (string, error) {
	id := metaString(item.RawMetadata, "arxiv_id")
	if id == "" {
		id = sources.ArXivID(item.URL)
	}

	if id == "" {
		return "", fmt.Errorf("%w: no arxiv id in %s", apperrors.ErrUnsupportedURL, item.URL)
	}

	text, err := e.paperHTML(ctx, id)
	if err == nil && text != "" {
		return text, nil
	}

	e.logger.Debug().Err(err).Str(logKeyItem, item.ID).Msg("arxiv html unavailable, using abstract")

	return e.paperAbstract(ctx, id)
}

func (e *Extractor) paperHTML(ctx context.Context, id string) (string, error) {
	doc, err := e.document(ctx, e.arxivBase+"/html/"+id)
	if err != nil {
		return "", err
	}

	body := doc.Find(paperBodySelector).First()
	if body.Length() == 0 {
		body = doc.Find("body")
	}

	body.Find("script, style, nav, header, footer, .ltx_bibliography").Remove()

	var blocks []string

	body.Find(paperBlockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("li, p").Length() > 0 {
			return
		}

		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			blocks = append(blocks, text)
		}
	})

	return strings.Join(blocks, "\n"), nil
}

func (e *Extractor) paperAbstract(ctx context.Context, id string) (string, error) {
	doc, err := e.document(ctx, e.arxivBase+"/abs/"+id)
	if err != nil {
		return "", err
	}

	abstract := doc.Find(abstractSelector).First()
	abstract.Find(".descriptor").Remove()

	title := strings.TrimPrefix(strings.TrimSpace(doc.Find("h1.title").First().Text()), "Title:")
	text := strings.Join(strings.Fields(abstract.Text()), " ")

	if text == "" {
		return "", apperrors.ErrEmptyContent
	}

	return strings.TrimSpace(strings.TrimSpace(title) + "\n" + text), nil
}

func (e *Extractor) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	body, err := e.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return doc, nil
}
