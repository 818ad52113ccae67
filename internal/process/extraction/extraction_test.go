package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
)

var errNotFound = errors.New("404")

type pages map[string]string

func (p pages) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	body, ok := p[rawURL]
	if !ok {
		return nil, errNotFound
	}

	return []byte(body), nil
}

type fakeArticles struct {
	available bool
	content   string
	err       error
	calls     int
}

func (f *fakeArticles) Available() bool { return f.available }

func (f *fakeArticles) Extract(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.content, f.err
}

func scoredItem(typ domain.ItemType, u, summary string, meta map[string]any) domain.ScoredItem {
	return domain.ScoredItem{DiscoveredItem: domain.DiscoveredItem{
		ID: "item", Type: typ, URL: u, Summary: summary, RawMetadata: meta,
	}}
}

const testPaperHTML = `<html><body>
<nav>arXiv nav</nav>
<article class="ltx_document">
  <h1 class="ltx_title">Planning with Tools</h1>
  <p>We present a planner.</p>
  <ul><li>First <p>nested</p> point</li></ul>
  <section class="ltx_bibliography"><p>[1] Someone 2020</p></section>
  <script>var x = 1;</script>
</article>
</body></html>`

const testAbstractHTML = `<html><body>
<h1 class="title mathjax"><span class="descriptor">Title:</span>Planning with Tools</h1>
<blockquote class="abstract mathjax"><span class="descriptor">Abstract:</span>  We study
planning for agents. </blockquote>
</body></html>`

const testTimedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.0" dur="2.1">welcome to the channel</text>
<text start="2.1" dur="3.0">today we&amp;#39;re building agents</text>
<text start="5.1" dur="1.0">   </text>
</transcript>`

func TestExtract_PaperHTML(t *testing.T) {
	e := New(pages{"https://arxiv.org/html/2602.01234": testPaperHTML}, nil, 0, nil)

	got, err := e.Extract(context.Background(), scoredItem(domain.ItemTypePaper, "https://arxiv.org/abs/2602.01234", "", map[string]any{"arxiv_id": "2602.01234"}))
	require.NoError(t, err)

	assert.Equal(t, "Planning with Tools\nWe present a planner.\nFirst nested point", got)
}

func TestExtract_PaperAbstractFallback(t *testing.T) {
	e := New(pages{"https://arxiv.org/abs/2602.01234": testAbstractHTML}, nil, 0, nil)

	got, err := e.Extract(context.Background(), scoredItem(domain.ItemTypePaper, "https://arxiv.org/abs/2602.01234v3", "", nil))
	require.NoError(t, err)

	assert.Equal(t, "Planning with Tools\nWe study planning for agents.", got)
}

func TestExtract_Transcript(t *testing.T) {
	e := New(pages{"https://www.youtube.com/api/timedtext?lang=en&v=abc123": testTimedText}, nil, 0, nil)

	got, err := e.Extract(context.Background(), scoredItem(domain.ItemTypeVideo, "https://youtube.com/watch?v=abc123", "", nil))
	require.NoError(t, err)

	assert.Equal(t, "welcome to the channel today we're building agents", got)
}

func TestExtract_TranscriptUnavailable(t *testing.T) {
	e := New(pages{"https://www.youtube.com/api/timedtext?lang=en&v=abc123": ""}, nil, 0, nil)

	_, err := e.Extract(context.Background(), scoredItem(domain.ItemTypeVideo, "https://youtube.com/watch?v=abc123", "", nil))
	require.ErrorIs(t, err, apperrors.ErrEmptyContent)
}

func TestExtract_Repo(t *testing.T) {
	e := New(pages{}, nil, 0, nil)

	got, err := e.Extract(context.Background(), scoredItem(domain.ItemTypeRepo, "https://github.com/acme/kit", "Toolkit for agents", nil))
	require.NoError(t, err)
	assert.Equal(t, "Toolkit for agents", got)

	_, err = e.Extract(context.Background(), scoredItem(domain.ItemTypeRepo, "https://github.com/acme/kit", "  ", nil))
	require.ErrorIs(t, err, apperrors.ErrEmptyContent)
}

func TestExtract_Article(t *testing.T) {
	const articleURL = "https://blog.example.com/post"

	articleHTML := `<html><head><meta name="description" content="Short description of the post."></head><body></body></html>`

	tests := []struct {
		name      string
		articles  *fakeArticles
		pages     pages
		want      string
		wantErr   error
		wantCalls int
	}{
		{
			name:      "hosted extraction",
			articles:  &fakeArticles{available: true, content: "hosted body"},
			pages:     pages{},
			want:      "hosted body",
			wantCalls: 1,
		},
		{
			name:      "hosted fails, direct fetch",
			articles:  &fakeArticles{available: true, err: errNotFound},
			pages:     pages{articleURL: articleHTML},
			want:      "Short description of the post.",
			wantCalls: 1,
		},
		{
			name:     "no key, direct fetch",
			articles: &fakeArticles{available: false, content: "unused"},
			pages:    pages{articleURL: articleHTML},
			want:     "Short description of the post.",
		},
		{
			name:     "nothing reachable",
			articles: &fakeArticles{available: false},
			pages:    pages{},
			wantErr:  apperrors.ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.pages, tt.articles, 0, nil)

			got, err := e.Extract(context.Background(), scoredItem(domain.ItemTypeArticle, articleURL, "", nil))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, tt.articles.calls)
		})
	}
}

func TestExtract_Truncates(t *testing.T) {
	e := New(pages{}, nil, 10, nil)

	got, err := e.Extract(context.Background(), scoredItem(domain.ItemTypeRepo, "https://github.com/a/b", strings.Repeat("é", 50), nil))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 10), got)
}

func TestVideoIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://youtube.com/watch?v=abc", want: "abc"},
		{url: "https://youtu.be/xyz", want: "xyz"},
		{url: "https://example.com/video", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, videoIDFromURL(tt.url))
		})
	}
}
