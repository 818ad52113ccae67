package extraction

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	apperrors "github.com/0xhubed/agent-engineering/internal/core/errors"
)

const defaultTimedTextURL = "https://www.youtube.com/api/timedtext"

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

func (e *Extractor) transcript(ctx context.Context, item domain.DiscoveredItem) (string, error) {
	id := metaString(item.RawMetadata, "video_id")
	if id == "" {
		id = videoIDFromURL(item.URL)
	}

	if id == "" {
		return "", fmt.Errorf("%w: no video id in %s", apperrors.ErrUnsupportedURL, item.URL)
	}

	params := url.Values{}
	params.Set("lang", "en")
	params.Set("v", id)

	body, err := e.fetcher.Fetch(ctx, e.videoBase+"?"+params.Encode())
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return "", apperrors.ErrEmptyContent
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrMalformedResponse, err)
	}

	lines := make([]string, 0, len(tt.Lines))

	for _, l := range tt.Lines {
		// caption text is entity-encoded a second time inside the XML
		if text := strings.Join(strings.Fields(html.UnescapeString(l.Text)), " "); text != "" {
			lines = append(lines, text)
		}
	}

	return strings.Join(lines, " "), nil
}

func videoIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	if v := u.Query().Get("v"); v != "" {
		return v
	}

	if strings.EqualFold(u.Host, "youtu.be") {
		return strings.Trim(u.Path, "/")
	}

	return ""
}
