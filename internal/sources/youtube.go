package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/0xhubed/agent-engineering/internal/platform/config"
)

const (
	defaultYouTubeFeedURL = "https://www.youtube.com/feeds/videos.xml"
	youtubeWatchBase      = "https://youtube.com/watch?v="
	defaultVideoLookback  = 7 * 24 * time.Hour
)

// YouTube reads the public upload feed of each configured channel.
type YouTube struct {
	client  HTTPClient
	feedURL string
	cfg     config.YouTubeCatalog
	now     func() time.Time
	parser  *gofeed.Parser
	logger  *zerolog.Logger
}

func NewYouTube(client HTTPClient, cfg config.YouTubeCatalog, now func() time.Time, logger *zerolog.Logger) *YouTube {
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultVideoLookback
	}

	return &YouTube{
		client:  client,
		feedURL: defaultYouTubeFeedURL,
		cfg:     cfg,
		now:     now,
		parser:  gofeed.NewParser(),
		logger:  logger,
	}
}

func (y *YouTube) Name() string { return SourceYouTube }

func (y *YouTube) Fetch(ctx context.Context) ([]RawRecord, error) {
	cutoff := y.now().Add(-y.cfg.Lookback)

	var records []RawRecord

	for _, ch := range y.cfg.Channels {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}

		feed, err := y.fetchChannel(ctx, ch.ID)
		if err != nil {
			y.logger.Warn().Err(err).Str(metaKeyChannel, ch.Name).Msg("youtube feed failed")
			continue
		}

		for _, item := range feed.Items {
			if olderThan(item.PublishedParsed, cutoff) {
				continue
			}

			videoID := youtubeVideoID(item)
			if videoID == "" {
				continue
			}

			records = append(records, RawRecord{
				Source:     SourceYouTube,
				ExternalID: videoID,
				Type:       "video",
				Title:      item.Title,
				URL:        youtubeWatchBase + videoID,
				Summary:    youtubeDescription(item),
				Published:  item.Published,
				Metadata: map[string]any{
					metaKeyVideoID:   videoID,
					metaKeyChannel:   ch.Name,
					metaKeyChannelID: ch.ID,
				},
			})
		}
	}

	return dedupByURL(records), nil
}

func (y *YouTube) fetchChannel(ctx context.Context, channelID string) (*gofeed.Feed, error) {
	body, err := y.client.Fetch(ctx, y.feedURL+"?channel_id="+url.QueryEscape(channelID))
	if err != nil {
		return nil, fmt.Errorf("fetch channel feed: %w", err)
	}

	feed, err := y.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse channel feed: %w", err)
	}

	return feed, nil
}

func youtubeVideoID(item *gofeed.Item) string {
	if ids := item.Extensions["yt"]["videoId"]; len(ids) > 0 && ids[0].Value != "" {
		return ids[0].Value
	}

	u, err := url.Parse(item.Link)
	if err != nil {
		return ""
	}

	return u.Query().Get("v")
}

func youtubeDescription(item *gofeed.Item) string {
	if item.Description != "" {
		return item.Description
	}

	groups := item.Extensions["media"]["group"]
	if len(groups) == 0 {
		return ""
	}

	if desc := groups[0].Children["description"]; len(desc) > 0 {
		return desc[0].Value
	}

	return ""
}
