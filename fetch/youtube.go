package fetch

import (
	"context"
	"fmt"
	"time"

	"ewintr.nl/chanwatch/model"
	"google.golang.org/api/youtube/v3"
)

type SearchQuery struct {
	ChannelID      model.YoutubeChannelID
	PublishedAfter model.Watermark
	MaxResults     int64
}

// ChannelSearcher returns one page of videos of a channel, newest first.
type ChannelSearcher interface {
	Search(ctx context.Context, query SearchQuery) ([]*youtube.SearchResult, error)
}

type Youtube struct {
	Client  *youtube.Service
	timeout time.Duration
}

func NewYoutube(client *youtube.Service, timeout time.Duration) *Youtube {
	return &Youtube{Client: client, timeout: timeout}
}

func (y *Youtube) Search(ctx context.Context, query SearchQuery) ([]*youtube.SearchResult, error) {
	if y.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.timeout)
		defer cancel()
	}

	call := y.Client.Search.
		List([]string{"id", "snippet"}).
		MaxResults(query.MaxResults).
		Type("video").
		Order("date").
		ChannelId(string(query.ChannelID)).
		PublishedAfter(string(query.PublishedAfter)).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("%w: search channel %s: %w", model.ErrNetwork, query.ChannelID, err)
	}

	return response.Items, nil
}

func toVideo(channelID model.YoutubeChannelID, item *youtube.SearchResult) (*model.Video, error) {
	switch {
	case item == nil:
		return nil, fmt.Errorf("%w: empty search item", model.ErrMalformedResponse)
	case item.Id == nil || item.Id.VideoId == "":
		return nil, fmt.Errorf("%w: search item without video id", model.ErrMalformedResponse)
	case item.Snippet == nil:
		return nil, fmt.Errorf("%w: video %s has no snippet", model.ErrMalformedResponse, item.Id.VideoId)
	case item.Snippet.PublishedAt == "":
		return nil, fmt.Errorf("%w: video %s has no publish time", model.ErrMalformedResponse, item.Id.VideoId)
	}

	publishedAt, err := model.ParseWatermark(item.Snippet.PublishedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: video %s: %w", model.ErrMalformedResponse, item.Id.VideoId, err)
	}

	ytID := model.YoutubeVideoID(item.Id.VideoId)
	return &model.Video{
		YoutubeID:           ytID,
		YoutubePublishedAt:  publishedAt,
		YoutubeTitle:        item.Snippet.Title,
		YoutubeDescription:  item.Snippet.Description,
		YoutubeThumbnails:   thumbnails(item.Snippet.Thumbnails),
		YoutubeChannelID:    channelID,
		YoutubeChannelTitle: item.Snippet.ChannelTitle,
		URL:                 model.WatchURL(ytID),
	}, nil
}

func thumbnails(details *youtube.ThumbnailDetails) map[string]model.Thumbnail {
	thumbs := map[string]model.Thumbnail{}
	if details == nil {
		return thumbs
	}

	for name, t := range map[string]*youtube.Thumbnail{
		"default":  details.Default,
		"medium":   details.Medium,
		"high":     details.High,
		"standard": details.Standard,
		"maxres":   details.Maxres,
	} {
		if t == nil {
			continue
		}
		thumbs[name] = model.Thumbnail{
			URL:    t.Url,
			Width:  t.Width,
			Height: t.Height,
		}
	}

	return thumbs
}
