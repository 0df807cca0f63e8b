package model

import "fmt"

const watchURL = "https://www.youtube.com/watch?v=%s"

type YoutubeVideoID string

type YoutubeChannelID string

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int64  `json:"width,omitempty"`
	Height int64  `json:"height,omitempty"`
}

// Video is a search result for a channel, built fresh on every poll.
type Video struct {
	YoutubeID           YoutubeVideoID       `json:"videoId"`
	YoutubePublishedAt  Watermark            `json:"publishedAt"`
	YoutubeTitle        string               `json:"title"`
	YoutubeDescription  string               `json:"description"`
	YoutubeThumbnails   map[string]Thumbnail `json:"thumbnails"`
	YoutubeChannelID    YoutubeChannelID     `json:"channelId"`
	YoutubeChannelTitle string               `json:"channelTitle"`
	URL                 string               `json:"url"`
}

func WatchURL(id YoutubeVideoID) string {
	return fmt.Sprintf(watchURL, id)
}
