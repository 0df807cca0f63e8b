package fetch

import (
	"context"
	"io"
	"sync"

	"ewintr.nl/chanwatch/model"
	"golang.org/x/exp/slog"
	"google.golang.org/api/youtube/v3"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryRepo struct {
	mu     sync.Mutex
	wms    map[model.YoutubeChannelID]model.Watermark
	gets   int
	puts   int
	getErr error
	putErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{wms: map[model.YoutubeChannelID]model.Watermark{}}
}

func (m *memoryRepo) Get(_ context.Context, channelID model.YoutubeChannelID) (model.Watermark, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return "", false, m.getErr
	}
	wm, ok := m.wms[channelID]
	return wm, ok, nil
}

func (m *memoryRepo) Put(_ context.Context, channelID model.YoutubeChannelID, wm model.Watermark) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.wms[channelID] = wm
	return nil
}

func (m *memoryRepo) watermark(channelID model.YoutubeChannelID) (model.Watermark, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wm, ok := m.wms[channelID]
	return wm, ok
}

type fakeSearcher struct {
	mu      sync.Mutex
	items   map[model.YoutubeChannelID][]*youtube.SearchResult
	errs    map[model.YoutubeChannelID]error
	queries []SearchQuery
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		items: map[model.YoutubeChannelID][]*youtube.SearchResult{},
		errs:  map[model.YoutubeChannelID]error{},
	}
}

func (f *fakeSearcher) Search(_ context.Context, query SearchQuery) ([]*youtube.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err := f.errs[query.ChannelID]; err != nil {
		return nil, err
	}
	return f.items[query.ChannelID], nil
}

func (f *fakeSearcher) set(channelID model.YoutubeChannelID, items ...*youtube.SearchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[channelID] = items
}

func (f *fakeSearcher) lastQuery() SearchQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func searchItem(videoID, publishedAt string) *youtube.SearchResult {
	return &youtube.SearchResult{
		Id: &youtube.ResourceId{Kind: "youtube#video", VideoId: videoID},
		Snippet: &youtube.SearchResultSnippet{
			PublishedAt:  publishedAt,
			Title:        "title " + videoID,
			Description:  "description " + videoID,
			ChannelTitle: "channel",
			Thumbnails: &youtube.ThumbnailDetails{
				Default: &youtube.Thumbnail{Url: "https://i.ytimg.com/vi/" + videoID + "/default.jpg", Width: 120, Height: 90},
			},
		},
	}
}
