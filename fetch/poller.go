package fetch

import (
	"context"
	"fmt"
	"time"

	"ewintr.nl/chanwatch/model"
	"ewintr.nl/chanwatch/storage"
	"golang.org/x/exp/slog"
)

const (
	MaxResults         = 50
	FirstContactWindow = 24 * time.Hour
)

type Poller struct {
	watermarks     storage.WatermarkRepository
	searcher       ChannelSearcher
	storageTimeout time.Duration
	locks          *channelLocks
	now            func() time.Time
	logger         *slog.Logger
}

func NewPoller(watermarks storage.WatermarkRepository, searcher ChannelSearcher, storageTimeout time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		watermarks:     watermarks,
		searcher:       searcher,
		storageTimeout: storageTimeout,
		locks:          newChannelLocks(),
		now:            time.Now,
		logger:         logger,
	}
}

// Poll returns the videos of a channel published since its watermark and
// advances the watermark. Any failure leaves the stored watermark as it was.
func (p *Poller) Poll(ctx context.Context, channelID model.YoutubeChannelID) model.PollResult {
	unlock := p.locks.lock(channelID)
	defer unlock()

	videos, err := p.poll(ctx, channelID)
	if err != nil {
		p.logger.Error("failed to poll channel", slog.String("channelid", string(channelID)), slog.String("kind", string(model.KindOf(err))), slog.String("err", err.Error()))
		return model.PollResult{ChannelID: channelID, Err: err}
	}

	return model.PollResult{ChannelID: channelID, Videos: videos}
}

func (p *Poller) poll(ctx context.Context, channelID model.YoutubeChannelID) ([]*model.Video, error) {
	since, err := p.lowerBound(ctx, channelID)
	if err != nil {
		return nil, err
	}

	items, err := p.searcher.Search(ctx, SearchQuery{
		ChannelID:      channelID,
		PublishedAfter: since,
		MaxResults:     MaxResults,
	})
	if err != nil {
		return nil, kinded(err, model.ErrNetwork)
	}

	videos := make([]*model.Video, 0, len(items))
	latest := since
	for _, item := range items {
		video, err := toVideo(channelID, item)
		if err != nil {
			return nil, err
		}
		// already covered by the watermark
		if !video.YoutubePublishedAt.After(since) {
			continue
		}
		videos = append(videos, video)
		if video.YoutubePublishedAt.After(latest) {
			latest = video.YoutubePublishedAt
		}
	}

	if latest.After(since) {
		if err := p.put(ctx, channelID, latest); err != nil {
			return nil, err
		}
		p.logger.Info("advanced watermark", slog.String("channelid", string(channelID)), slog.String("from", string(since)), slog.String("to", string(latest)))
	}

	p.logger.Info("polled channel", slog.String("channelid", string(channelID)), slog.Int("count", len(videos)))
	return videos, nil
}

// lowerBound is the stored watermark, or now minus FirstContactWindow when
// the channel was never polled successfully. A failing store is an error,
// not a first contact.
func (p *Poller) lowerBound(ctx context.Context, channelID model.YoutubeChannelID) (model.Watermark, error) {
	ctx, cancel := p.storageContext(ctx)
	defer cancel()

	wm, ok, err := p.watermarks.Get(ctx, channelID)
	if err != nil {
		return "", kinded(err, model.ErrStorage)
	}
	if !ok {
		return model.NewWatermark(p.now().Add(-FirstContactWindow)), nil
	}

	return wm, nil
}

func (p *Poller) put(ctx context.Context, channelID model.YoutubeChannelID, wm model.Watermark) error {
	ctx, cancel := p.storageContext(ctx)
	defer cancel()

	if err := p.watermarks.Put(ctx, channelID, wm); err != nil {
		return kinded(err, model.ErrStorage)
	}

	return nil
}

func (p *Poller) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.storageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.storageTimeout)
}

// kinded wraps err in kind unless it already carries one.
func kinded(err, kind error) error {
	if model.KindOf(err) != model.KindUnknown {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
