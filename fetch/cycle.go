package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ewintr.nl/chanwatch/model"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

type ChannelPoller interface {
	Poll(ctx context.Context, channelID model.YoutubeChannelID) model.PollResult
}

type Publisher interface {
	Publish(ctx context.Context, video *model.Video) error
}

type CycleInfo struct {
	ApiKey      string
	Concurrency int
}

// Cycle polls a set of channels independently and collects their videos
// and failures in channel order.
type Cycle struct {
	poller      ChannelPoller
	publisher   Publisher
	apiKey      string
	concurrency int
	logger      *slog.Logger
}

func NewCycle(poller ChannelPoller, publisher Publisher, info CycleInfo, logger *slog.Logger) *Cycle {
	concurrency := info.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Cycle{
		poller:      poller,
		publisher:   publisher,
		apiKey:      info.ApiKey,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run returns an error wrapping model.ErrConfiguration when the cycle cannot
// start. Failures of single channels are part of the result.
func (c *Cycle) Run(ctx context.Context, channelIDs []model.YoutubeChannelID) (model.CycleResult, error) {
	if c.apiKey == "" {
		return model.CycleResult{}, fmt.Errorf("%w: missing YOUTUBE_API_KEY", model.ErrConfiguration)
	}
	ids := make([]model.YoutubeChannelID, 0, len(channelIDs))
	for _, id := range channelIDs {
		if trimmed := strings.TrimSpace(string(id)); trimmed != "" {
			ids = append(ids, model.YoutubeChannelID(trimmed))
		}
	}
	if len(ids) == 0 {
		return model.CycleResult{}, fmt.Errorf("%w: missing CHANNEL_IDS", model.ErrConfiguration)
	}

	logger := c.logger.With(slog.String("cycle", uuid.New().String()))
	logger.Info("starting fetch cycle", slog.Int("channels", len(ids)))

	results := make([]model.PollResult, len(ids))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = c.poller.Poll(ctx, id)
			if !results[i].Failed() {
				c.publish(ctx, logger, results[i].Videos)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := model.CycleResult{Items: []model.Item{}}
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
		res.Add(r)
	}

	logger.Info("finished fetch cycle", slog.Int("count", res.Count), slog.Int("failed", failed))
	return res, nil
}

func (c *Cycle) publish(ctx context.Context, logger *slog.Logger, videos []*model.Video) {
	if c.publisher == nil {
		return
	}
	for _, video := range videos {
		if err := c.publisher.Publish(ctx, video); err != nil {
			logger.Error("failed to publish video", slog.String("video", string(video.YoutubeID)), slog.String("err", err.Error()))
		}
	}
}

// RunEvery runs a cycle on every tick of interval until ctx is done.
func (c *Cycle) RunEvery(ctx context.Context, interval time.Duration, channelIDs []model.YoutubeChannelID) {
	c.logger.Info("started scheduled fetch", slog.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopped scheduled fetch")
			return
		case <-ticker.C:
			if _, err := c.Run(ctx, channelIDs); err != nil {
				c.logger.Error("failed to run scheduled fetch", slog.String("err", err.Error()))
			}
		}
	}
}
