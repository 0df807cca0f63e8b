package storage

import (
	"context"

	"ewintr.nl/chanwatch/model"
)

// WatermarkRepository maps a channel to the publish time of the newest video
// seen for it. Put only ever moves a stored watermark forward.
type WatermarkRepository interface {
	Get(ctx context.Context, channelID model.YoutubeChannelID) (model.Watermark, bool, error)
	Put(ctx context.Context, channelID model.YoutubeChannelID, watermark model.Watermark) error
}
