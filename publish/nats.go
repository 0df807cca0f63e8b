// Package publish forwards newly observed videos to a message bus.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"ewintr.nl/chanwatch/model"
	"github.com/nats-io/nats.go"
)

type NATS struct {
	conn   *nats.Conn
	prefix string
}

func NewNATS(conn *nats.Conn, prefix string) *NATS {
	return &NATS{conn: conn, prefix: prefix}
}

// Subject is <prefix>.<channel id>, so consumers can subscribe per channel
// or to <prefix>.> for all of them.
func Subject(prefix string, channelID model.YoutubeChannelID) string {
	return fmt.Sprintf("%s.%s", prefix, channelID)
}

func (n *NATS) Publish(ctx context.Context, video *model.Video) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(video)
	if err != nil {
		return fmt.Errorf("marshal video %s: %w", video.YoutubeID, err)
	}
	if err := n.conn.Publish(Subject(n.prefix, video.YoutubeChannelID), body); err != nil {
		return fmt.Errorf("publish video %s: %w", video.YoutubeID, err)
	}

	return nil
}
