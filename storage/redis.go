package storage

import (
	"context"
	"errors"
	"fmt"

	"ewintr.nl/chanwatch/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chanwatch:watermark:"

// putMax only replaces a stored value with a greater one. Scripts run
// atomically, so concurrent puts for the same key cannot regress it.
var putMax = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current and current >= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1])
return 1
`)

type RedisInfo struct {
	Addr     string
	Password string
	DB       int
}

func OpenRedis(ctx context.Context, info RedisInfo) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     info.Addr,
		Password: info.Password,
		DB:       info.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", info.Addr, err)
	}

	return client, nil
}

func WatermarkKey(channelID model.YoutubeChannelID) string {
	return keyPrefix + string(channelID)
}

type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, channelID model.YoutubeChannelID) (model.Watermark, bool, error) {
	val, err := r.client.Get(ctx, WatermarkKey(channelID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("%w: get watermark for %s: %w", model.ErrStorage, channelID, err)
	}

	return model.Watermark(val), true, nil
}

func (r *Redis) Put(ctx context.Context, channelID model.YoutubeChannelID, watermark model.Watermark) error {
	if err := putMax.Run(ctx, r.client, []string{WatermarkKey(channelID)}, string(watermark)).Err(); err != nil {
		return fmt.Errorf("%w: put watermark for %s: %w", model.ErrStorage, channelID, err)
	}

	return nil
}
