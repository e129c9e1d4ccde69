package analytics

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel events are published on.
const DefaultChannel = "freightquote:analytics"

// RedisSink publishes events in their data-layer shape on a Redis channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink connects to Redis and verifies the connection.
func NewRedisSink(ctx context.Context, addr, password string, db int, channel string) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connect to redis")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{client: client, channel: channel}, nil
}

func (s *RedisSink) Send(ctx context.Context, e Event) error {
	msg, err := json.Marshal(e.DataLayer())
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := s.client.Publish(ctx, s.channel, msg).Err(); err != nil {
		return errors.Wrapf(err, "publish to %s", s.channel)
	}
	return nil
}

// subscribe listens on the sink's channel.
func (s *RedisSink) subscribe(ctx context.Context) *redis.PubSub {
	return s.client.Subscribe(ctx, s.channel)
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
