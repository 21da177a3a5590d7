package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "heapoverflow:pending:"

// Redis is a Store shared by every bot process pointed at the same server.
// Expiry is left to Redis.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*Redis)(nil)

// NewRedis connects to the server at redisURL and pings it.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func redisKey(guildID, userID snowflake.ID) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, guildID, userID)
}

func (r *Redis) Put(ctx context.Context, s Selection) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding selection: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(s.GuildID, s.UserID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("storing selection: %w", err)
	}
	return nil
}

func (r *Redis) Take(ctx context.Context, guildID, userID snowflake.ID) (Selection, bool, error) {
	data, err := r.client.GetDel(ctx, redisKey(guildID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Selection{}, false, nil
	}
	if err != nil {
		return Selection{}, false, fmt.Errorf("taking selection: %w", err)
	}
	var s Selection
	if err := json.Unmarshal(data, &s); err != nil {
		return Selection{}, false, fmt.Errorf("decoding selection: %w", err)
	}
	return s, true, nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
