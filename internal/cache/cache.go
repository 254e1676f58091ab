package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
	// Generation reads the write counter of a scope, zero if never bumped.
	Generation(ctx context.Context, scope string) (int64, error)
	// Bump advances the write counter of every scope.
	Bump(ctx context.Context, scopes ...string) error
}

func PositionKey(bucketID string) string {
	return "position:" + bucketID
}

func SummaryPrefix(portfolioID string) string {
	return "summary:" + portfolioID + ":"
}

func MonthSummaryKey(portfolioID, month string) string {
	return SummaryPrefix(portfolioID) + "month:" + month
}

func YearSummaryKey(portfolioID string, year int) string {
	return fmt.Sprintf("%syear:%d", SummaryPrefix(portfolioID), year)
}

// SummaryListKey names the month list ending at the given month.
func SummaryListKey(portfolioID, through string) string {
	return SummaryPrefix(portfolioID) + "list:" + through
}

// AllSummaries matches the summaries of every portfolio.
const AllSummaries = "summary:"

// FxScope is bumped by every FX-table write. Portfolio writes bump the
// portfolio id.
const FxScope = "fx"

// GenerationKey never matches a value prefix, so prefix invalidation leaves
// the counters alone.
func GenerationKey(scope string) string {
	return "gen:" + scope
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Dial connects to the server named by a redis:// URL and pings it.
func Dial(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisCache(client, ttl), nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.Invalidate(ctx, batch...)
}

func (c *RedisCache) Generation(ctx context.Context, scope string) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(scope)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisCache) Bump(ctx context.Context, scopes ...string) error {
	if len(scopes) == 0 {
		return nil
	}
	pipe := c.client.TxPipeline()
	for _, scope := range scopes {
		pipe.Incr(ctx, GenerationKey(scope))
	}
	_, err := pipe.Exec(ctx)
	return err
}

type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error)    { return false, nil }
func (NopCache) Set(context.Context, string, any) error            { return nil }
func (NopCache) Invalidate(context.Context, ...string) error       { return nil }
func (NopCache) InvalidatePrefix(context.Context, string) error    { return nil }
func (NopCache) Generation(context.Context, string) (int64, error) { return 0, nil }
func (NopCache) Bump(context.Context, ...string) error             { return nil }
