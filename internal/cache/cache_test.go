package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Value int64  `json:"value"`
	Name  string `json:"name"`
}

func setupCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedisCache(client, time.Minute), mr
}

func TestRedisCacheGetSet(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	var got entry
	found, err := c.Get(ctx, PositionKey("b1"), &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, PositionKey("b1"), entry{Value: 500000, Name: "usd"}))
	found, err = c.Get(ctx, PositionKey("b1"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry{Value: 500000, Name: "usd"}, got)

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, PositionKey("b1"), &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheInvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	require.NoError(t, c.Set(ctx, MonthSummaryKey("p1", "2024-01"), entry{Value: 1}))
	require.NoError(t, c.Set(ctx, YearSummaryKey("p1", 2024), entry{Value: 2}))
	require.NoError(t, c.Set(ctx, SummaryListKey("p1", "2024-06"), entry{Value: 3}))
	require.NoError(t, c.Set(ctx, MonthSummaryKey("p2", "2024-01"), entry{Value: 4}))
	require.NoError(t, c.Set(ctx, PositionKey("b1"), entry{Value: 5}))

	require.NoError(t, c.InvalidatePrefix(ctx, SummaryPrefix("p1")))
	assert.False(t, mr.Exists(MonthSummaryKey("p1", "2024-01")))
	assert.False(t, mr.Exists(YearSummaryKey("p1", 2024)))
	assert.False(t, mr.Exists(SummaryListKey("p1", "2024-06")))
	assert.True(t, mr.Exists(MonthSummaryKey("p2", "2024-01")))
	assert.True(t, mr.Exists(PositionKey("b1")))

	require.NoError(t, c.InvalidatePrefix(ctx, AllSummaries))
	assert.False(t, mr.Exists(MonthSummaryKey("p2", "2024-01")))

	require.NoError(t, c.Invalidate(ctx, PositionKey("b1")))
	assert.False(t, mr.Exists(PositionKey("b1")))
}

func TestRedisCacheGetReportsConnectionErrors(t *testing.T) {
	c, mr := setupCache(t)
	mr.Close()
	var got entry
	_, err := c.Get(context.Background(), PositionKey("b1"), &got)
	assert.Error(t, err)
}

func TestNopCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	var c Cache = NopCache{}
	require.NoError(t, c.Set(ctx, "k", entry{Value: 1}))
	var got entry
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.InvalidatePrefix(ctx, "k"))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "position:b1", PositionKey("b1"))
	assert.Equal(t, "summary:p1:month:2024-03", MonthSummaryKey("p1", "2024-03"))
	assert.Equal(t, "summary:p1:year:2024", YearSummaryKey("p1", 2024))
	assert.Equal(t, "summary:p1:list:2024-06", SummaryListKey("p1", "2024-06"))
}

func TestRedisCacheGenerations(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	gen, err := c.Generation(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, gen)

	require.NoError(t, c.Bump(ctx, "p1", FxScope))
	require.NoError(t, c.Bump(ctx, "p1"))

	gen, err = c.Generation(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)
	gen, err = c.Generation(ctx, FxScope)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)

	require.NoError(t, c.InvalidatePrefix(ctx, AllSummaries))
	gen, err = c.Generation(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)
}
