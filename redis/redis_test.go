package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/campus-booking/models"
)

// unreachable points at a port nothing listens on.
func unreachable() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
}

func TestScheduleKey(t *testing.T) {
	id := uuid.MustParse("7d3c2a4e-1f3b-4c8a-9a57-2f5b8d9e0c11")
	assert.Equal(t, "campus:schedule:{7d3c2a4e-1f3b-4c8a-9a57-2f5b8d9e0c11}", scheduleKey(id))
	assert.Equal(t, "campus:schedule:gen:{7d3c2a4e-1f3b-4c8a-9a57-2f5b8d9e0c11}", generationKey(id))
}

func TestScheduleCache_DegradesWhenRedisIsDown(t *testing.T) {
	client := unreachable()
	defer client.Close()
	cache := NewScheduleCache(client, time.Minute, nil)
	ctx := context.Background()
	id := uuid.New()

	cache.Set(ctx, id, 0, []models.ScheduleSlot{{}})
	_, gen, ok := cache.Get(ctx, id)
	assert.False(t, ok, "a failed read is a miss")
	assert.Zero(t, gen)
	assert.Error(t, cache.Invalidate(ctx, id))
}

func TestConnect_Fails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Connect(ctx, "127.0.0.1:1")
	assert.Error(t, err)
}

// liveClient connects to REDIS_ADDR, skipping the test when it is unset.
func liveClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client, err := Connect(context.Background(), addr)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestScheduleCache_SetAfterInvalidateIsDropped(t *testing.T) {
	client := liveClient(t)
	cache := NewScheduleCache(client, time.Minute, nil)
	ctx := context.Background()
	id := uuid.New()
	t.Cleanup(func() { client.Del(ctx, scheduleKey(id), generationKey(id)) })

	_, gen, ok := cache.Get(ctx, id)
	require.False(t, ok)
	require.NoError(t, cache.Invalidate(ctx, id))

	cache.Set(ctx, id, gen, []models.ScheduleSlot{{}})
	_, _, ok = cache.Get(ctx, id)
	assert.False(t, ok, "a load started before the write is not cached")

	_, gen, _ = cache.Get(ctx, id)
	cache.Set(ctx, id, gen, []models.ScheduleSlot{{}})
	slots, _, ok := cache.Get(ctx, id)
	assert.True(t, ok)
	assert.Len(t, slots, 1)
}
