package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "survey_api:/api/surveys/1/analytics?time_series=true", Key(DefaultPrefix, "/api/surveys/1/analytics", "time_series=true"))
	assert.Equal(t, "p:/x?", Key("p:", "/x", ""))
	assert.Equal(t, "p:/api/surveys/42/", SurveyPrefix("p:", "42"))
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", Entry{Body: []byte("{}"), Status: 200, ContentType: "application/json"}, time.Minute))
	e, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 200, e.Status)

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry must expire at its TTL")
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()
	for _, k := range []string{"p:/api/surveys/1/analytics?", "p:/api/surveys/1/analytics?time_series=true", "p:/api/surveys/12/analytics?"} {
		require.NoError(t, c.Set(ctx, k, Entry{Status: 200}, time.Minute))
	}
	n, err := c.DeletePrefix(ctx, SurveyPrefix("p:", "1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, ok, _ := c.Get(ctx, "p:/api/surveys/12/analytics?")
	assert.True(t, ok, "other surveys keep their entries")
}

func TestMemoryCacheSweeper(t *testing.T) {
	c := NewMemoryCache(5 * time.Millisecond)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", Entry{Status: 200}, time.Millisecond))
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestMemoryCacheConcurrent(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, "shared", Entry{Status: 200, Body: []byte("x")}, time.Minute)
				_, _, _ = c.Get(ctx, "shared")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := Entry{Body: []byte(`{"q1":{}}`), Status: 200, ContentType: "application/json"}
	require.NoError(t, c.Set(ctx, "k", want, 300*time.Second))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	mr.FastForward(301 * time.Second)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheDeletePrefix(t *testing.T) {
	c, _ := newTestRedis(t)
	ctx := context.Background()
	for _, k := range []string{"p:/api/surveys/1/analytics?", "p:/api/surveys/1/export?format=csv", "p:/api/surveys/2/analytics?"} {
		require.NoError(t, c.Set(ctx, k, Entry{Status: 200}, time.Minute))
	}
	n, err := c.DeletePrefix(ctx, SurveyPrefix("p:", "1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, ok, err := c.Get(ctx, "p:/api/surveys/2/analytics?")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisCacheUnavailable(t *testing.T) {
	c, mr := newTestRedis(t)
	mr.Close()
	_, ok, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}

func TestGenerationsBumpPerSurvey(t *testing.T) {
	g := NewGenerations()
	assert.Equal(t, uint64(0), g.Current("1"))
	assert.Equal(t, uint64(1), g.Bump("1"))
	assert.Equal(t, uint64(2), g.Bump("1"))
	assert.Equal(t, uint64(2), g.Current("1"))
	assert.Equal(t, uint64(0), g.Current("2"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Bump("2")
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), g.Current("2"))
}
