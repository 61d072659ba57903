package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	c, err := New("redis://" + s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, s
}

type page struct {
	Content []string `json:"content"`
	Total   int64    `json:"total_elements"`
}

func TestClient_SetGetRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", page{Content: []string{"a"}, Total: 1}, time.Minute))

	var got page
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, page{Content: []string{"a"}, Total: 1}, got)
}

func TestClient_Miss(t *testing.T) {
	c, _ := newTestClient(t)

	var got page
	found, err := c.Get(context.Background(), "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_TTLAndDelete(t *testing.T) {
	c, s := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Second))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))

	s.FastForward(2 * time.Second)
	var v int
	found, err := c.Get(ctx, "a", &v)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Delete(ctx, "b"))
	assert.False(t, s.Exists("b"))
	assert.NoError(t, c.Delete(ctx))
}

func TestClient_IncrIsReadableThroughGet(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	n, err := c.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = c.Incr(ctx, "gen")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var gen int64
	found, err := c.Get(ctx, "gen", &gen)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(2), gen)
}

func TestClient_UndecodableEntryIsAMiss(t *testing.T) {
	c, s := newTestClient(t)
	require.NoError(t, s.Set("k", "not json"))

	var got page
	found, err := c.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, s.Exists("k"))
}

func TestClient_ZeroTTLKeepsKey(t *testing.T) {
	c, s := newTestClient(t)
	require.NoError(t, c.Set(context.Background(), "k", 1, 0))

	s.FastForward(time.Hour)
	assert.True(t, s.Exists("k"))
}

func TestNew_BadURL(t *testing.T) {
	_, err := New("://nope")
	assert.ErrorContains(t, err, "redis url")
}

func TestClient_ErrorsSurface(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	c := NewFromClient(goredis.NewClient(&goredis.Options{Addr: s.Addr()}))
	s.Close()

	var v int
	_, err = c.Get(context.Background(), "k", &v)
	assert.Error(t, err)
}
