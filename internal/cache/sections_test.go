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

func newTestCache(t *testing.T, ttl time.Duration) (*Sections, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSections(client, ttl), mr
}

func TestSectionsRoundTrip(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, gen, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, c.Set(ctx, gen, []byte(`[{"id":"sec_1"}]`)))
	payload, gen, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(0), gen)
	assert.JSONEq(t, `[{"id":"sec_1"}]`, string(payload))
	assert.Equal(t, time.Minute, mr.TTL(EntryKey(0)))

	require.NoError(t, c.Invalidate(ctx))
	_, gen, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), gen)
}

func TestSectionsDropStaleWrite(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	// A reader captures the generation, a mutation invalidates, then the
	// reader stores what it built from the old rows.
	_, readGen, _, err := c.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, readGen, []byte(`[{"title":"old"}]`)))

	_, gen, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "stale payload must not be served")

	require.NoError(t, c.Set(ctx, gen, []byte(`[{"title":"new"}]`)))
	payload, _, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"title":"new"}]`, string(payload))
}

func TestSectionsExpire(t *testing.T) {
	c, mr := newTestCache(t, time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, []byte(`[]`)))
	mr.FastForward(2 * time.Second)

	_, _, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSectionsDefaultTTL(t *testing.T) {
	c, _ := newTestCache(t, 0)
	assert.Equal(t, 5*time.Minute, c.ttl)
}

func TestSectionsReportsConnectionErrors(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, _, _, err := c.Get(context.Background())
	require.Error(t, err)
}
