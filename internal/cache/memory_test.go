package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	m := NewMemoryStore(WithClock(func() time.Time { return now }))

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 10*time.Second))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	now = now.Add(10 * time.Second)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Zero(t, m.Len())
}

func TestMemoryStoreNoTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	m := NewMemoryStore(WithClock(func() time.Time { return now }))

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	now = now.Add(24 * time.Hour)
	_, err := m.Get(ctx, "k")
	assert.NoError(t, err)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	got[1] = 'y'

	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStoreSweepAndDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1000, 0)
	m := NewMemoryStore(WithClock(func() time.Time { return now }))

	require.NoError(t, m.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, m.Set(ctx, "gone", []byte("3"), time.Hour))
	require.NoError(t, m.Delete(ctx, "gone"))

	now = now.Add(time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	_, err := m.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStoreKeyPrefix(t *testing.T) {
	assert.Equal(t, "storefront:categories_list", NewRedisStore(nil, "storefront").key("categories_list"))
	assert.Equal(t, "categories_list", NewRedisStore(nil, "").key("categories_list"))
}
