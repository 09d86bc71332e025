package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-research-pipeline/internal/model"
)

type countingCache struct {
	Cache
	lookups  int
	storeErr error
}

func (c *countingCache) Lookup(ctx context.Context, topic string) (*model.CacheEntry, error) {
	c.lookups++
	return c.Cache.Lookup(ctx, topic)
}

func (c *countingCache) Store(ctx context.Context, e *model.CacheEntry) error {
	if c.storeErr != nil {
		return c.storeErr
	}
	return c.Cache.Store(ctx, e)
}

func (c *countingCache) Unwrap() Cache { return c.Cache }

func TestLRU_ReadThrough(t *testing.T) {
	ctx := context.Background()
	sq, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	inner := &countingCache{Cache: sq}
	c, err := NewLRU(inner, 4)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, sq.Store(ctx, &model.CacheEntry{Topic: "t", Report: sampleReport()}))

	for i := 0; i < 3; i++ {
		got, err := c.Lookup(ctx, "t")
		require.NoError(t, err)
		require.NotNil(t, got)
	}
	assert.Equal(t, 1, inner.lookups)

	miss, err := c.Lookup(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, miss)

	_, ok := RunLogOf(c)
	assert.True(t, ok)
}

func TestLRU_FailedStoreEvicts(t *testing.T) {
	ctx := context.Background()
	sq, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	inner := &countingCache{Cache: sq}
	c, err := NewLRU(inner, 4)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Store(ctx, &model.CacheEntry{Topic: "t", Report: sampleReport()}))

	inner.storeErr = errors.New("disk full")
	err = c.Store(ctx, &model.CacheEntry{Topic: "t", Report: model.Report{}})
	require.Error(t, err)

	got, err := c.Lookup(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, sampleReport(), got.Report)
	assert.Equal(t, 1, inner.lookups)
}
