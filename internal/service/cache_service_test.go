package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRememberLoadsOnceThenHits(t *testing.T) {
	mc := newMemCache()
	metrics := NewMetricsService()
	cache := NewCacheService(mc, metrics, time.Minute, nil, true)

	var loads int32
	load := func(context.Context) (int, error) {
		atomic.AddInt32(&loads, 1)
		return 42, nil
	}

	v, hit, err := Remember(context.Background(), cache, "answer", 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, v)

	v, hit, err = Remember(context.Background(), cache, "answer", 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, v)
	assert.EqualValues(t, 1, loads)

	snapshot := metrics.Snapshot()
	assert.EqualValues(t, 1, snapshot.CacheHits)
	assert.EqualValues(t, 1, snapshot.CacheMisses)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	mc := newMemCache()
	cache := NewCacheService(mc, nil, time.Minute, nil, true)

	_, _, err := Remember(context.Background(), cache, "k", 0, func(context.Context) (string, error) {
		return "", errors.New("db down")
	})
	assert.Error(t, err)
	assert.Empty(t, mc.items)
}

func TestCacheDisabledAndNil(t *testing.T) {
	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	nilCache.Drop(context.Background(), "anything")

	v, hit, err := Remember(context.Background(), nilCache, "k", 0, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", v)

	mc := newMemCache()
	disabled := NewCacheService(mc, nil, time.Minute, nil, false)
	_, _, err = Remember(context.Background(), disabled, "k", 0, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Empty(t, mc.items)
}

func TestCacheInvalidatePattern(t *testing.T) {
	mc := newMemCache()
	cache := NewCacheService(mc, nil, time.Minute, nil, true)
	mc.items[employeeBalanceKey("a")] = []byte(`1`)
	mc.items[employeeBalanceKey("b")] = []byte(`2`)
	mc.items[dashboardCacheKey] = []byte(`3`)

	require.NoError(t, cache.Invalidate(context.Background(), balancePattern))
	assert.Len(t, mc.items, 1)
	assert.Contains(t, mc.items, dashboardCacheKey)
}
