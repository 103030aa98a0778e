package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Customware-cl/payme-sub001/internal/infrastructure/cache/port"
)

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, port.ErrMiss)
}

func TestMemoryCacheSetIfAbsent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	ok, err := c.SetIfAbsent(ctx, "inbound:wamid.1", "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetIfAbsent(ctx, "inbound:wamid.1", "1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := c.Del(ctx, "inbound:wamid.1", "absent")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
