package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"geofence/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	client, err := Connect(ctx, config.RedisConfig{URL: "localhost:6379"})
	if err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })

	c := NewRedisCache(client)
	key := fmt.Sprintf("test:cache:%d", time.Now().UnixNano())

	var got []int
	assert.ErrorIs(t, c.Get(ctx, key, &got), ErrMiss)

	require.NoError(t, c.Set(ctx, key, []int{3, 1, 2}, time.Minute))
	require.NoError(t, c.Get(ctx, key, &got))
	assert.Equal(t, []int{3, 1, 2}, got)

	require.NoError(t, c.Delete(ctx, key))
	assert.ErrorIs(t, c.Get(ctx, key, &got), ErrMiss)
}
