package limiter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiterBurst(t *testing.T) {
	l := NewLocalLimiter(0, 2)
	ctx := context.Background()

	for range 2 {
		ok, err := l.Allow(ctx, "ignored")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "ignored")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyedLimiterIsolatesKeys(t *testing.T) {
	l := NewKeyedLimiter(0, 1)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, ok)
	assert.Equal(t, 2, l.Len())
}
