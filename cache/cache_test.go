package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory("test")
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte(`{"a":1}`), time.Minute))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)

	now = now.Add(2 * time.Minute)
	got, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory_Incr(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("test")

	n, err := m.Incr(ctx, "c")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = m.Incr(ctx, "c")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, m.Set(ctx, "s", "text", 0))
	_, err = m.Incr(ctx, "s")
	assert.Error(t, err)
}

func TestGeneration_InvalidateChangesKeys(t *testing.T) {
	ctx := context.Background()
	g := NewGeneration(NewMemory("yar"), "aggregates")

	before, err := g.Key(ctx, "dashboard", "30")
	require.NoError(t, err)
	assert.Equal(t, "yar:dashboard:0:30", before)

	require.NoError(t, g.Invalidate(ctx))
	after, err := g.Key(ctx, "dashboard", "30")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestRedisCache_GenerateKey(t *testing.T) {
	c := NewRedisCache("localhost:0", "", 0, "order")
	assert.Equal(t, "order:dashboard:7", c.GenerateKey("dashboard", "7"))
}
