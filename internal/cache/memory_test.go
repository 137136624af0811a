package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetIfAbsentAndGet(t *testing.T) {
	m := NewMemory(8, time.Minute, nil)
	ctx := context.Background()

	got, ok, err := m.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	require.NoError(t, m.SetIfAbsent(ctx, "fp1", sampleAnswer("hello"), 0))

	got, ok, err = m.Get(ctx, "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello", got.Text)
}

func TestMemory_SetIfAbsentDoesNotOverwrite(t *testing.T) {
	m := NewMemory(8, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, m.SetIfAbsent(ctx, "fp1", sampleAnswer("first"), time.Minute))
	require.NoError(t, m.SetIfAbsent(ctx, "fp1", sampleAnswer("second"), time.Minute))

	got, ok, err := m.Get(ctx, "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", got.Text)
}

func TestMemory_Expiry(t *testing.T) {
	m := NewMemory(8, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, m.SetIfAbsent(ctx, "fp1", sampleAnswer("short lived"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := m.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.False(t, ok)

	// 过期后同一指纹可以重新写入
	require.NoError(t, m.SetIfAbsent(ctx, "fp1", sampleAnswer("fresh"), time.Minute))
	got, ok, err := m.Get(ctx, "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fresh", got.Text)
}

func TestMemory_FullCacheDropsWrites(t *testing.T) {
	m := NewMemory(2, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		fp := fmt.Sprintf("fp%d", i)
		require.NoError(t, m.SetIfAbsent(ctx, fp, sampleAnswer(fp), time.Minute))
	}

	assert.Equal(t, 2, m.Len())

	// 最早写入的条目保留，后续写入被丢弃
	_, ok, err := m.Get(ctx, "fp0")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = m.Get(ctx, "fp3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Delete(t *testing.T) {
	m := NewMemory(8, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, m.SetIfAbsent(ctx, "fp1", sampleAnswer("a"), time.Minute))
	require.NoError(t, m.SetIfAbsent(ctx, "fp2", sampleAnswer("b"), time.Minute))
	require.NoError(t, m.Delete(ctx, "fp1", "missing"))

	_, ok, err := m.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = m.Get(ctx, "fp2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory(8, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, m.SetIfAbsent(ctx, "fp1", sampleAnswer("stable"), time.Minute))

	got, ok, err := m.Get(ctx, "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	got.Text = "mutated"

	again, ok, err := m.Get(ctx, "fp1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "stable", again.Text)
}
