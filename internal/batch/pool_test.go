package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolLIFOOrder(t *testing.T) {
	p := NewPool[int](4)
	for _, v := range []int{1, 2, 3} {
		require.True(t, p.Put(v))
	}

	for _, want := range []int{3, 2, 1} {
		got, ok := p.Get()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := p.Get()
	assert.False(t, ok)
}

func TestPoolDropsWhenFull(t *testing.T) {
	p := NewPool[string](2)
	assert.True(t, p.Put("a"))
	assert.True(t, p.Put("b"))
	assert.False(t, p.Put("c"))
	assert.Equal(t, 2, p.Len())
}

func TestPoolZeroCapacityClamped(t *testing.T) {
	p := NewPool[int](0)
	assert.True(t, p.Put(7))
	assert.False(t, p.Put(8))

	v, ok := p.Get()
	require.True(t, ok)
	assert.Equal(t, 7, v)
}
