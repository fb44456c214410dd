package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodePtrRoundTrip(t *testing.T) {
	indices := []uint32{0, 1, 2, 1000, 1 << 20, uint32(MaxHalfCapacity) - 1}

	for _, half := range []bool{false, true} {
		for _, idx := range indices {
			ptr := NewNodePtr(half, idx)
			assert.Equal(t, half, ptr.Half(), "half of %v", ptr)
			assert.Equal(t, idx, ptr.Index(), "index of %v", ptr)
			assert.False(t, ptr.IsNull(), "%v must not be null", ptr)
			assert.NotEqual(t, Null, ptr)
		}
	}
}

func TestNodePtrNull(t *testing.T) {
	require.True(t, Null.IsNull())

	// The last addressable slot of half B is the closest encoding to Null
	last := NewNodePtr(true, uint32(MaxHalfCapacity)-1)
	require.NotEqual(t, Null, last)
	require.Equal(t, "NodePtr(null)", Null.String())
	require.Equal(t, "NodePtr(B:7)", NewNodePtr(true, 7).String())
	require.Equal(t, "NodePtr(A:0)", NewNodePtr(false, 0).String())
}

func TestNodePtrOutOfRange(t *testing.T) {
	assert.Panics(t, func() { NewNodePtr(true, uint32(MaxHalfCapacity)) })
	assert.Panics(t, func() { NewNodePtr(false, ^uint32(0)) })
}

func BenchmarkNodePtr(b *testing.B) {
	var sink uint32
	for i := 0; i < b.N; i++ {
		ptr := NewNodePtr(i&1 == 1, uint32(i)&0xffff)
		if ptr.Half() {
			sink += ptr.Index()
		}
	}
	_ = sink
}
