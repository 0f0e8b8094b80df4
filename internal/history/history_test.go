package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopRoundTrip(t *testing.T) {
	s := New(10)
	in := []int{0, 120, 260, 410}
	for _, off := range in {
		require.True(t, s.Push(off))
	}
	for i := len(in) - 1; i >= 0; i-- {
		off, ok := s.Pop()
		require.True(t, ok)
		assert.Equal(t, in[i], off)
	}
	_, ok := s.Pop()
	assert.False(t, ok)
}

func TestPushWhenFull(t *testing.T) {
	s := New(2)
	assert.True(t, s.Push(1))
	assert.True(t, s.Push(2))
	assert.False(t, s.Push(3))
	assert.Equal(t, 2, s.Len())

	off, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, off, "oldest entries are kept, the new one is rejected")
}

func TestReset(t *testing.T) {
	s := New(0)
	assert.Equal(t, DefaultCapacity, s.Cap())
	s.Push(5)
	s.Push(9)
	s.Reset(0)
	assert.Equal(t, 1, s.Len())
	off, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, 0, off)
}
