package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	idx, err := newIndex([]int{0, 100, 250})
	require.NoError(t, err)

	tests := []struct {
		off  int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{10000, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, idx.Locate(tt.off), "offset %d", tt.off)
	}
	assert.Equal(t, 3, idx.Total(10000))
}

func TestLocateEveryOffsetInRange(t *testing.T) {
	l := newTestLayout(t, testParams)
	text := randomText(42, 6000)
	idx, err := l.Build(text)
	require.NoError(t, err)

	offs := idx.Offsets()
	for i, start := range offs {
		end := len(text)
		if i+1 < len(offs) {
			end = offs[i+1]
		}
		for off := start; off < end; off++ {
			require.Equal(t, i+1, idx.Locate(off))
		}
	}
}

func TestLocateWithoutIndex(t *testing.T) {
	var idx *Index
	assert.Equal(t, 1, idx.Locate(0))
	assert.Equal(t, 3, idx.Locate(4500))
	assert.Equal(t, 3, idx.Total(4500))
	assert.Equal(t, 0, idx.Count())
	assert.Nil(t, idx.Offsets())

	assert.Equal(t, 2, (&Index{}).Locate(2000))
}

func TestNewIndexRejectsBadOffsets(t *testing.T) {
	_, err := newIndex([]int{5, 10})
	assert.Error(t, err)
	_, err = newIndex([]int{0, 10, 10})
	assert.Error(t, err)
	idx, err := newIndex(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Count())
}
