package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHole(t *testing.T) {
	tests := []struct {
		name    string
		beg     uint32
		end     uint32
		wantErr bool
	}{
		{"valid range", 0, 10, false},
		{"single page", 5, 6, false},
		{"empty range", 5, 5, true},
		{"inverted range", 10, 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHole(tt.beg, tt.end)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.end-tt.beg, h.Size())
		})
	}
}

func TestHoleIsAdjacent(t *testing.T) {
	a := Hole{Beg: 0, End: 10}
	b := Hole{Beg: 10, End: 20}
	c := Hole{Beg: 21, End: 30}

	assert.True(t, a.IsAdjacent(b))
	assert.True(t, b.IsAdjacent(a))
	assert.False(t, a.IsAdjacent(c))
}

func TestHoleMergeWith(t *testing.T) {
	a := Hole{Beg: 0, End: 10}
	require.NoError(t, a.MergeWith(Hole{Beg: 10, End: 20}))
	assert.Equal(t, Hole{Beg: 0, End: 20}, a)

	b := Hole{Beg: 10, End: 20}
	require.NoError(t, b.MergeWith(Hole{Beg: 0, End: 10}))
	assert.Equal(t, Hole{Beg: 0, End: 20}, b)

	c := Hole{Beg: 0, End: 10}
	err := c.MergeWith(Hole{Beg: 20, End: 30})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAdjacent)
}

func TestHoleSplitHead(t *testing.T) {
	h := Hole{Beg: 0, End: 10}
	head, err := h.SplitHead(4)
	require.NoError(t, err)
	assert.Equal(t, Hole{Beg: 0, End: 4}, head)
	assert.Equal(t, Hole{Beg: 4, End: 10}, h)

	h2 := Hole{Beg: 0, End: 10}
	_, err = h2.SplitHead(10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooSmall)
}

func TestHoleCompare(t *testing.T) {
	a := Hole{Beg: 0, End: 10}
	b := Hole{Beg: 10, End: 20}
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}
