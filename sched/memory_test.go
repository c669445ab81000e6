package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryManagerAllocateFirstFit(t *testing.T) {
	m := NewMemoryManager(40*4096, 4096) // 40 pages
	h1, err := m.Allocate(3, 1)
	require.NoError(t, err)
	assert.Equal(t, Hole{Beg: 0, End: 3}, h1)

	h2, err := m.Allocate(3, 2)
	require.NoError(t, err)
	assert.Equal(t, Hole{Beg: 3, End: 6}, h2)

	assert.Equal(t, uint32(6), m.UtilizationPages())
}

func TestMemoryManagerOutOfMemory(t *testing.T) {
	m := NewMemoryManager(4*4096, 4096) // 4 pages
	_, err := m.Allocate(5, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestMemoryManagerFreeCoalescesBothNeighbors(t *testing.T) {
	m := NewMemoryManager(10*4096, 4096) // 10 pages
	_, err := m.Allocate(3, 1) // [0,3)
	require.NoError(t, err)
	_, err = m.Allocate(3, 2) // [3,6)
	require.NoError(t, err)
	_, err = m.Allocate(4, 3) // [6,10)
	require.NoError(t, err)

	require.NoError(t, m.Free(1)) // free list: [0,3)
	require.NoError(t, m.Free(3)) // free list: [0,3), [6,10) (non-adjacent to each other)
	require.NoError(t, m.Free(2)) // [3,6) merges with both neighbors -> single [0,10)

	holes := m.FreeHoles()
	require.Len(t, holes, 1)
	assert.Equal(t, Hole{Beg: 0, End: 10}, holes[0])
}

func TestMemoryManagerFreeThenReallocate(t *testing.T) {
	m := NewMemoryManager(10*4096, 4096)
	_, err := m.Allocate(10, 1)
	require.NoError(t, err)
	require.NoError(t, m.Free(1))

	h, err := m.Allocate(10, 2)
	require.NoError(t, err)
	assert.Equal(t, Hole{Beg: 0, End: 10}, h)
}

func TestMemoryManagerFreeUnknownPid(t *testing.T) {
	m := NewMemoryManager(10*4096, 4096)
	err := m.Free(99)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPIDInvalid)
}

func TestMemoryManagerSnapshotIsCopy(t *testing.T) {
	m := NewMemoryManager(10*4096, 4096)
	_, err := m.Allocate(2, 1)
	require.NoError(t, err)

	snap := m.Snapshot()
	snap[1] = Hole{Beg: 99, End: 100}

	snap2 := m.Snapshot()
	assert.Equal(t, Hole{Beg: 0, End: 2}, snap2[1])
}
