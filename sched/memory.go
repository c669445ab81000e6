package sched

import (
	"sort"

	"github.com/pkg/errors"
)

// MemoryManager is a contiguous first-fit page allocator over a fixed
// frame space [0, P). It owns the free-hole list and the pid->Hole
// mapping for everything currently resident.
type MemoryManager struct {
	totalSize uint64
	pageSize  uint32
	pages     uint32

	free  []Hole          // sorted by Beg, pairwise non-adjacent
	owned map[uint32]Hole // pid -> allocated Hole
}

// NewMemoryManager builds a manager over totalSize bytes split into
// pageSize pages, starting as a single free Hole [0, P).
func NewMemoryManager(totalSize uint64, pageSize uint32) *MemoryManager {
	pages := uint32(totalSize / uint64(pageSize))
	m := &MemoryManager{
		totalSize: totalSize,
		pageSize:  pageSize,
		pages:     pages,
		owned:     make(map[uint32]Hole),
	}
	if pages > 0 {
		m.free = []Hole{{Beg: 0, End: pages}}
	}
	return m
}

// Pages returns the total page count P.
func (m *MemoryManager) Pages() uint32 {
	return m.pages
}

// Allocate performs a first-fit scan of the free list and carves out
// reqPages for pid. Two calls for the same size but different pids are
// independent; neither affects the other's outcome.
func (m *MemoryManager) Allocate(reqPages uint32, pid uint32) (Hole, error) {
	for i, h := range m.free {
		if h.Size() < reqPages {
			continue
		}
		var granted Hole
		if h.Size() == reqPages {
			granted = h
			m.free = append(m.free[:i], m.free[i+1:]...)
		} else {
			head, err := h.SplitHead(reqPages)
			if err != nil {
				// Unreachable: reqPages < h.Size() was just checked.
				return Hole{}, err
			}
			granted = head
			m.free[i] = h
		}
		m.owned[pid] = granted
		return granted, nil
	}
	return Hole{}, errors.Wrapf(ErrOutOfMemory, "requested %d pages, pid %d", reqPages, pid)
}

// Free releases pid's Hole back to the free list, inserting it in
// sorted position and coalescing with whichever neighbor(s) are
// adjacent.
func (m *MemoryManager) Free(pid uint32) error {
	h, ok := m.owned[pid]
	if !ok {
		return errors.Wrapf(ErrPIDInvalid, "pid %d", pid)
	}
	delete(m.owned, pid)

	pos := sort.Search(len(m.free), func(i int) bool {
		return m.free[i].Compare(h) >= 0
	})
	m.free = append(m.free, Hole{})
	copy(m.free[pos+1:], m.free[pos:])
	m.free[pos] = h

	if pos+1 < len(m.free) && m.free[pos].IsAdjacent(m.free[pos+1]) {
		if err := m.free[pos].MergeWith(m.free[pos+1]); err != nil {
			return err
		}
		m.free = append(m.free[:pos+1], m.free[pos+2:]...)
	}
	if pos > 0 && m.free[pos-1].IsAdjacent(m.free[pos]) {
		if err := m.free[pos-1].MergeWith(m.free[pos]); err != nil {
			return err
		}
		m.free = append(m.free[:pos], m.free[pos+1:]...)
	}
	return nil
}

// Snapshot returns a read-only copy of the pid->Hole mapping, for
// visualization by the host.
func (m *MemoryManager) Snapshot() map[uint32]Hole {
	out := make(map[uint32]Hole, len(m.owned))
	for pid, h := range m.owned {
		out[pid] = h
	}
	return out
}

// FreeHoles returns a read-only copy of the free list, sorted by Beg.
// Exposed mainly for invariant tests.
func (m *MemoryManager) FreeHoles() []Hole {
	out := make([]Hole, len(m.free))
	copy(out, m.free)
	return out
}

// UtilizationPages returns the number of pages currently allocated.
func (m *MemoryManager) UtilizationPages() uint32 {
	var used uint32
	for _, h := range m.owned {
		used += h.Size()
	}
	return used
}
