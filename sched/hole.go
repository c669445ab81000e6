package sched

import "github.com/pkg/errors"

// Hole is a half-open page range [Beg, End) over the physical frame
// space. It is a plain value type: the allocator copies it into and out
// of Tasks and its own free list.
type Hole struct {
	Beg uint32
	End uint32
}

// NewHole builds a Hole, rejecting empty or inverted ranges.
func NewHole(beg, end uint32) (Hole, error) {
	if beg >= end {
		return Hole{}, errors.Wrapf(ErrInvalidRange, "beg=%d end=%d", beg, end)
	}
	return Hole{Beg: beg, End: end}, nil
}

// Size returns the number of pages covered by the Hole.
func (h Hole) Size() uint32 {
	return h.End - h.Beg
}

// IsAdjacent reports whether h and other share exactly one endpoint.
func (h Hole) IsAdjacent(other Hole) bool {
	return h.Beg == other.End || h.End == other.Beg
}

// MergeWith coalesces other into h in place, provided they are adjacent.
func (h *Hole) MergeWith(other Hole) error {
	if !h.IsAdjacent(other) {
		return errors.Wrapf(ErrNotAdjacent, "%v and %v", *h, other)
	}
	if h.Beg == other.End {
		h.Beg = other.Beg
	} else {
		h.End = other.End
	}
	return nil
}

// SplitHead carves the first n pages off h, returning them as a new Hole
// and advancing h.Beg past them. n must be strictly smaller than the
// current size, matching the original allocator's "entire hole" fast
// path for an exact-size request (handled by the caller, not here).
func (h *Hole) SplitHead(n uint32) (Hole, error) {
	if n >= h.Size() {
		return Hole{}, errors.Wrapf(ErrTooSmall, "requested=%d size=%d", n, h.Size())
	}
	head := Hole{Beg: h.Beg, End: h.Beg + n}
	h.Beg += n
	return head, nil
}

// Compare orders non-overlapping Holes by address: a<0 means h ends at or
// before other begins, a>0 means h begins at or after other ends, and 0
// means the ranges are identical. Overlapping, non-equal Holes have no
// defined order and indicate free-list corruption — §3 calls this a
// correctness bug, so Compare panics rather than reporting a bogus order.
func (h Hole) Compare(other Hole) int {
	switch {
	case h.End <= other.Beg:
		return -1
	case h.Beg >= other.End:
		return 1
	case h == other:
		return 0
	default:
		panic(errors.Errorf("sched: overlapping non-equal holes %v and %v", h, other))
	}
}
