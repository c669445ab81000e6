package sched

import "github.com/pkg/errors"

// Submission errors, returned to the caller of Submit. The scheduler
// state is left unchanged when these occur.
var (
	ErrInvalidPid       = errors.New("sched: pid already in use")
	ErrInvalidCondition = errors.New("sched: depends_on references an unknown pid")
)

// Allocator errors. These never escape the scheduler; they are
// translated into scheduling decisions (keep suspended, remain New,
// re-enqueue) by the caller.
var (
	ErrOutOfMemory = errors.New("sched: no free hole large enough for request")
	ErrPIDInvalid  = errors.New("sched: pid has no allocated memory range")
)

// Hole construction/mutation errors.
var (
	ErrInvalidRange = errors.New("sched: hole range is empty or inverted")
	ErrNotAdjacent  = errors.New("sched: holes do not share an endpoint")
	ErrTooSmall     = errors.New("sched: split size is not smaller than the hole")
)
