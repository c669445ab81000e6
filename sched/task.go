package sched

import "sync"

// State is one of the five lifecycle states a Task can occupy.
type State string

const (
	StateNew        State = "new"
	StateReady      State = "ready"
	StateRunning    State = "running"
	StateBlocked    State = "blocked"
	StateTerminated State = "terminated"
)

// Task carries scheduling attributes and lifecycle state for a single
// admitted process. Pid is immutable once assigned; everything else is
// protected by mu since a Task pointer is shared between whichever queue
// currently holds it and any future dependents observing its Condition.
type Task struct {
	pid uint32

	mu            sync.RWMutex
	requestTime   int32 // remaining CPU ticks needed; monotonically non-increasing
	priority      uint32
	memorySize    uint32 // pages required when resident
	state         State
	schTime       int32 // remaining ticks in the current time slice
	inQueueTime   int32 // simulated time of most recent enqueue
	memoryRange   *Hole // present iff resident
	isSuspended   bool
	cond          *Condition // predecessor latch; nil means always satisfied
	ownCond       *Condition // this task's own latch, signalled on termination
}

// NewTask constructs a task in the New state with no memory range, not
// suspended, and its own fresh Condition.
func NewTask(pid uint32, requestTime int32, priority uint32, memorySize uint32) *Task {
	return &Task{
		pid:         pid,
		requestTime: requestTime,
		priority:    priority,
		memorySize:  memorySize,
		state:       StateNew,
		schTime:     0,
		ownCond:     NewCondition(),
	}
}

func (t *Task) Pid() uint32 { return t.pid }

func (t *Task) RequestTime() int32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.requestTime
}

func (t *Task) SetRequestTime(v int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requestTime = v
}

// DecrementTime subtracts d from both RequestTime and SchTime, as a
// Processor does once per tick for its bound task.
func (t *Task) DecrementTime(d int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requestTime -= d
	t.schTime -= d
}

func (t *Task) Priority() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.priority
}

func (t *Task) MemorySize() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.memorySize
}

func (t *Task) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func (t *Task) SetState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
}

func (t *Task) SchTime() int32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.schTime
}

func (t *Task) SetSchTime(v int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.schTime = v
}

func (t *Task) InQueueTime() int32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inQueueTime
}

func (t *Task) SetInQueueTime(v int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inQueueTime = v
}

// MemoryRange returns the task's allocated Hole, and whether it has one.
func (t *Task) MemoryRange() (Hole, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.memoryRange == nil {
		return Hole{}, false
	}
	return *t.memoryRange, true
}

func (t *Task) SetMemoryRange(h Hole) {
	t.mu.Lock()
	defer t.mu.Unlock()
	hc := h
	t.memoryRange = &hc
}

// ClearMemoryRange marks the task non-resident.
func (t *Task) ClearMemoryRange() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.memoryRange = nil
}

func (t *Task) IsSuspended() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isSuspended
}

func (t *Task) SetSuspended(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.isSuspended = v
}

// Cond returns the predecessor Condition this task depends on, if any.
func (t *Task) Cond() *Condition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cond
}

func (t *Task) SetCond(c *Condition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cond = c
}

// IsCondSatisfied reports true when there is no predecessor, or the
// predecessor's latch has fired.
func (t *Task) IsCondSatisfied() bool {
	t.mu.RLock()
	c := t.cond
	t.mu.RUnlock()
	return c == nil || c.IsDone()
}

// OwnCondition is this task's own latch; dependents attach to it at
// Submit time and it fires when this task terminates.
func (t *Task) OwnCondition() *Condition {
	return t.ownCond
}
