// Package sched implements the three-level task scheduler: a multi-queue
// admission/mid-term/short-term scheduler over a fixed number of
// Processors and a contiguous first-fit MemoryManager.
//
// The Scheduler is single-threaded and cooperative (spec §5): every
// exported method runs to completion before returning and must only be
// called from one goroutine at a time. There are no internal suspension
// points.
package sched

import (
	"log/slog"
)

// DefaultMemorySize and DefaultPageSize match spec §6: 16MiB split into
// 4096-byte pages, giving 4096 page frames.
const (
	DefaultMemorySize uint64 = 16777216
	DefaultPageSize   uint32 = 4096
)

// Scheduler owns the five logical queues, the two Processors, the
// MemoryManager, and every Task ever admitted.
type Scheduler struct {
	newQ         *TaskQueue
	readyQ       *TaskQueue
	readySuspQ   *TaskQueue
	blockedQ     *TaskQueue
	blockedSuspQ *TaskQueue

	processors [2]*Processor
	mem        *MemoryManager

	time      int32
	timeSlice uint32
	slots     uint32

	tasks   map[uint32]*Task
	nextPid uint32

	dispatcher *EventDispatcher
	metrics    *Metrics
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithMemory overrides the default 16MiB/4096B memory geometry.
func WithMemory(totalSize uint64, pageSize uint32) Option {
	return func(s *Scheduler) {
		s.mem = NewMemoryManager(totalSize, pageSize)
	}
}

// WithEventCallback routes emitted events to callback via an async
// EventDispatcher (see events.go).
func WithEventCallback(callback func(Event)) Option {
	return func(s *Scheduler) {
		s.dispatcher = NewEventDispatcher(callback)
	}
}

// WithMetrics attaches a Metrics instance; without this option the
// scheduler builds its own so Registry() is always usable.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// NewScheduler constructs a Scheduler per spec §6: time_slice ticks per
// dispatch, at most slots tasks concurrently Ready-resident or Running,
// default 16MiB/4096B memory unless overridden.
func NewScheduler(timeSlice, slots uint32, opts ...Option) *Scheduler {
	s := &Scheduler{
		newQ:         NewTaskQueue(),
		readyQ:       NewTaskQueue(),
		readySuspQ:   NewTaskQueue(),
		blockedQ:     NewTaskQueue(),
		blockedSuspQ: NewTaskQueue(),
		processors:   [2]*Processor{NewProcessor(0), NewProcessor(1)},
		mem:          NewMemoryManager(DefaultMemorySize, DefaultPageSize),
		timeSlice:    timeSlice,
		slots:        slots,
		tasks:        make(map[uint32]*Task),
		nextPid:      1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatcher == nil {
		s.dispatcher = NewEventDispatcher(nil)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// hasAvailableSlots reports whether the resident-Ready + Running
// population is below the configured cap. Suspended-Ready tasks do not
// count: they are memory-deferred, not admission-deferred, the same
// distinction the original single-level scheduler drew between its
// task_queue and suspend_queue. See DESIGN.md "Open Questions" for the
// full derivation.
func (s *Scheduler) hasAvailableSlots() bool {
	return s.readyQ.Len()+s.runningCount() < int(s.slots)
}

func (s *Scheduler) runningCount() int {
	n := 0
	for _, p := range s.processors {
		if p.Executing() != nil {
			n++
		}
	}
	return n
}

func (s *Scheduler) emit(e Event) {
	e.Time = s.time
	s.dispatcher.Emit(e)
}

// Submit admits a new task with an auto-assigned sequential pid,
// returning the pid on success. depends_on, if non-nil, must name a
// pid already admitted to this scheduler.
func (s *Scheduler) Submit(requestTime int32, priority uint32, memorySizePages uint32, dependsOn *uint32) (uint32, error) {
	pid := s.nextPid
	if err := s.submitWithPid(pid, requestTime, priority, memorySizePages, dependsOn); err != nil {
		return 0, err
	}
	s.nextPid++
	return pid, nil
}

func (s *Scheduler) submitWithPid(pid uint32, requestTime int32, priority uint32, memorySizePages uint32, dependsOn *uint32) error {
	if _, exists := s.tasks[pid]; exists {
		return ErrInvalidPid
	}

	var predCond *Condition
	if dependsOn != nil {
		pred, ok := s.tasks[*dependsOn]
		if !ok {
			return ErrInvalidCondition
		}
		predCond = pred.OwnCondition()
	}

	t := NewTask(pid, requestTime, priority, memorySizePages)
	t.SetCond(predCond)
	t.SetInQueueTime(s.time)
	s.tasks[pid] = t
	s.newQ.PushTask(t)

	slog.Info("sched: task admitted",
		"pid", pid, "priority", priority, "memory_size", memorySizePages,
		"request_time", requestTime, "time", s.time)
	s.emit(Event{Type: EventAdmitted, Pid: pid})
	return nil
}

// Tick advances simulated time by one unit: it runs check_and_unblock,
// high_level_schedule, mid_level_schedule, and low_level_schedule in
// that order, then advances each Processor.
func (s *Scheduler) Tick() {
	s.time++
	s.checkAndUnblock()
	s.highLevelSchedule()
	s.midLevelSchedule()
	s.lowLevelSchedule()
	for _, p := range s.processors {
		p.RunTick()
	}
	s.updateMetrics()
}

// checkAndUnblock is three-level-schedule pass (1): drain blocked_q and
// blocked_susp_q, promoting to Ready (or Ready∧suspended) whatever has
// both a satisfied Condition and an available slot.
func (s *Scheduler) checkAndUnblock() {
	s.drainBlocked(s.blockedQ, false)
	s.drainBlocked(s.blockedSuspQ, true)
}

func (s *Scheduler) drainBlocked(q *TaskQueue, suspended bool) {
	drained := q.DrainAll()
	for _, t := range drained {
		if t.IsCondSatisfied() && s.hasAvailableSlots() {
			t.SetState(StateReady)
			t.SetInQueueTime(s.time)
			if suspended {
				s.readySuspQ.PushTask(t)
			} else {
				s.readyQ.PushTask(t)
			}
			slog.Info("sched: unblocked", "pid", t.Pid(), "suspended", suspended, "time", s.time)
			s.emit(Event{Type: EventTransition, Pid: t.Pid(), FromState: StateBlocked, ToState: StateReady})
		} else {
			q.PushTask(t)
		}
	}
}

// highLevelSchedule is pass (2): admission/suspension, run as four
// sub-passes in the fixed order spec §4.7 mandates.
func (s *Scheduler) highLevelSchedule() {
	s.highLevelUnsuspendReady()
	s.highLevelSwapWithSuspended()
	s.highLevelSwapWithNew()
	s.highLevelRelieveBlockedForNew()
}

// (a) Unsuspend ready-suspended tasks while slots remain available.
func (s *Scheduler) highLevelUnsuspendReady() {
	var holdAside []*Task
	for s.hasAvailableSlots() && s.readySuspQ.Len() > 0 {
		t := s.readySuspQ.PopMostImportant()
		h, err := s.mem.Allocate(t.MemorySize(), t.Pid())
		if err != nil {
			s.metrics.RecordOOM("unsuspend_ready")
			holdAside = append(holdAside, t)
			continue
		}
		t.SetMemoryRange(h)
		t.SetSuspended(false)
		t.SetInQueueTime(s.time)
		s.readyQ.PushTask(t)
		slog.Info("sched: unsuspended", "pid", t.Pid(), "hole", h, "time", s.time)
		s.emit(Event{Type: EventAllocated, Pid: t.Pid(), Hole: h})
	}
	for _, t := range holdAside {
		s.readySuspQ.PushTask(t)
	}
}

// (b) Swap a resident low-priority Ready task for a higher-priority
// suspended-Ready task, while slots are full.
func (s *Scheduler) highLevelSwapWithSuspended() {
	for !s.hasAvailableSlots() && s.readyQ.Len() > 0 && s.readySuspQ.Len() > 0 {
		a := s.readyQ.PeekLeastImportant()
		b := s.readySuspQ.PeekMostImportant()
		if !(b.Priority() > a.Priority() && a.MemorySize() >= b.MemorySize()) {
			break
		}
		s.readyQ.RemovePid(a.Pid())
		s.readySuspQ.RemovePid(b.Pid())
		s.suspendReadyTask(a)

		h, err := s.mem.Allocate(b.MemorySize(), b.Pid())
		if err != nil {
			s.metrics.RecordOOM("swap_with_suspended")
			s.readySuspQ.PushTask(b)
			continue
		}
		b.SetMemoryRange(h)
		b.SetSuspended(false)
		b.SetInQueueTime(s.time)
		s.readyQ.PushTask(b)
		slog.Info("sched: swapped resident for suspended", "evicted_pid", a.Pid(), "admitted_pid", b.Pid(), "time", s.time)
	}
}

// (c) Swap a resident Ready task for a higher-priority pending New task.
func (s *Scheduler) highLevelSwapWithNew() {
	for !s.hasAvailableSlots() && s.readyQ.Len() > 0 && s.newQ.Len() > 0 {
		a := s.readyQ.PeekLeastImportant()
		nt := s.newQ.PeekMostImportant()
		if !(nt.Priority() > a.Priority() && a.MemorySize() >= nt.MemorySize()) {
			break
		}
		s.readyQ.RemovePid(a.Pid())
		s.newQ.RemovePid(nt.Pid())
		s.suspendReadyTask(a)

		h, err := s.mem.Allocate(nt.MemorySize(), nt.Pid())
		if err != nil {
			s.metrics.RecordOOM("swap_with_new")
			s.newQ.PushTask(nt)
			continue
		}
		nt.SetMemoryRange(h)
		nt.SetState(StateReady)
		nt.SetInQueueTime(s.time)
		s.readyQ.PushTask(nt)
		slog.Info("sched: swapped resident for new arrival", "evicted_pid", a.Pid(), "admitted_pid", nt.Pid(), "time", s.time)
	}
}

// (d) Relieve blocked residents (lowest priority first) so new arrivals
// can later find memory in mid_level_schedule.
func (s *Scheduler) highLevelRelieveBlockedForNew() {
	for s.newQ.Len() > 0 && s.blockedQ.Len() > 0 {
		b := s.blockedQ.PopLeastImportant()
		s.suspendBlockedTask(b)
	}
}

// suspendReadyTask evicts a resident Ready task: frees its memory and
// moves it to ready_susp_q.
func (s *Scheduler) suspendReadyTask(t *Task) {
	s.freeTaskMemory(t)
	t.SetSuspended(true)
	t.SetInQueueTime(s.time)
	s.readySuspQ.PushTask(t)
	s.metrics.RecordSuspension()
}

// suspendBlockedTask evicts a resident Blocked task: frees its memory
// and moves it to blocked_susp_q.
func (s *Scheduler) suspendBlockedTask(t *Task) {
	s.freeTaskMemory(t)
	t.SetSuspended(true)
	t.SetInQueueTime(s.time)
	s.blockedSuspQ.PushTask(t)
	s.metrics.RecordSuspension()
}

func (s *Scheduler) freeTaskMemory(t *Task) {
	h, ok := t.MemoryRange()
	if !ok {
		return
	}
	if err := s.mem.Free(t.Pid()); err != nil {
		panic(err) // invariant violation: resident task with no allocator record
	}
	t.ClearMemoryRange()
	s.emit(Event{Type: EventFreed, Pid: t.Pid(), Hole: h})
}

// midLevelSchedule is pass (3): promote New tasks into Ready while slots
// and memory both allow it.
func (s *Scheduler) midLevelSchedule() {
	for s.hasAvailableSlots() && s.newQ.Len() > 0 {
		t := s.newQ.PopMostImportant()
		h, err := s.mem.Allocate(t.MemorySize(), t.Pid())
		if err != nil {
			s.metrics.RecordOOM("mid_level")
			s.newQ.PushTask(t)
			break
		}
		t.SetMemoryRange(h)
		t.SetState(StateReady)
		t.SetInQueueTime(s.time)
		s.readyQ.PushTask(t)
		slog.Info("sched: admitted to ready", "pid", t.Pid(), "hole", h, "time", s.time)
		s.emit(Event{Type: EventAllocated, Pid: t.Pid(), Hole: h})
	}
}

// lowLevelSchedule is pass (4): dispatch/preempt per Processor in stable
// order, re-filtering condition-unsatisfied Ready heads into blocked_q
// before each Processor's turn — the head popped by one Processor can
// expose a new, still-unsatisfied head for the next.
func (s *Scheduler) lowLevelSchedule() {
	for _, p := range s.processors {
		s.filterBlockedConditionHeads()
		s.scheduleProcessor(p)
	}
}

// filterBlockedConditionHeads repeatedly moves the highest-priority
// Ready task to blocked_q while its predecessor Condition is unsatisfied.
func (s *Scheduler) filterBlockedConditionHeads() {
	for {
		head := s.readyQ.PeekMostImportant()
		if head == nil || head.IsCondSatisfied() {
			break
		}
		t := s.readyQ.PopMostImportant()
		t.SetState(StateBlocked)
		t.SetInQueueTime(s.time)
		s.blockedQ.PushTask(t)
		slog.Info("sched: blocked on condition", "pid", t.Pid(), "time", s.time)
		s.emit(Event{Type: EventTransition, Pid: t.Pid(), FromState: StateReady, ToState: StateBlocked})
	}
}

func (s *Scheduler) scheduleProcessor(p *Processor) {
	nt := s.readyQ.PeekMostImportant()
	ot := p.Executing()
	preempt := ot != nil && nt != nil && nt.Priority() > ot.Priority()
	dispatchable := preempt || p.IsFinished()
	if !dispatchable {
		return
	}

	if nt == nil {
		// Nothing to dispatch. If the bound task is genuinely done,
		// it must still terminate this tick even with no successor.
		if ot != nil && ot.RequestTime() <= 0 {
			p.Bind(nil)
			s.terminateTask(ot)
		}
		return
	}

	popped := s.readyQ.PopMostImportant()
	popped.SetSchTime(int32(s.timeSlice))
	popped.SetState(StateRunning)
	prev := p.Bind(popped)
	slog.Info("sched: dispatched", "proc_id", p.ID(), "pid", popped.Pid(), "preempt", preempt, "time", s.time)

	if prev == nil {
		return
	}
	if preempt {
		s.metrics.RecordPreemption()
		slog.Info("sched: preempted", "proc_id", p.ID(), "old_pid", prev.Pid(), "new_pid", popped.Pid(), "time", s.time)
		s.emit(Event{Type: EventPreempted, Pid: popped.Pid(), OldPid: prev.Pid(), NewPid: popped.Pid()})
	}
	if prev.RequestTime() <= 0 {
		s.terminateTask(prev)
	} else {
		prev.SetState(StateReady)
		prev.SetInQueueTime(s.time)
		s.readyQ.PushTask(prev)
	}
}

// terminateTask frees memory before signalling the task's Condition, so
// any dependent scheduled later in the same tick observes a consistent
// memory map (spec §9).
func (s *Scheduler) terminateTask(t *Task) {
	s.freeTaskMemory(t)
	t.SetState(StateTerminated)
	t.OwnCondition().SetDone()
	s.metrics.RecordTermination()
	slog.Info("sched: terminated", "pid", t.Pid(), "time", s.time)
	s.emit(Event{Type: EventTerminated, Pid: t.Pid()})
}

func (s *Scheduler) updateMetrics() {
	s.metrics.SetQueueDepth("new", s.newQ.Len())
	s.metrics.SetQueueDepth("ready", s.readyQ.Len())
	s.metrics.SetQueueDepth("ready_suspended", s.readySuspQ.Len())
	s.metrics.SetQueueDepth("blocked", s.blockedQ.Len())
	s.metrics.SetQueueDepth("blocked_suspended", s.blockedSuspQ.Len())
	s.metrics.SetMemoryUsedPages(s.mem.UtilizationPages())
}

// MemorySnapshot returns the current pid->Hole residency map, for
// visualization by the host.
func (s *Scheduler) MemorySnapshot() map[uint32]Hole {
	return s.mem.Snapshot()
}

// Executing returns the pid currently bound to each Processor, in
// Processor-index order.
func (s *Scheduler) Executing() [2]*uint32 {
	var out [2]*uint32
	for i, p := range s.processors {
		if t := p.Executing(); t != nil {
			pid := t.Pid()
			out[i] = &pid
		}
	}
	return out
}

// Time returns the current simulated time.
func (s *Scheduler) Time() int32 {
	return s.time
}

// Task looks up an admitted task by pid, for host introspection.
func (s *Scheduler) Task(pid uint32) (*Task, bool) {
	t, ok := s.tasks[pid]
	return t, ok
}

// Metrics returns the scheduler's Prometheus metric set.
func (s *Scheduler) Metrics() *Metrics {
	return s.metrics
}

// Close shuts down the event dispatcher, draining any queued events.
func (s *Scheduler) Close() {
	s.dispatcher.Close()
}
